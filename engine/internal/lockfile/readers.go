// Package lockfile implements the two pieces of environment locking the
// pure-Go engines share: an exclusive lock on the environment's lock
// file, and a bounded table of reader slots.
package lockfile

import (
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultMaxReaders is the number of reader slots used when none is
// configured.
const DefaultMaxReaders = 126

// slotClaimed marks a slot that is taken but has no snapshot yet.
const slotClaimed = ^uint64(0)

// ErrReadersFull is returned when every reader slot is in use.
var ErrReadersFull = errors.New("lock: reader slots full")

// readerSlot represents one read transaction.
type readerSlot struct {
	txnid uint64 // Snapshot the reader started from (atomic)
	_     [56]byte
}

// Slot is a claimed reader slot.
type Slot struct {
	idx int32
}

// Readers is a fixed-size table of reader slots.
type Readers struct {
	slots []readerSlot

	// Slot freelist for fast acquisition (LIFO stack)
	freeSlots []int32
	freeMu    sync.Mutex
}

// NewReaders creates a reader table with max slots. max <= 0 uses
// DefaultMaxReaders.
func NewReaders(max int) *Readers {
	if max <= 0 {
		max = DefaultMaxReaders
	}
	return &Readers{slots: make([]readerSlot, max)}
}

// Max returns the number of slots.
func (r *Readers) Max() int {
	return len(r.slots)
}

// Acquire claims a free slot for a reader of snapshot txnid.
// Uses a LIFO freelist for O(1) acquisition in common case.
func (r *Readers) Acquire(txnid uint64) (Slot, error) {
	r.freeMu.Lock()
	if n := len(r.freeSlots); n > 0 {
		idx := r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
		r.freeMu.Unlock()

		if atomic.CompareAndSwapUint64(&r.slots[idx].txnid, 0, slotClaimed) {
			atomic.StoreUint64(&r.slots[idx].txnid, txnid)
			return Slot{idx: idx}, nil
		}
		// Slot was taken (race), fall through to slow path
	} else {
		r.freeMu.Unlock()
	}

	for i := range r.slots {
		s := &r.slots[i]
		if atomic.LoadUint64(&s.txnid) == 0 && atomic.CompareAndSwapUint64(&s.txnid, 0, slotClaimed) {
			atomic.StoreUint64(&s.txnid, txnid)
			return Slot{idx: int32(i)}, nil
		}
	}

	return Slot{idx: -1}, ErrReadersFull
}

// Release frees a slot claimed by Acquire.
func (r *Readers) Release(s Slot) {
	if s.idx < 0 || int(s.idx) >= len(r.slots) {
		return
	}
	atomic.StoreUint64(&r.slots[s.idx].txnid, 0)

	r.freeMu.Lock()
	r.freeSlots = append(r.freeSlots, s.idx)
	r.freeMu.Unlock()
}

type lockError struct {
	op  string
	err error
}

func (e *lockError) Error() string {
	if e.err != nil {
		return "lock: " + e.op + ": " + e.err.Error()
	}
	return "lock: " + e.op
}

func (e *lockError) Unwrap() error {
	return e.err
}
