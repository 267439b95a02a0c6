// Package slots hands out table handle slots. The number of slots is the
// environment's max-tables limit; running out of slots is DBsFull.
package slots

import "math/bits"

// Bitmap tracks slot allocation using a bitset.
// Uses uint64 words for efficient 64-bit operations.
type Bitmap struct {
	words    []uint64
	numSlots uint32
	freeHint uint32 // Hint for where to start searching for free slots
}

// NewBitmap creates a bitmap capable of tracking the given number of slots.
func NewBitmap(numSlots uint32) *Bitmap {
	numWords := (numSlots + 63) / 64
	return &Bitmap{
		words:    make([]uint64, numWords),
		numSlots: numSlots,
	}
}

// Allocate finds and marks a free slot.
// Returns (0, false) if no free slot is available.
func (b *Bitmap) Allocate() (uint32, bool) {
	numWords := uint32(len(b.words))
	if numWords == 0 {
		return 0, false
	}

	startWord := b.freeHint / 64
	for i := uint32(0); i < numWords; i++ {
		wordIdx := (startWord + i) % numWords
		word := b.words[wordIdx]
		if word == ^uint64(0) {
			continue
		}
		// First zero bit, from the bottom of the word. Bits below freeHint
		// in the start word may be free too, so take the lowest.
		bitPos := bits.TrailingZeros64(^word)
		slot := wordIdx*64 + uint32(bitPos)
		if slot >= b.numSlots {
			continue
		}
		b.words[wordIdx] |= 1 << bitPos
		b.freeHint = slot + 1
		return slot, true
	}

	return 0, false
}

// Free marks a slot as available.
func (b *Bitmap) Free(slot uint32) {
	if slot >= b.numSlots {
		return
	}
	b.words[slot/64] &^= 1 << (slot % 64)
	if slot < b.freeHint {
		b.freeHint = slot
	}
}

// Mark marks a specific slot as allocated. It is used when slots are
// restored from a persisted catalog.
func (b *Bitmap) Mark(slot uint32) bool {
	if slot >= b.numSlots || b.IsAllocated(slot) {
		return false
	}
	b.words[slot/64] |= 1 << (slot % 64)
	return true
}

// IsAllocated returns true if the slot is marked as allocated.
func (b *Bitmap) IsAllocated(slot uint32) bool {
	if slot >= b.numSlots {
		return false
	}
	return b.words[slot/64]&(1<<(slot%64)) != 0
}

// Count returns the number of allocated slots.
func (b *Bitmap) Count() uint32 {
	var count uint32
	for _, word := range b.words {
		count += uint32(bits.OnesCount64(word))
	}
	return count
}

// Capacity returns the total number of slots.
func (b *Bitmap) Capacity() uint32 {
	return b.numSlots
}

// Clone returns an independent copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	out := &Bitmap{
		words:    make([]uint64, len(b.words)),
		numSlots: b.numSlots,
		freeHint: b.freeHint,
	}
	copy(out.words, b.words)
	return out
}
