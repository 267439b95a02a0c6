package tablekv

import (
	"github.com/Giulio2002/tablekv/engine"
)

// Cursor is a position inside one Table for one Transaction. It is the
// only way to insert, update, delete or scan entries.
//
// Positioning methods return a FindResult; a miss returns an invalid
// result and records NotFound, which is an expected outcome rather than
// a failure. A cursor of a read-write transaction becomes unusable once
// the transaction is finalized. A cursor of a committed read-only
// transaction stays readable until the transaction is closed.
type Cursor struct {
	errorState
	txn   *Transaction
	table *Table
	cur   engine.Cursor
	valid bool
	stale bool // the transaction was finalized
}

// NewCursor opens a cursor on table inside txn. The cursor is
// permanently invalid, with InvalidParameter, unless both are valid.
func NewCursor(txn *Transaction, table *Table) *Cursor {
	c := &Cursor{txn: txn, table: table}
	if !txn.IsValid() || !table.IsValid() {
		c.setCode(InvalidParameter, "cursor needs a valid transaction and table")
		return c
	}
	cur, err := txn.txn.OpenCursor(table.id())
	if err != nil {
		c.setError(err)
		return c
	}
	c.cur = cur
	c.valid = true
	txn.register(c)
	return c
}

// IsValid reports whether the cursor can be used.
func (c *Cursor) IsValid() bool {
	return c.valid && !c.stale
}

// Transaction returns the transaction of the cursor.
func (c *Cursor) Transaction() *Transaction { return c.txn }

// Table returns the table of the cursor.
func (c *Cursor) Table() *Table { return c.table }

func (c *Cursor) usable() bool {
	switch {
	case !c.valid:
		c.setCode(InvalidParameter, "cursor is not valid")
		return false
	case c.stale:
		c.setCode(BadTransaction, "transaction of the cursor was finalized")
		return false
	}
	return true
}

func (c *Cursor) get(key, value []byte, op engine.Op) FindResult {
	if !c.usable() {
		return FindResult{}
	}
	k, v, err := c.cur.Get(key, value, op)
	if err != nil {
		c.setError(err)
		return FindResult{}
	}
	if k == nil {
		k = key
	}
	c.clearError()
	return found(k, v)
}

// First moves to the first entry of the table.
func (c *Cursor) First() FindResult { return c.get(nil, nil, engine.First) }

// Last moves to the last entry of the table.
func (c *Cursor) Last() FindResult { return c.get(nil, nil, engine.Last) }

// Next moves to the next entry, which is the next value of the current
// key in a multi-value table.
func (c *Cursor) Next() FindResult { return c.get(nil, nil, engine.Next) }

// Previous moves to the previous entry.
func (c *Cursor) Previous() FindResult { return c.get(nil, nil, engine.Prev) }

// NextForCurrentKey moves to the next value of the current key.
func (c *Cursor) NextForCurrentKey() FindResult { return c.get(nil, nil, engine.NextDup) }

// PreviousForCurrentKey moves to the previous value of the current key.
func (c *Cursor) PreviousForCurrentKey() FindResult { return c.get(nil, nil, engine.PrevDup) }

// NextKey moves to the first value of the next key.
func (c *Cursor) NextKey() FindResult { return c.get(nil, nil, engine.NextNoDup) }

// PreviousKey moves to the last value of the previous key.
func (c *Cursor) PreviousKey() FindResult { return c.get(nil, nil, engine.PrevNoDup) }

// FirstForCurrentKey moves to the first value of the current key.
func (c *Cursor) FirstForCurrentKey() FindResult { return c.get(nil, nil, engine.FirstDup) }

// LastForCurrentKey moves to the last value of the current key.
func (c *Cursor) LastForCurrentKey() FindResult { return c.get(nil, nil, engine.LastDup) }

// FindKey moves to the first value of key.
func (c *Cursor) FindKey(key []byte) FindResult { return c.get(key, nil, engine.SetKey) }

// FindFirstAfter moves to key, or to the first key after it.
func (c *Cursor) FindFirstAfter(key []byte) FindResult { return c.get(key, nil, engine.SetRange) }

// Find moves to the exact key/value pair.
func (c *Cursor) Find(key, value []byte) FindResult { return c.get(key, value, engine.GetBoth) }

// FindNearest moves to the first value of key that is not less than
// value. It never leaves key: a value after the last one of the key is a
// miss.
func (c *Cursor) FindNearest(key, value []byte) FindResult {
	return c.get(key, value, engine.GetBothRange)
}

// Current returns the entry under the cursor without moving.
func (c *Cursor) Current() FindResult { return c.get(nil, nil, engine.GetCurrent) }

func putFlags(flags []PutFlags) PutFlags {
	var f PutFlags
	for _, flag := range flags {
		f |= flag
	}
	return f
}

// Put writes key and value and leaves the cursor on the written entry.
// With Reserve the value is written through the reserved region.
func (c *Cursor) Put(key, value []byte, flags ...PutFlags) bool {
	f := putFlags(flags)
	if f&Reserve != 0 {
		buf, ok := c.PutReserve(key, len(value), f)
		if ok {
			copy(buf, value)
		}
		return ok
	}
	if !c.usable() {
		return false
	}
	if err := c.cur.Put(key, value, f.engineFlags()); err != nil {
		c.setError(err)
		return false
	}
	c.clearError()
	return true
}

// PutReserve writes key with a size-byte value and returns the value
// region for the caller to fill. The region is uninitialized and only
// valid until the next operation on the transaction.
func (c *Cursor) PutReserve(key []byte, size int, flags ...PutFlags) ([]byte, bool) {
	if !c.usable() {
		return nil, false
	}
	f := putFlags(flags) | Reserve
	buf, err := c.cur.Reserve(key, size, f.engineFlags())
	if err != nil {
		c.setError(err)
		return nil, false
	}
	c.clearError()
	return buf, true
}

// Remove deletes the entry under the cursor, or with RemoveAll every
// value of the current key. The cursor must be positioned first.
func (c *Cursor) Remove(flags ...RemoveFlags) bool {
	if !c.usable() {
		return false
	}
	var f RemoveFlags
	for _, flag := range flags {
		f |= flag
	}
	if err := c.cur.Del(f.engineFlags()); err != nil {
		c.setError(err)
		return false
	}
	c.clearError()
	return true
}

// Close releases the cursor. It never commits anything.
func (c *Cursor) Close() {
	if c.cur == nil {
		return
	}
	if !c.stale {
		c.cur.Close()
		c.txn.unregister(c)
	}
	c.cur = nil
	c.valid = false
}

// invalidate is called by the transaction when it is finalized.
func (c *Cursor) invalidate() {
	if c.cur != nil && !c.stale {
		c.cur.Close()
	}
	c.stale = true
}
