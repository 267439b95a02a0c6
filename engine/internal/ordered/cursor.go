package ordered

import (
	"bytes"

	"github.com/Giulio2002/tablekv/engine"
)

// cursorState tracks cursor validity
type cursorState uint8

const (
	cursorUninitialized cursorState = iota
	cursorPointing                  // Cursor is at a valid position
	cursorDeleted                   // Entry under the cursor was deleted
	cursorEOF                       // Cursor is past the end
	cursorBOF                       // Cursor is before the start
	cursorClosed
)

// Cursor implements engine.Cursor over a Store.
//
// The position is kept as a copy of the encoded pair the cursor sits on,
// so it survives mutations of the store. After a delete the position is
// the deleted pair: Next and GetCurrent return its successor and Prev
// its predecessor.
type Cursor struct {
	store    Store
	codec    Codec
	readOnly bool
	onClose  func()

	state   cursorState
	key     []byte
	val     []byte
	keyGone bool // every value of key was deleted
}

var _ engine.Cursor = (*Cursor)(nil)

// NewCursor creates a cursor over store. onClose, if not nil, is called
// once when the cursor is closed.
func NewCursor(store Store, codec Codec, readOnly bool, onClose func()) *Cursor {
	return &Cursor{
		store:    store,
		codec:    codec,
		readOnly: readOnly,
		onClose:  onClose,
	}
}

// Close releases the cursor.
func (c *Cursor) Close() {
	if c.state == cursorClosed {
		return
	}
	c.state = cursorClosed
	c.key, c.val = nil, nil
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *Cursor) check(op string) error {
	if c.state == cursorClosed {
		return engine.NewError(op, engine.ErrBadTxn)
	}
	return c.store.Check()
}

func notFound(op engine.Op) error {
	return engine.NewError("cursor_"+op.String(), engine.ErrNotFound)
}

func invalid(op engine.Op) error {
	return engine.NewError("cursor_"+op.String(), engine.ErrInval)
}

// land moves the cursor onto p.
func (c *Cursor) land(p Pair) ([]byte, []byte, error) {
	c.state = cursorPointing
	c.keyGone = false
	c.key = append(c.key[:0], p.Key...)
	c.val = append(c.val[:0], p.Val...)
	return c.current()
}

// current returns the decoded pair under the cursor.
func (c *Cursor) current() ([]byte, []byte, error) {
	return c.codec.DecodeKey(c.key), c.codec.DecodeVal(c.val), nil
}

func (c *Cursor) emit(p Pair) ([]byte, []byte, error) {
	return c.codec.DecodeKey(p.Key), c.codec.DecodeVal(p.Val), nil
}

// seekResult lands on p, or forgets the position on a miss.
func (c *Cursor) seekResult(op engine.Op, p Pair, ok bool) ([]byte, []byte, error) {
	if !ok {
		c.state = cursorUninitialized
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

// Get retrieves key-value at the cursor position based on operation.
func (c *Cursor) Get(key, val []byte, op engine.Op) ([]byte, []byte, error) {
	if err := c.check("cursor_" + op.String()); err != nil {
		return nil, nil, err
	}

	switch op {
	case engine.First:
		p, ok := c.store.First()
		return c.seekResult(op, p, ok)
	case engine.Last:
		p, ok := c.store.Last()
		return c.seekResult(op, p, ok)
	case engine.Next:
		return c.next(op)
	case engine.Prev:
		return c.prev(op)
	case engine.NextDup:
		return c.nextDup(op)
	case engine.PrevDup:
		return c.prevDup(op)
	case engine.NextNoDup:
		return c.nextNoDup(op)
	case engine.PrevNoDup:
		return c.prevNoDup(op)
	case engine.FirstDup, engine.LastDup:
		return c.edgeDup(op)
	case engine.GetCurrent:
		return c.getCurrent(op)
	case engine.Set, engine.SetKey, engine.SetRange:
		return c.set(key, op)
	case engine.GetBoth, engine.GetBothRange:
		return c.getBoth(key, val, op)
	default:
		return nil, nil, invalid(op)
	}
}

func (c *Cursor) next(op engine.Op) ([]byte, []byte, error) {
	var p Pair
	var ok bool
	switch c.state {
	case cursorUninitialized, cursorBOF:
		p, ok = c.store.First()
	case cursorEOF:
		return nil, nil, notFound(op)
	case cursorDeleted:
		if c.keyGone {
			p, ok = c.store.AfterKey(c.key)
		} else {
			p, ok = c.store.After(c.key, c.val)
		}
	default:
		p, ok = c.store.After(c.key, c.val)
	}
	if !ok {
		c.state = cursorEOF
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

func (c *Cursor) prev(op engine.Op) ([]byte, []byte, error) {
	var p Pair
	var ok bool
	switch c.state {
	case cursorUninitialized, cursorEOF:
		p, ok = c.store.Last()
	case cursorBOF:
		return nil, nil, notFound(op)
	case cursorDeleted:
		if c.keyGone {
			p, ok = c.store.Before(c.key, nil)
		} else {
			p, ok = c.store.Before(c.key, c.val)
		}
	default:
		p, ok = c.store.Before(c.key, c.val)
	}
	if !ok {
		c.state = cursorBOF
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

func (c *Cursor) nextDup(op engine.Op) ([]byte, []byte, error) {
	if !c.codec.Dup() {
		return nil, nil, notFound(op)
	}
	switch c.state {
	case cursorUninitialized:
		p, ok := c.store.First()
		return c.seekResult(op, p, ok)
	case cursorPointing:
		p, ok := c.store.After(c.key, c.val)
		if ok && bytes.Equal(p.Key, c.key) {
			return c.land(p)
		}
	}
	return nil, nil, notFound(op)
}

func (c *Cursor) prevDup(op engine.Op) ([]byte, []byte, error) {
	if !c.codec.Dup() {
		return nil, nil, notFound(op)
	}
	switch c.state {
	case cursorUninitialized:
		p, ok := c.store.Last()
		return c.seekResult(op, p, ok)
	case cursorPointing:
		p, ok := c.store.Before(c.key, c.val)
		if ok && bytes.Equal(p.Key, c.key) {
			return c.land(p)
		}
	}
	return nil, nil, notFound(op)
}

func (c *Cursor) nextNoDup(op engine.Op) ([]byte, []byte, error) {
	var p Pair
	var ok bool
	switch c.state {
	case cursorUninitialized, cursorBOF:
		p, ok = c.store.First()
	case cursorEOF:
		return nil, nil, notFound(op)
	default:
		p, ok = c.store.AfterKey(c.key)
	}
	if !ok {
		c.state = cursorEOF
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

func (c *Cursor) prevNoDup(op engine.Op) ([]byte, []byte, error) {
	var p Pair
	var ok bool
	switch c.state {
	case cursorUninitialized, cursorEOF:
		p, ok = c.store.Last()
	case cursorBOF:
		return nil, nil, notFound(op)
	default:
		// Before the first value of the current key is the last value
		// of the previous key.
		p, ok = c.store.Before(c.key, nil)
	}
	if !ok {
		c.state = cursorBOF
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

// edgeDup handles FirstDup and LastDup.
func (c *Cursor) edgeDup(op engine.Op) ([]byte, []byte, error) {
	switch c.state {
	case cursorUninitialized:
		return nil, nil, invalid(op)
	case cursorPointing, cursorDeleted:
	default:
		return nil, nil, notFound(op)
	}
	if !c.codec.Dup() {
		return nil, nil, engine.NewError("cursor_"+op.String(), engine.ErrIncompatible)
	}

	var p Pair
	var ok bool
	if op == engine.FirstDup {
		p, ok = c.store.Seek(c.key, nil)
	} else {
		p, ok = c.store.LastOf(c.key)
	}
	if !ok || !bytes.Equal(p.Key, c.key) {
		return nil, nil, notFound(op)
	}
	return c.land(p)
}

func (c *Cursor) getCurrent(op engine.Op) ([]byte, []byte, error) {
	switch c.state {
	case cursorUninitialized:
		return nil, nil, invalid(op)
	case cursorDeleted:
		// The successor of a deleted entry, without moving.
		var p Pair
		var ok bool
		if c.keyGone {
			p, ok = c.store.AfterKey(c.key)
		} else {
			p, ok = c.store.Seek(c.key, c.val)
		}
		if !ok {
			return nil, nil, notFound(op)
		}
		return c.emit(p)
	case cursorPointing:
		// Re-read so that values written through Reserve or another
		// cursor are seen.
		p, ok := c.store.Seek(c.key, c.val)
		if !ok || !bytes.Equal(p.Key, c.key) || (c.codec.Dup() && !bytes.Equal(p.Val, c.val)) {
			return nil, nil, notFound(op)
		}
		return c.emit(p)
	default:
		return nil, nil, notFound(op)
	}
}

func (c *Cursor) set(key []byte, op engine.Op) ([]byte, []byte, error) {
	ek, err := c.codec.EncodeKey(key)
	if err != nil {
		return nil, nil, err
	}
	p, ok := c.store.Seek(ek, nil)
	if op != engine.SetRange && ok && !bytes.Equal(p.Key, ek) {
		ok = false
	}
	return c.seekResult(op, p, ok)
}

func (c *Cursor) getBoth(key, val []byte, op engine.Op) ([]byte, []byte, error) {
	ek, err := c.codec.EncodeKey(key)
	if err != nil {
		return nil, nil, err
	}
	ev, err := c.codec.EncodeVal(val)
	if err != nil {
		return nil, nil, err
	}

	if !c.codec.Dup() {
		p, ok := c.store.Seek(ek, nil)
		if ok && bytes.Equal(p.Key, ek) {
			cmp := bytes.Compare(p.Val, ev)
			if cmp == 0 || (op == engine.GetBothRange && cmp > 0) {
				return c.land(p)
			}
		}
		return c.seekResult(op, Pair{}, false)
	}

	// GetBothRange never leaves the key: with no value >= val under key
	// the lookup fails instead of moving to the next key.
	p, ok := c.store.Seek(ek, ev)
	if ok && !bytes.Equal(p.Key, ek) {
		ok = false
	}
	if ok && op == engine.GetBoth && !bytes.Equal(p.Val, ev) {
		ok = false
	}
	return c.seekResult(op, p, ok)
}

// Put stores a key-value pair and positions the cursor on it.
func (c *Cursor) Put(key, val []byte, flags engine.PutFlags) error {
	if err := c.check("cursor_put"); err != nil {
		return err
	}
	if c.readOnly {
		return engine.NewError("cursor_put", engine.ErrAccess)
	}
	ek, err := c.codec.EncodeKey(key)
	if err != nil {
		return err
	}
	ev, err := c.codec.EncodeVal(val)
	if err != nil {
		return err
	}
	return c.put(ek, ev, flags)
}

// Reserve stores a zeroed value of n bytes and returns it for the caller
// to fill. DupSort tables cannot reserve.
func (c *Cursor) Reserve(key []byte, n int, flags engine.PutFlags) ([]byte, error) {
	if err := c.check("cursor_reserve"); err != nil {
		return nil, err
	}
	if c.readOnly {
		return nil, engine.NewError("cursor_reserve", engine.ErrAccess)
	}
	if c.codec.Dup() || n < 0 {
		return nil, engine.NewError("cursor_reserve", engine.ErrInval)
	}
	if n > MaxValSize {
		return nil, engine.NewError("cursor_reserve", engine.ErrBadValSize)
	}
	ek, err := c.codec.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := c.put(ek, buf, flags&^engine.Reserve); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Cursor) put(ek, ev []byte, flags engine.PutFlags) error {
	dup := c.codec.Dup()

	if flags&engine.Current != 0 {
		if c.state != cursorPointing {
			return engine.NewError("cursor_put", engine.ErrInval)
		}
		if !bytes.Equal(ek, c.key) {
			return engine.NewError("cursor_put", engine.ErrKeyMismatch)
		}
		if dup {
			if bytes.Equal(ev, c.val) {
				return nil
			}
			if c.codec.flags&engine.DupFixed != 0 && len(ev) != len(c.val) {
				return engine.NewError("cursor_put", engine.ErrBadValSize)
			}
			if err := c.store.Delete(c.key, c.val); err != nil {
				return err
			}
		}
		if err := c.store.Put(ek, ev); err != nil {
			return err
		}
		c.land(Pair{Key: ek, Val: ev})
		return nil
	}

	if flags&engine.Append != 0 {
		if last, ok := c.store.Last(); ok {
			cmp := bytes.Compare(ek, last.Key)
			sameKeyOK := cmp == 0 && dup && flags&engine.AppendDup != 0 && bytes.Compare(ev, last.Val) > 0
			if cmp < 0 || (cmp == 0 && !sameKeyOK) {
				return engine.NewError("cursor_put", engine.ErrKeyExist)
			}
		}
	} else if dup && flags&engine.AppendDup != 0 {
		if last, ok := c.store.LastOf(ek); ok && bytes.Compare(ev, last.Val) <= 0 {
			return engine.NewError("cursor_put", engine.ErrKeyExist)
		}
	}

	first, exists := c.store.Seek(ek, nil)
	exists = exists && bytes.Equal(first.Key, ek)

	if flags&engine.NoOverwrite != 0 && exists {
		c.land(first)
		return engine.NewError("cursor_put", engine.ErrKeyExist)
	}

	if dup {
		if exact, ok := c.store.Seek(ek, ev); ok && bytes.Equal(exact.Key, ek) && bytes.Equal(exact.Val, ev) {
			c.land(exact)
			if flags&engine.NoDupData != 0 {
				return engine.NewError("cursor_put", engine.ErrKeyExist)
			}
			return nil
		}
		if exists && c.codec.flags&engine.DupFixed != 0 && len(first.Val) != len(ev) {
			return engine.NewError("cursor_put", engine.ErrBadValSize)
		}
	} else if flags&engine.NoDupData != 0 && exists && bytes.Equal(first.Val, ev) {
		c.land(first)
		return engine.NewError("cursor_put", engine.ErrKeyExist)
	}

	if err := c.store.Put(ek, ev); err != nil {
		return err
	}
	c.land(Pair{Key: ek, Val: ev})
	return nil
}

// Del deletes the current key-value pair, or all values of the current
// key with AllDups.
func (c *Cursor) Del(flags engine.DelFlags) error {
	if err := c.check("cursor_del"); err != nil {
		return err
	}
	if c.readOnly {
		return engine.NewError("cursor_del", engine.ErrAccess)
	}
	if c.state != cursorPointing {
		return engine.NewError("cursor_del", engine.ErrNotFound)
	}

	if flags&engine.AllDups != 0 && c.codec.Dup() {
		if err := c.store.DeleteKey(c.key); err != nil {
			return err
		}
		c.keyGone = true
	} else {
		if err := c.store.Delete(c.key, c.val); err != nil {
			return err
		}
	}
	c.state = cursorDeleted
	return nil
}
