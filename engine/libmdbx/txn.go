package libmdbx

import (
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/tablekv/engine"
)

type txn struct {
	env      *Env
	txn      *mdbx.Txn
	readOnly bool
	nested   bool
	locked   bool // holds runtime.LockOSThread
	done     bool
}

var _ engine.Txn = (*txn)(nil)

func (t *txn) ReadOnly() bool { return t.readOnly }

func (t *txn) OpenTable(name string, flags engine.TableFlags) (engine.TableID, error) {
	if t.done {
		return 0, engine.NewError("dbi_open", engine.ErrBadTxn)
	}
	var dbi mdbx.DBI
	var err error
	if name == "" {
		dbi, err = t.txn.OpenRoot(0)
	} else {
		// ACCEDE cannot be combined with other flags: open the existing
		// table with its stored flags first, and create it only when
		// missing.
		dbi, err = t.txn.OpenDBI(name, dbAccede, nil, nil)
		if mdbx.IsNotFound(err) && flags&engine.Create != 0 {
			dbi, err = t.txn.OpenDBI(name, uint(flags), nil, nil)
		}
	}
	if err != nil {
		return 0, wrapError("dbi_open", err)
	}
	return engine.TableID(dbi), nil
}

func (t *txn) TableFlags(id engine.TableID) (engine.TableFlags, error) {
	if t.done {
		return 0, engine.NewError("dbi_flags", engine.ErrBadTxn)
	}
	flags, err := t.txn.Flags(mdbx.DBI(id))
	if err != nil {
		return 0, wrapError("dbi_flags", err)
	}
	return engine.TableFlags(flags).Persistent(), nil
}

func (t *txn) DropTable(id engine.TableID, del bool) error {
	if t.done {
		return engine.NewError("drop", engine.ErrBadTxn)
	}
	if err := t.txn.Drop(mdbx.DBI(id), del && id != engine.MainTable); err != nil {
		return wrapError("drop", err)
	}
	return nil
}

func (t *txn) OpenCursor(id engine.TableID) (engine.Cursor, error) {
	if t.done {
		return nil, engine.NewError("cursor_open", engine.ErrBadTxn)
	}
	c, err := t.txn.OpenCursor(mdbx.DBI(id))
	if err != nil {
		return nil, wrapError("cursor_open", err)
	}
	return &cursor{c: c}, nil
}

func (t *txn) finish() {
	t.done = true
	if t.locked {
		t.locked = false
		runtime.UnlockOSThread()
	}
}

func (t *txn) Commit() error {
	if t.done {
		return engine.NewError("txn_commit", engine.ErrBadTxn)
	}
	defer t.finish()
	if _, err := t.txn.Commit(); err != nil {
		return wrapError("txn_commit", err)
	}
	return nil
}

func (t *txn) Abort() {
	if t.done {
		return
	}
	t.txn.Abort()
	t.finish()
}

// opCodes maps engine ops to mdbx cursor ops.
var opCodes = [...]uint{
	engine.First:        mdbx.First,
	engine.FirstDup:     mdbx.FirstDup,
	engine.GetBoth:      mdbx.GetBoth,
	engine.GetBothRange: mdbx.GetBothRange,
	engine.GetCurrent:   mdbx.GetCurrent,
	engine.Last:         mdbx.Last,
	engine.LastDup:      mdbx.LastDup,
	engine.Next:         mdbx.Next,
	engine.NextDup:      mdbx.NextDup,
	engine.NextNoDup:    mdbx.NextNoDup,
	engine.Prev:         mdbx.Prev,
	engine.PrevDup:      mdbx.PrevDup,
	engine.PrevNoDup:    mdbx.PrevNoDup,
	engine.Set:          mdbx.Set,
	engine.SetKey:       mdbx.SetKey,
	engine.SetRange:     mdbx.SetRange,
}

type cursor struct {
	c *mdbx.Cursor
}

func (c *cursor) Get(key, val []byte, op engine.Op) ([]byte, []byte, error) {
	if int(op) >= len(opCodes) {
		return nil, nil, engine.NewError("cursor_get", engine.ErrInval)
	}
	k, v, err := c.c.Get(key, val, opCodes[op])
	if err != nil {
		return nil, nil, wrapError("cursor_"+op.String(), err)
	}
	if k == nil && (op == engine.FirstDup || op == engine.LastDup) {
		// mdbx-go leaves the key out for the *_DUP ops.
		if k, _, err = c.c.Get(nil, nil, mdbx.GetCurrent); err != nil {
			return nil, nil, wrapError("cursor_"+op.String(), err)
		}
	}
	return k, v, nil
}

func (c *cursor) Put(key, val []byte, flags engine.PutFlags) error {
	if err := c.c.Put(key, val, uint(flags)); err != nil {
		return wrapError("cursor_put", err)
	}
	return nil
}

func (c *cursor) Reserve(key []byte, n int, flags engine.PutFlags) ([]byte, error) {
	buf, err := c.c.PutReserve(key, n, uint(flags&^engine.Reserve))
	if err != nil {
		return nil, wrapError("cursor_reserve", err)
	}
	return buf, nil
}

func (c *cursor) Del(flags engine.DelFlags) error {
	if err := c.c.Del(uint(flags)); err != nil {
		return wrapError("cursor_del", err)
	}
	return nil
}

func (c *cursor) Close() {
	c.c.Close()
}
