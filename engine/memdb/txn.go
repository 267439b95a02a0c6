package memdb

import (
	"github.com/google/btree"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/lockfile"
	"github.com/Giulio2002/tablekv/engine/internal/ordered"
)

type txn struct {
	env      *Env
	parent   *txn
	child    *txn
	state    *snapshot
	readOnly bool
	slot     lockfile.Slot
	done     bool
}

var _ engine.Txn = (*txn)(nil)

func (t *txn) ReadOnly() bool { return t.readOnly }

// check fails when t is finished or has an active child.
func (t *txn) check(op string) error {
	if t.done || t.child != nil {
		return engine.NewError(op, engine.ErrBadTxn)
	}
	return nil
}

func (t *txn) beginChild(readOnly bool) (engine.Txn, error) {
	if err := t.check("txn_begin"); err != nil {
		return nil, err
	}
	if t.readOnly || readOnly {
		return nil, engine.NewError("txn_begin", engine.ErrIncompatible)
	}
	child := &txn{env: t.env, parent: t, state: t.state.clone()}
	t.child = child
	return child, nil
}

func (t *txn) OpenTable(name string, flags engine.TableFlags) (engine.TableID, error) {
	if err := t.check("dbi_open"); err != nil {
		return 0, err
	}
	if !flags.Valid() {
		return 0, engine.NewError("dbi_open", engine.ErrInval)
	}
	if name == "" {
		return engine.MainTable, nil
	}
	if id, ok := t.state.names[name]; ok {
		return id, nil
	}
	if flags&engine.Create == 0 {
		return 0, engine.NewError("dbi_open", engine.ErrNotFound)
	}
	if t.readOnly {
		return 0, engine.NewError("dbi_open", engine.ErrAccess)
	}

	slot, ok := t.state.slots.Allocate()
	if !ok {
		return 0, engine.NewError("dbi_open", engine.ErrDBsFull)
	}
	id := firstTableID + engine.TableID(slot)
	t.state.names[name] = id
	t.state.tables.Set(uint32(id), tableInfo{name: name, flags: flags.Persistent()})
	return id, nil
}

func (t *txn) table(op string, id engine.TableID) (tableInfo, error) {
	if err := t.check(op); err != nil {
		return tableInfo{}, err
	}
	info, ok := t.state.tables.Get(uint32(id))
	if !ok {
		return tableInfo{}, engine.NewError(op, engine.ErrBadDBI)
	}
	return info, nil
}

func (t *txn) TableFlags(id engine.TableID) (engine.TableFlags, error) {
	info, err := t.table("dbi_flags", id)
	if err != nil {
		return 0, err
	}
	return info.flags, nil
}

func (t *txn) DropTable(id engine.TableID, del bool) error {
	info, err := t.table("drop", id)
	if err != nil {
		return err
	}
	if t.readOnly {
		return engine.NewError("drop", engine.ErrAccess)
	}

	var items []item
	t.state.tree.AscendGreaterOrEqual(item{table: id}, func(i btree.Item) bool {
		it := i.(item)
		if it.table != id {
			return false
		}
		items = append(items, it)
		return true
	})
	for _, it := range items {
		t.delete(it)
	}

	if del && id != engine.MainTable {
		delete(t.state.names, info.name)
		t.state.tables.Delete(uint32(id))
		t.state.slots.Free(uint32(id - firstTableID))
	}
	return nil
}

func (t *txn) OpenCursor(id engine.TableID) (engine.Cursor, error) {
	info, err := t.table("cursor_open", id)
	if err != nil {
		return nil, err
	}
	store := &tableStore{txn: t, id: id, dup: info.flags.IsDup()}
	return ordered.NewCursor(store, ordered.NewCodec(info.flags), t.readOnly, nil), nil
}

// put inserts it, failing with MapFull when the map size would be
// exceeded.
func (t *txn) put(it item) error {
	size := t.state.size + it.size()
	old := t.state.tree.Get(it)
	if old != nil {
		size -= old.(item).size()
	}
	if size > t.env.mapSize {
		return engine.NewError("put", engine.ErrMapFull)
	}
	t.state.tree.ReplaceOrInsert(it)
	t.state.size = size
	return nil
}

func (t *txn) delete(it item) {
	if old := t.state.tree.Delete(it); old != nil {
		t.state.size -= old.(item).size()
	}
}

// finish aborts an active child and marks t done.
func (t *txn) finish() {
	if t.child != nil {
		t.child.Abort()
	}
	t.done = true
}

func (t *txn) Commit() error {
	if t.done {
		return engine.NewError("txn_commit", engine.ErrBadTxn)
	}
	t.finish()

	switch {
	case t.readOnly:
		t.env.readers.Release(t.slot)
	case t.parent != nil:
		t.parent.state = t.state
		t.parent.child = nil
	default:
		t.env.publish(t.state)
		t.env.writer.Unlock()
	}
	t.state = nil
	return nil
}

func (t *txn) Abort() {
	if t.done {
		return
	}
	t.finish()

	switch {
	case t.readOnly:
		t.env.readers.Release(t.slot)
	case t.parent != nil:
		t.parent.child = nil
	default:
		t.env.writer.Unlock()
	}
	t.state = nil
}
