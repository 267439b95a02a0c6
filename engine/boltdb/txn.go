package boltdb

import (
	"errors"

	"go.etcd.io/bbolt"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/fastmap"
	"github.com/Giulio2002/tablekv/engine/internal/lockfile"
	"github.com/Giulio2002/tablekv/engine/internal/ordered"
	"github.com/Giulio2002/tablekv/engine/internal/slots"
)

// firstTableID is the ID of the first named table.
const firstTableID = engine.MainTable + 1

// pairOverhead is charged against the map size for every written pair.
const pairOverhead = 16

type tableInfo struct {
	name  string
	flags engine.TableFlags
}

type txn struct {
	env      *Env
	tx       *bbolt.Tx
	readOnly bool
	slot     lockfile.Slot
	done     bool

	tables *fastmap.Map[tableInfo]
	slots  *slots.Bitmap // nil in read-only transactions

	base    int64 // data file size when the transaction began
	written int64
}

var _ engine.Txn = (*txn)(nil)

func (t *txn) ReadOnly() bool { return t.readOnly }

// loadCatalog indexes the tables visible to the transaction.
func (t *txn) loadCatalog(maxTables int) error {
	t.tables = &fastmap.Map[tableInfo]{}
	t.tables.Set(uint32(engine.MainTable), tableInfo{})
	if !t.readOnly {
		t.slots = slots.NewBitmap(uint32(maxTables))
	}

	cat := t.tx.Bucket(catalogBucket)
	if cat == nil {
		return nil
	}
	return cat.ForEach(func(name, rec []byte) error {
		id, flags, ok := decodeTableRecord(rec)
		if !ok {
			return engine.NewError("dbi_open", engine.ErrCorrupted)
		}
		t.tables.Set(uint32(id), tableInfo{name: string(name), flags: flags})
		if t.slots != nil {
			t.slots.Mark(uint32(id - firstTableID))
		}
		return nil
	})
}

func (t *txn) check(op string) error {
	if t.done {
		return engine.NewError(op, engine.ErrBadTxn)
	}
	return nil
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

	cat := t.tx.Bucket(catalogBucket)
	if cat != nil {
		if rec := cat.Get([]byte(name)); rec != nil {
			id, _, ok := decodeTableRecord(rec)
			if !ok {
				return 0, engine.NewError("dbi_open", engine.ErrCorrupted)
			}
			return id, nil
		}
	}
	if flags&engine.Create == 0 {
		return 0, engine.NewError("dbi_open", engine.ErrNotFound)
	}
	if t.readOnly || cat == nil {
		return 0, engine.NewError("dbi_open", engine.ErrAccess)
	}

	slot, ok := t.slots.Allocate()
	if !ok {
		return 0, engine.NewError("dbi_open", engine.ErrDBsFull)
	}
	id := firstTableID + engine.TableID(slot)
	flags = flags.Persistent()
	if err := cat.Put([]byte(name), encodeTableRecord(id, flags)); err != nil {
		t.slots.Free(slot)
		return 0, wrapError("dbi_open", err)
	}
	if _, err := t.tx.CreateBucketIfNotExists(tableBucket(id)); err != nil {
		return 0, wrapError("dbi_open", err)
	}
	t.tables.Set(uint32(id), tableInfo{name: name, flags: flags})
	return id, nil
}

func (t *txn) table(op string, id engine.TableID) (tableInfo, error) {
	if err := t.check(op); err != nil {
		return tableInfo{}, err
	}
	info, ok := t.tables.Get(uint32(id))
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

	name := tableBucket(id)
	if err := t.tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return wrapError("drop", err)
	}
	if del && id != engine.MainTable {
		if err := t.tx.Bucket(catalogBucket).Delete([]byte(info.name)); err != nil {
			return wrapError("drop", err)
		}
		t.tables.Delete(uint32(id))
		t.slots.Free(uint32(id - firstTableID))
		return nil
	}
	if _, err := t.tx.CreateBucket(name); err != nil {
		return wrapError("drop", err)
	}
	return nil
}

func (t *txn) OpenCursor(id engine.TableID) (engine.Cursor, error) {
	info, err := t.table("cursor_open", id)
	if err != nil {
		return nil, err
	}
	store := &bucketStore{txn: t, id: id, name: tableBucket(id), dup: info.flags.IsDup()}
	return ordered.NewCursor(store, ordered.NewCodec(info.flags), t.readOnly, nil), nil
}

// charge accounts for n more bytes, failing with MapFull when the data
// file could outgrow the map size.
func (t *txn) charge(n int) error {
	n += pairOverhead
	if t.base+t.written+int64(n) > t.env.mapSize {
		return engine.NewError("put", engine.ErrMapFull)
	}
	t.written += int64(n)
	return nil
}

func (t *txn) release() {
	t.done = true
	if t.readOnly {
		t.env.readers.Release(t.slot)
	}
}

func (t *txn) Commit() error {
	if t.done {
		return engine.NewError("txn_commit", engine.ErrBadTxn)
	}
	t.release()
	if t.readOnly {
		if err := t.tx.Rollback(); err != nil {
			return wrapError("txn_commit", err)
		}
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return wrapError("txn_commit", err)
	}
	return nil
}

func (t *txn) Abort() {
	if t.done {
		return
	}
	t.release()
	t.tx.Rollback()
}
