package memdb

import (
	"bytes"

	"github.com/google/btree"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/ordered"
)

// entryOverhead is charged against the map size for every stored pair.
const entryOverhead = 16

// item is one pair of one table. Items sort by table, then key, then,
// in DupSort tables, value.
type item struct {
	table engine.TableID
	key   []byte
	val   []byte
	dup   bool // values take part in ordering
	top   bool // probe that sorts after every value of key
}

func (a item) Less(than btree.Item) bool {
	b := than.(item)
	if a.table != b.table {
		return a.table < b.table
	}
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c < 0
	}
	if a.top || b.top {
		return !a.top && b.top
	}
	if !a.dup {
		return false
	}
	return bytes.Compare(a.val, b.val) < 0
}

func (a item) size() int64 {
	return int64(len(a.key) + len(a.val) + entryOverhead)
}

func equalItems(a, b item) bool {
	return !a.Less(b) && !b.Less(a)
}

// tableStore is the ordered.Store of one table inside one transaction.
type tableStore struct {
	txn *txn
	id  engine.TableID
	dup bool
}

var _ ordered.Store = (*tableStore)(nil)

func (s *tableStore) probe(key, val []byte) item {
	return item{table: s.id, key: key, val: val, dup: s.dup}
}

func (s *tableStore) tree() *btree.BTree {
	return s.txn.state.tree
}

func (s *tableStore) pair(it item) ordered.Pair {
	return ordered.Pair{Key: it.key, Val: it.val}
}

// ascend returns the first item of the table at or after pivot that is
// not equal to skip.
func (s *tableStore) ascend(pivot item, skip *item) (ordered.Pair, bool) {
	var found item
	var ok bool
	s.tree().AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		it := i.(item)
		if skip != nil && equalItems(it, *skip) {
			return true
		}
		found, ok = it, it.table == s.id
		return false
	})
	if !ok {
		return ordered.Pair{}, false
	}
	return s.pair(found), true
}

// descend returns the last item of the table at or before pivot that is
// not equal to skip.
func (s *tableStore) descend(pivot item, skip *item) (ordered.Pair, bool) {
	var found item
	var ok bool
	s.tree().DescendLessOrEqual(pivot, func(i btree.Item) bool {
		it := i.(item)
		if skip != nil && equalItems(it, *skip) {
			return true
		}
		found, ok = it, it.table == s.id
		return false
	})
	if !ok {
		return ordered.Pair{}, false
	}
	return s.pair(found), true
}

func (s *tableStore) First() (ordered.Pair, bool) {
	return s.ascend(item{table: s.id}, nil)
}

func (s *tableStore) Last() (ordered.Pair, bool) {
	// Keys are never empty, so the empty key of the next table sorts
	// after every item of this one.
	return s.descend(item{table: s.id + 1}, nil)
}

func (s *tableStore) Seek(key, val []byte) (ordered.Pair, bool) {
	return s.ascend(s.probe(key, val), nil)
}

func (s *tableStore) After(key, val []byte) (ordered.Pair, bool) {
	if !s.dup {
		return s.AfterKey(key)
	}
	p := s.probe(key, val)
	return s.ascend(p, &p)
}

func (s *tableStore) Before(key, val []byte) (ordered.Pair, bool) {
	p := s.probe(key, val)
	return s.descend(p, &p)
}

func (s *tableStore) AfterKey(key []byte) (ordered.Pair, bool) {
	return s.ascend(item{table: s.id, key: key, top: true}, nil)
}

func (s *tableStore) LastOf(key []byte) (ordered.Pair, bool) {
	p, ok := s.descend(item{table: s.id, key: key, top: true}, nil)
	if !ok || !bytes.Equal(p.Key, key) {
		return ordered.Pair{}, false
	}
	return p, true
}

func (s *tableStore) Put(key, val []byte) error {
	return s.txn.put(s.probe(key, val))
}

func (s *tableStore) Delete(key, val []byte) error {
	s.txn.delete(s.probe(key, val))
	return nil
}

func (s *tableStore) DeleteKey(key []byte) error {
	var items []item
	s.tree().AscendGreaterOrEqual(s.probe(key, nil), func(i btree.Item) bool {
		it := i.(item)
		if it.table != s.id || !bytes.Equal(it.key, key) {
			return false
		}
		items = append(items, it)
		return true
	})
	for _, it := range items {
		s.txn.delete(it)
	}
	return nil
}

func (s *tableStore) Check() error {
	if err := s.txn.check("cursor"); err != nil {
		return err
	}
	if _, ok := s.txn.state.tables.Get(uint32(s.id)); !ok {
		return engine.NewError("cursor", engine.ErrBadDBI)
	}
	return nil
}
