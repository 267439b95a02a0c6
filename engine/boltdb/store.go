package boltdb

import (
	"bytes"

	"go.etcd.io/bbolt"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/ordered"
)

// bucketStore is the ordered.Store of one table inside one transaction.
type bucketStore struct {
	txn  *txn
	id   engine.TableID
	name []byte
	dup  bool
}

var _ ordered.Store = (*bucketStore)(nil)

func (s *bucketStore) bucket() *bbolt.Bucket {
	return s.txn.tx.Bucket(s.name)
}

func (s *bucketStore) cursor() *bbolt.Cursor {
	return s.bucket().Cursor()
}

// encode returns the bucket key and value of a pair.
func (s *bucketStore) encode(key, val []byte) ([]byte, []byte) {
	if s.dup {
		return encodeDup(key, val), []byte{}
	}
	return key, val
}

func (s *bucketStore) pair(k, v []byte) (ordered.Pair, bool) {
	if k == nil {
		return ordered.Pair{}, false
	}
	if s.dup {
		k, v = decodeDup(k)
	}
	return ordered.Pair{Key: k, Val: v}, true
}

// seekBefore returns the last pair strictly before pos.
func (s *bucketStore) seekBefore(pos []byte) (ordered.Pair, bool) {
	c := s.cursor()
	k, _ := c.Seek(pos)
	var v []byte
	if k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	return s.pair(k, v)
}

func (s *bucketStore) First() (ordered.Pair, bool) {
	return s.pair(s.cursor().First())
}

func (s *bucketStore) Last() (ordered.Pair, bool) {
	return s.pair(s.cursor().Last())
}

func (s *bucketStore) Seek(key, val []byte) (ordered.Pair, bool) {
	pos, _ := s.encode(key, val)
	return s.pair(s.cursor().Seek(pos))
}

func (s *bucketStore) After(key, val []byte) (ordered.Pair, bool) {
	if !s.dup {
		return s.AfterKey(key)
	}
	pos, _ := s.encode(key, val)
	c := s.cursor()
	k, v := c.Seek(pos)
	if bytes.Equal(k, pos) {
		k, v = c.Next()
	}
	return s.pair(k, v)
}

func (s *bucketStore) Before(key, val []byte) (ordered.Pair, bool) {
	pos, _ := s.encode(key, val)
	return s.seekBefore(pos)
}

func (s *bucketStore) AfterKey(key []byte) (ordered.Pair, bool) {
	if s.dup {
		return s.pair(s.cursor().Seek(encodeDupUpper(key)))
	}
	c := s.cursor()
	k, v := c.Seek(key)
	if bytes.Equal(k, key) {
		k, v = c.Next()
	}
	return s.pair(k, v)
}

func (s *bucketStore) LastOf(key []byte) (ordered.Pair, bool) {
	var p ordered.Pair
	var ok bool
	if s.dup {
		p, ok = s.seekBefore(encodeDupUpper(key))
	} else {
		p, ok = s.pair(s.cursor().Seek(key))
	}
	if !ok || !bytes.Equal(p.Key, key) {
		return ordered.Pair{}, false
	}
	return p, true
}

func (s *bucketStore) Put(key, val []byte) error {
	if err := s.txn.charge(len(key) + len(val)); err != nil {
		return err
	}
	k, v := s.encode(key, val)
	if err := s.bucket().Put(k, v); err != nil {
		return wrapError("put", err)
	}
	return nil
}

func (s *bucketStore) Delete(key, val []byte) error {
	k, _ := s.encode(key, val)
	if err := s.bucket().Delete(k); err != nil {
		return wrapError("del", err)
	}
	return nil
}

func (s *bucketStore) DeleteKey(key []byte) error {
	if !s.dup {
		return s.Delete(key, nil)
	}
	var keys [][]byte
	c := s.cursor()
	for k, _ := c.Seek(encodeDup(key, nil)); k != nil && hasKeyPrefix(k, key); k, _ = c.Next() {
		keys = append(keys, bytes.Clone(k))
	}
	b := s.bucket()
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return wrapError("del", err)
		}
	}
	return nil
}

func (s *bucketStore) Check() error {
	if err := s.txn.check("cursor"); err != nil {
		return err
	}
	if _, ok := s.txn.tables.Get(uint32(s.id)); !ok || s.bucket() == nil {
		return engine.NewError("cursor", engine.ErrBadDBI)
	}
	return nil
}
