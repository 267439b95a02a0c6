package store

import (
	"errors"
	"fmt"

	"github.com/Giulio2002/tablekv"
	"github.com/Giulio2002/tablekv/codec"
)

// OpenMode selects how a collection stores values.
type OpenMode uint8

const (
	// SingleValue keeps one value per key; Put replaces it.
	SingleValue OpenMode = 0
	// MultiValues keeps a sorted set of values per key; Put adds to it.
	// With a codec the set is sorted by encoded value.
	MultiValues OpenMode = 1 << 0
)

// ErrInvalidCollection is recorded when a closed or failed collection is used.
var ErrInvalidCollection = errors.New("collection is not valid")

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithCollectionCodec sets the codec of one collection, overriding the
// database codec. A nil codec stores values unchanged.
func WithCollectionCodec(c codec.Codec) CollectionOption {
	return func(col *Collection) { col.codec = c }
}

// Collection is a named table of a Database. Failures are recorded on
// the database.
type Collection struct {
	db    *Database
	name  string
	mode  OpenMode
	codec codec.Codec
	table *tablekv.Table
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Mode returns the mode the collection was opened with.
func (c *Collection) Mode() OpenMode { return c.mode }

// Codec returns the value codec, or nil.
func (c *Collection) Codec() codec.Codec { return c.codec }

// IsValid reports whether the collection can be used.
func (c *Collection) IsValid() bool {
	return c.table != nil && c.table.IsValid()
}

func (c *Collection) usable() bool {
	if !c.IsValid() {
		c.db.setError(fmt.Errorf("%w: %q", ErrInvalidCollection, c.name))
		return false
	}
	return true
}

func (c *Collection) encode(value []byte) ([]byte, error) {
	if c.codec == nil {
		return value, nil
	}
	enc, err := c.codec.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.codec.Name(), err)
	}
	return enc, nil
}

func (c *Collection) decode(value []byte) ([]byte, error) {
	if c.codec == nil {
		return value, nil
	}
	dec, err := c.codec.Decode(value)
	if err != nil {
		return nil, &tablekv.Error{
			Code:    tablekv.Corrupted,
			Message: fmt.Sprintf("decode value of collection %q with %s", c.name, c.codec.Name()),
			Err:     err,
		}
	}
	return dec, nil
}

func (c *Collection) tableError() {
	if err := c.table.Err(); err != nil {
		c.db.setError(err)
	}
}

// Put stores value under key. In MultiValues mode the value joins the
// values of key.
func (c *Collection) Put(key, value []byte) bool {
	if !c.usable() {
		return false
	}
	enc, err := c.encode(value)
	if err != nil {
		c.db.setError(err)
		return false
	}
	if !c.table.Put(key, enc) {
		c.tableError()
		return false
	}
	return true
}

// Get returns the first value of key, or def when the key is absent or
// its value cannot be read.
func (c *Collection) Get(key, def []byte) []byte {
	if !c.usable() {
		return def
	}
	value := c.table.Get(key)
	switch c.table.LastError() {
	case tablekv.NoError:
	case tablekv.NotFound:
		return def
	default:
		c.tableError()
		return def
	}
	dec, err := c.decode(value)
	if err != nil {
		c.db.setError(err)
		return def
	}
	return dec
}

// GetAll returns every value of key. It stops at the first value that
// cannot be decoded.
func (c *Collection) GetAll(key []byte) [][]byte {
	values := [][]byte{}
	if !c.usable() {
		return values
	}
	for _, v := range c.table.GetAll(key) {
		dec, err := c.decode(v)
		if err != nil {
			c.db.setError(err)
			break
		}
		values = append(values, dec)
	}
	return values
}

// Remove deletes key with all its values.
func (c *Collection) Remove(key []byte) bool {
	if !c.usable() {
		return false
	}
	if !c.table.Remove(key) {
		c.tableError()
		return false
	}
	return true
}

// RemoveValue deletes one value of key.
func (c *Collection) RemoveValue(key, value []byte) bool {
	if !c.usable() {
		return false
	}
	enc, err := c.encode(value)
	if err != nil {
		c.db.setError(err)
		return false
	}
	if !c.table.RemoveValue(key, enc) {
		c.tableError()
		return false
	}
	return true
}

// ForEach calls fn for every key/value pair in key order until fn returns
// false. It reads a single snapshot.
func (c *Collection) ForEach(fn func(key, value []byte) bool) bool {
	if !c.usable() {
		return false
	}
	txn := tablekv.NewTransaction(c.table.Environment(), tablekv.TxnReadOnly)
	if !txn.IsValid() {
		c.db.setError(txn.Err())
		return false
	}
	defer txn.Abort()

	cur := tablekv.NewCursor(txn, c.table)
	if !cur.IsValid() {
		c.db.setError(cur.Err())
		return false
	}
	defer cur.Close()

	for r := cur.First(); r.Valid; r = cur.Next() {
		value, err := c.decode(r.Value)
		if err != nil {
			c.db.setError(err)
			return false
		}
		if !fn(r.Key, value) {
			break
		}
	}
	return true
}
