// Package engine defines the boundary between tablekv and the storage
// engine that owns the memory map, the page format and the B-trees.
//
// An engine exposes four primitives: open an environment, begin and
// finalize transactions, open and drop tables, and get/put/delete through
// cursors. Everything above this package talks to an engine only through
// the interfaces below, which follow the LMDB/MDBX call shapes closely so
// that libmdbx can be plugged in almost verbatim.
package engine

import "os"

// TableID identifies an open table inside an environment. IDs are stable
// across transactions until the table is dropped or closed.
type TableID uint32

// MainTable is the ID of the unnamed table every environment has.
const MainTable TableID = 1

// Driver creates environments for one storage engine.
type Driver interface {
	Name() string
	NewEnv() (Env, error)
}

// Env is an unopened or opened storage environment.
//
// The Set* methods are only valid before Open.
type Env interface {
	SetMapSize(size int64) error
	SetMaxTables(n int) error
	SetMaxReaders(n int) error
	Open(path string, flags EnvFlags, mode os.FileMode) error
	MaxReaders() (int, error)

	// BeginTxn starts a root transaction when parent is nil, or a child
	// of parent otherwise. Children of read-only transactions are not
	// supported.
	BeginTxn(parent Txn, readOnly bool) (Txn, error)

	CloseTable(id TableID)
	Close() error
}

// Txn is a transaction. It must only be used by the goroutine that began
// it.
type Txn interface {
	// OpenTable opens the table with the given name, creating it when
	// flags include Create. The empty name is the main table.
	OpenTable(name string, flags TableFlags) (TableID, error)

	// TableFlags returns the persistent flags the table was created
	// with.
	TableFlags(id TableID) (TableFlags, error)

	// DropTable empties the table, and deletes it from the environment
	// as well when del is true.
	DropTable(id TableID, del bool) error

	OpenCursor(id TableID) (Cursor, error)
	Commit() error
	Abort()
	ReadOnly() bool
}

// Cursor is a position inside one table of one transaction.
type Cursor interface {
	// Get moves the cursor according to op and returns the entry it
	// lands on. key and val are inputs for the seek ops only.
	Get(key, val []byte, op Op) ([]byte, []byte, error)

	// Put writes an entry and leaves the cursor positioned on it.
	Put(key, val []byte, flags PutFlags) error

	// Reserve writes an entry with an n-byte value and returns the value
	// buffer. The buffer is only valid until the next cursor operation.
	Reserve(key []byte, n int, flags PutFlags) ([]byte, error)

	// Del deletes the entry at the cursor, or every duplicate of the
	// current key with AllDups.
	Del(flags DelFlags) error

	Close()
}
