package memdb

import (
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/btree"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/fastmap"
	"github.com/Giulio2002/tablekv/engine/internal/lockfile"
	"github.com/Giulio2002/tablekv/engine/internal/slots"
)

const (
	// DefaultMapSize is the map size used when none is configured.
	DefaultMapSize = 10 << 20

	// LockName is the lock file created inside the environment directory.
	LockName = "tablekv.lock"

	// lockSuffix is appended to the path with NoSubdir.
	lockSuffix = "-lock"

	// firstTableID is the ID of the first named table.
	firstTableID = engine.MainTable + 1

	btreeDegree = 16
)

// tableInfo describes a table of a snapshot.
type tableInfo struct {
	name  string
	flags engine.TableFlags
}

// snapshot is the whole database state as seen by one transaction.
// Committed snapshots are never modified.
type snapshot struct {
	txnid  uint64
	tree   *btree.BTree
	names  map[string]engine.TableID
	tables *fastmap.Map[tableInfo]
	slots  *slots.Bitmap
	size   int64
}

func newSnapshot(maxTables int) *snapshot {
	s := &snapshot{
		txnid:  1,
		tree:   btree.New(btreeDegree),
		names:  make(map[string]engine.TableID),
		tables: &fastmap.Map[tableInfo]{},
		slots:  slots.NewBitmap(uint32(maxTables)),
	}
	s.tables.Set(uint32(engine.MainTable), tableInfo{})
	return s
}

// clone returns a copy that can be modified without affecting s.
func (s *snapshot) clone() *snapshot {
	return &snapshot{
		txnid:  s.txnid,
		tree:   s.tree.Clone(),
		names:  maps.Clone(s.names),
		tables: s.tables.Clone(),
		slots:  s.slots.Clone(),
		size:   s.size,
	}
}

// Env is an in-memory environment.
type Env struct {
	mu     sync.Mutex // Protects committed and the configuration
	writer sync.Mutex // Held by the write transaction

	mapSize    int64
	maxTables  int
	maxReaders int

	open      bool
	committed *snapshot
	readers   *lockfile.Readers
	lock      *lockfile.File
}

var _ engine.Env = (*Env)(nil)

// NewEnv creates an unopened environment.
func NewEnv() *Env {
	return &Env{
		mapSize:    DefaultMapSize,
		maxReaders: lockfile.DefaultMaxReaders,
	}
}

func (e *Env) configure(op string, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return engine.NewError(op, engine.ErrInval)
	}
	fn()
	return nil
}

// SetMapSize sets the number of bytes the environment may store.
func (e *Env) SetMapSize(size int64) error {
	if size <= 0 {
		return engine.NewError("env_set_mapsize", engine.ErrInval)
	}
	return e.configure("env_set_mapsize", func() { e.mapSize = size })
}

// SetMaxTables sets the number of named tables.
func (e *Env) SetMaxTables(n int) error {
	if n < 0 {
		return engine.NewError("env_set_maxdbs", engine.ErrInval)
	}
	return e.configure("env_set_maxdbs", func() { e.maxTables = n })
}

// SetMaxReaders sets the number of concurrent read transactions.
func (e *Env) SetMaxReaders(n int) error {
	if n <= 0 {
		return engine.NewError("env_set_maxreaders", engine.ErrInval)
	}
	return e.configure("env_set_maxreaders", func() { e.maxReaders = n })
}

// Open locks path and starts with an empty database. path is a directory
// that must exist, or with NoSubdir a file whose directory must exist.
func (e *Env) Open(path string, flags engine.EnvFlags, mode os.FileMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return engine.NewError("env_open", engine.ErrInval)
	}
	if path == "" {
		return engine.NewError("env_open", engine.ErrInval)
	}

	dir, lockPath := path, filepath.Join(path, LockName)
	if flags&engine.NoSubdir != 0 {
		dir, lockPath = filepath.Dir(path), path+lockSuffix
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return engine.WrapError("env_open", err)
	}
	if !fi.IsDir() {
		return engine.NewError("env_open", engine.ErrNoEnt)
	}
	if mode == 0 {
		mode = 0o644
	}

	lock, err := lockfile.Acquire(lockPath, mode)
	if err != nil {
		return engine.WrapError("env_open", err)
	}

	e.lock = lock
	e.readers = lockfile.NewReaders(e.maxReaders)
	e.committed = newSnapshot(e.maxTables)
	e.open = true
	return nil
}

// MaxReaders returns the number of reader slots.
func (e *Env) MaxReaders() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return e.maxReaders, nil
	}
	return e.readers.Max(), nil
}

// BeginTxn starts a transaction. A root write transaction waits for the
// current writer to finish.
func (e *Env) BeginTxn(parent engine.Txn, readOnly bool) (engine.Txn, error) {
	e.mu.Lock()
	open := e.open
	e.mu.Unlock()
	if !open {
		return nil, engine.NewError("txn_begin", engine.ErrBadTxn)
	}

	if parent != nil {
		p, ok := parent.(*txn)
		if !ok || p.env != e {
			return nil, engine.NewError("txn_begin", engine.ErrInval)
		}
		return p.beginChild(readOnly)
	}

	if readOnly {
		e.mu.Lock()
		snap := e.committed
		e.mu.Unlock()

		slot, err := e.readers.Acquire(snap.txnid)
		if err != nil {
			return nil, engine.NewError("txn_begin", engine.ErrReadersFull)
		}
		return &txn{env: e, state: snap, readOnly: true, slot: slot}, nil
	}

	e.writer.Lock()
	e.mu.Lock()
	snap := e.committed.clone()
	e.mu.Unlock()
	return &txn{env: e, state: snap}, nil
}

// publish makes s the latest committed snapshot.
func (e *Env) publish(s *snapshot) {
	e.mu.Lock()
	s.txnid = e.committed.txnid + 1
	e.committed = s
	e.mu.Unlock()
}

// CloseTable is a no-op: table IDs carry no per-environment state.
func (e *Env) CloseTable(engine.TableID) {}

// Close releases the environment lock. The data is lost.
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return nil
	}
	e.open = false
	e.committed = nil
	err := e.lock.Release()
	e.lock = nil
	if err != nil {
		return engine.WrapError("env_close", err)
	}
	return nil
}
