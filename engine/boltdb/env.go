package boltdb

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Giulio2002/tablekv/engine"
	"github.com/Giulio2002/tablekv/engine/internal/lockfile"
)

const (
	// DefaultMapSize is the map size used when none is configured.
	DefaultMapSize = 10 << 20

	// DataName is the database file created inside the environment
	// directory.
	DataName = "tablekv.bolt"

	// lockTimeout bounds the wait for bbolt's file lock. A lock that is
	// still held after it reports TemporarilyNotAvailable.
	lockTimeout = 100 * time.Millisecond
)

var catalogBucket = []byte("catalog")

// Env is a bbolt-backed environment.
type Env struct {
	mu sync.Mutex

	mapSize    int64
	maxTables  int
	maxReaders int

	db      *bbolt.DB
	readers *lockfile.Readers
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
	if e.db != nil {
		return engine.NewError(op, engine.ErrInval)
	}
	fn()
	return nil
}

// SetMapSize sets the largest size the data file may grow to.
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

// Open opens or creates the data file. path is a directory that must
// exist, or with NoSubdir the data file itself.
func (e *Env) Open(path string, flags engine.EnvFlags, mode os.FileMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil || path == "" {
		return engine.NewError("env_open", engine.ErrInval)
	}
	file := filepath.Join(path, DataName)
	if flags&engine.NoSubdir != 0 {
		file = path
	}
	if mode == 0 {
		mode = 0o644
	}

	opts := &bbolt.Options{
		Timeout:         lockTimeout,
		ReadOnly:        flags&engine.ReadOnly != 0,
		NoSync:          flags&engine.SafeNoSync != 0,
		NoFreelistSync:  flags&engine.NoMetaSync != 0,
		InitialMmapSize: int(e.mapSize),
	}
	db, err := bbolt.Open(file, mode, opts)
	if err != nil {
		return wrapError("env_open", err)
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(catalogBucket); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(tableBucket(engine.MainTable))
			return err
		})
		if err != nil {
			db.Close()
			return wrapError("env_open", err)
		}
	}

	e.db = db
	e.readers = lockfile.NewReaders(e.maxReaders)
	return nil
}

// MaxReaders returns the number of reader slots.
func (e *Env) MaxReaders() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readers == nil {
		return e.maxReaders, nil
	}
	return e.readers.Max(), nil
}

// BeginTxn starts a root transaction. A write transaction waits for the
// current writer to finish.
func (e *Env) BeginTxn(parent engine.Txn, readOnly bool) (engine.Txn, error) {
	e.mu.Lock()
	db := e.db
	e.mu.Unlock()
	if db == nil {
		return nil, engine.NewError("txn_begin", engine.ErrBadTxn)
	}
	if parent != nil {
		return nil, engine.NewError("txn_begin", engine.ErrIncompatible)
	}

	tx, err := db.Begin(!readOnly)
	if err != nil {
		return nil, wrapError("txn_begin", err)
	}
	t := &txn{env: e, tx: tx, readOnly: readOnly, base: tx.Size()}
	if readOnly {
		slot, err := e.readers.Acquire(uint64(tx.ID()) + 1)
		if err != nil {
			tx.Rollback()
			return nil, engine.NewError("txn_begin", engine.ErrReadersFull)
		}
		t.slot = slot
	}
	if err := t.loadCatalog(e.maxTables); err != nil {
		t.Abort()
		return nil, err
	}
	return t, nil
}

// CloseTable is a no-op: table IDs carry no per-environment state.
func (e *Env) CloseTable(engine.TableID) {}

// Close closes the data file.
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	if err != nil {
		return wrapError("env_close", err)
	}
	return nil
}

// wrapError maps bbolt errors to engine codes.
func wrapError(op string, err error) error {
	var code engine.Code
	switch {
	case errors.Is(err, bbolt.ErrTimeout):
		code = engine.ErrAgain
	case errors.Is(err, bbolt.ErrDatabaseReadOnly), errors.Is(err, bbolt.ErrTxNotWritable):
		code = engine.ErrAccess
	case errors.Is(err, bbolt.ErrInvalid):
		code = engine.ErrInvalid
	case errors.Is(err, bbolt.ErrVersionMismatch):
		code = engine.ErrVersionMismatch
	case errors.Is(err, bbolt.ErrChecksum):
		code = engine.ErrCorrupted
	case errors.Is(err, bbolt.ErrTxClosed), errors.Is(err, bbolt.ErrDatabaseNotOpen):
		code = engine.ErrBadTxn
	default:
		return engine.WrapError(op, err)
	}
	return &engine.Error{Op: op, Code: code, Err: err}
}
