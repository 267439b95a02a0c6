// Package libmdbx is the production storage engine: libmdbx through
// github.com/erigontech/mdbx-go.
//
// The engine flag, cursor op and put flag values already match libmdbx,
// so most calls pass straight through. Write transactions pin their
// goroutine to an OS thread until they finish.
package libmdbx

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"syscall"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/Giulio2002/tablekv/engine"
)

// Name is the name the engine is registered under.
const Name = "mdbx"

// dbAccede opens an existing table with the flags it was created with.
const dbAccede = 0x40000000

type driver struct{}

func (driver) Name() string { return Name }

func (driver) NewEnv() (engine.Env, error) {
	env, err := mdbx.NewEnv(mdbx.Label("tablekv"))
	if err != nil {
		return nil, wrapError("env_create", err)
	}
	return &Env{env: env, mapSize: -1}, nil
}

func init() {
	engine.Register(driver{})
}

// Env wraps an mdbx environment.
type Env struct {
	mu      sync.Mutex
	env     *mdbx.Env
	mapSize int64
	open    bool
	closed  bool
}

var _ engine.Env = (*Env)(nil)

func (e *Env) frozen(op string) error {
	if e.open || e.closed {
		return engine.NewError(op, engine.ErrInval)
	}
	return nil
}

// SetMapSize sets the upper bound of the database geometry. It is
// applied by Open.
func (e *Env) SetMapSize(size int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.frozen("env_set_mapsize"); err != nil {
		return err
	}
	if size <= 0 {
		return engine.NewError("env_set_mapsize", engine.ErrInval)
	}
	e.mapSize = size
	return nil
}

func (e *Env) setOption(op string, opt uint, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.frozen(op); err != nil {
		return err
	}
	if n < 0 {
		return engine.NewError(op, engine.ErrInval)
	}
	if err := e.env.SetOption(opt, uint64(n)); err != nil {
		return wrapError(op, err)
	}
	return nil
}

// SetMaxTables sets the number of named tables.
func (e *Env) SetMaxTables(n int) error {
	return e.setOption("env_set_maxdbs", mdbx.OptMaxDB, n)
}

// SetMaxReaders sets the number of reader slots.
func (e *Env) SetMaxReaders(n int) error {
	return e.setOption("env_set_maxreaders", mdbx.OptMaxReaders, n)
}

// Open opens the environment. Read transactions are never bound to a
// thread.
func (e *Env) Open(path string, flags engine.EnvFlags, mode os.FileMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.frozen("env_open"); err != nil {
		return err
	}
	if path == "" {
		return engine.NewError("env_open", engine.ErrInval)
	}
	if mode == 0 {
		mode = 0o644
	}
	if e.mapSize > 0 {
		if err := e.env.SetGeometry(-1, -1, int(e.mapSize), -1, -1, -1); err != nil {
			return wrapError("env_set_geometry", err)
		}
	}
	if err := e.env.Open(path, uint(flags|engine.NoTLS), mode); err != nil {
		return wrapError("env_open", err)
	}
	e.open = true
	return nil
}

// MaxReaders returns the number of reader slots of the environment.
func (e *Env) MaxReaders() (int, error) {
	n, err := e.env.GetOption(mdbx.OptMaxReaders)
	if err != nil {
		return 0, wrapError("env_get_maxreaders", err)
	}
	return int(n), nil
}

// BeginTxn starts a transaction. A root write transaction locks the
// calling goroutine to its OS thread until Commit or Abort.
func (e *Env) BeginTxn(parent engine.Txn, readOnly bool) (engine.Txn, error) {
	var flags uint
	if readOnly {
		flags = mdbx.Readonly
	}

	if parent != nil {
		p, ok := parent.(*txn)
		if !ok {
			return nil, engine.NewError("txn_begin", engine.ErrInval)
		}
		if p.readOnly || readOnly {
			return nil, engine.NewError("txn_begin", engine.ErrIncompatible)
		}
		t, err := e.env.BeginTxn(p.txn, flags)
		if err != nil {
			return nil, wrapError("txn_begin", err)
		}
		return &txn{env: e, txn: t, nested: true}, nil
	}

	if !readOnly {
		runtime.LockOSThread()
	}
	t, err := e.env.BeginTxn(nil, flags)
	if err != nil {
		if !readOnly {
			runtime.UnlockOSThread()
		}
		return nil, wrapError("txn_begin", err)
	}
	return &txn{env: e, txn: t, readOnly: readOnly, locked: !readOnly}, nil
}

// CloseTable releases the table handle.
func (e *Env) CloseTable(id engine.TableID) {
	if id == engine.MainTable {
		return
	}
	e.env.CloseDBI(mdbx.DBI(id))
}

// Close closes the environment.
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.open = false
	e.env.Close()
	return nil
}

// wrapError maps mdbx-go errors to engine codes. libmdbx codes and
// errno values are used as they are.
func wrapError(op string, err error) error {
	if mdbx.IsNotFound(err) {
		return &engine.Error{Op: op, Code: engine.ErrNotFound, Err: err}
	}
	inner := err
	var opErr *mdbx.OpError
	if errors.As(err, &opErr) {
		inner = opErr.Errno
	}
	var code mdbx.Errno
	if errors.As(inner, &code) {
		return &engine.Error{Op: op, Code: engine.Code(code), Err: err}
	}
	var errno syscall.Errno
	if errors.As(inner, &errno) {
		return &engine.Error{Op: op, Code: engine.Code(errno), Err: err}
	}
	return engine.WrapError(op, err)
}
