// Package store is a directory based database of named collections.
//
// A Database owns one environment rooted in a directory that is created
// on Open. Collections are tables addressed by name whose values pass
// through an optional codec.Codec.
package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Giulio2002/tablekv"
	"github.com/Giulio2002/tablekv/codec"
)

// Database defaults.
const (
	DefaultMaxTables             = 100
	DefaultMaxDatabaseSize int64 = 1 << 30
	DefaultDirMode               = 0o755
)

// Errors recorded by a Database.
var (
	ErrNotOpen     = errors.New("database is not open")
	ErrAlreadyOpen = errors.New("database is already open")
	ErrNoDirectory = errors.New("no directory set")
)

// Option configures a Database.
type Option func(*Database)

// WithDriver selects the engine driver. The default is tablekv.DefaultDriver.
func WithDriver(name string) Option {
	return func(db *Database) { db.driver = name }
}

// WithCodec sets the codec used by collections that do not name their own.
func WithCodec(c codec.Codec) Option {
	return func(db *Database) { db.codec = c }
}

// WithLogger sets the logger of the database and its environment.
func WithLogger(logger *log.Logger) Option {
	return func(db *Database) { db.logger = logger }
}

// Database is a set of collections stored in one directory.
type Database struct {
	mu              sync.Mutex
	directory       string
	driver          string
	maxTables       int
	maxDatabaseSize int64
	codec           codec.Codec
	logger          *log.Logger
	env             *tablekv.Environment
	collections     []*Collection
	lastErr         error
}

// New returns a closed database.
func New(opts ...Option) *Database {
	db := &Database{
		driver:          tablekv.DefaultDriver,
		maxTables:       DefaultMaxTables,
		maxDatabaseSize: DefaultMaxDatabaseSize,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *Database) log() *log.Entry {
	logger := db.logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return logger.WithField("dir", db.directory)
}

// Directory returns the database directory.
func (db *Database) Directory() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.directory
}

// SetDirectory sets the directory used by Open. It has no effect once the
// database is open.
func (db *Database) SetDirectory(dir string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.env == nil {
		db.directory = dir
	}
}

// IsOpen reports whether Open succeeded and Close was not called.
func (db *Database) IsOpen() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.env != nil
}

// MaxTables returns the maximum number of collections.
func (db *Database) MaxTables() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.maxTables
}

// SetMaxTables sets the maximum number of collections. It has no effect
// once the database is open.
func (db *Database) SetMaxTables(n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.env == nil {
		db.maxTables = n
	}
}

// MaxDatabaseSize returns the maximum size of the database in bytes.
func (db *Database) MaxDatabaseSize() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.maxDatabaseSize
}

// SetMaxDatabaseSize sets the maximum size in bytes. It has no effect
// once the database is open.
func (db *Database) SetMaxDatabaseSize(size int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.env == nil {
		db.maxDatabaseSize = size
	}
}

// Open creates dir, when missing, and opens the database in it. An empty
// dir uses the directory set before.
func (db *Database) Open(dir string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.env != nil {
		db.lastErr = ErrAlreadyOpen
		return false
	}
	if dir != "" {
		db.directory = dir
	}
	if db.directory == "" {
		db.lastErr = ErrNoDirectory
		return false
	}
	if err := os.MkdirAll(db.directory, DefaultDirMode); err != nil {
		db.lastErr = fmt.Errorf("create directory: %w", err)
		return false
	}

	opts := []tablekv.Option{
		tablekv.WithDriver(db.driver),
		tablekv.WithPath(db.directory),
		tablekv.WithMaxTables(db.maxTables),
		tablekv.WithMapSize(db.maxDatabaseSize),
	}
	if db.logger != nil {
		opts = append(opts, tablekv.WithLogger(db.logger))
	}
	env := tablekv.NewEnvironment(opts...)
	if !env.Open() {
		db.lastErr = fmt.Errorf("open environment: %w", env.Err())
		env.Close()
		return false
	}
	db.env = env
	db.log().Debug("database opened")
	return true
}

// Close closes every collection and the environment.
func (db *Database) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.env == nil {
		return
	}
	for _, c := range db.collections {
		c.table.Close()
	}
	db.collections = nil
	db.env.Close()
	db.env = nil
	db.log().Debug("database closed")
}

// HasError reports whether an error was recorded since the last
// ClearError.
func (db *Database) HasError() bool {
	return db.Err() != nil
}

// Err returns the last recorded error.
func (db *Database) Err() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lastErr
}

// LastErrorString returns the text of the last recorded error.
func (db *Database) LastErrorString() string {
	if err := db.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// ClearError forgets the last recorded error.
func (db *Database) ClearError() {
	db.setError(nil)
}

func (db *Database) setError(err error) {
	db.mu.Lock()
	db.lastErr = err
	db.mu.Unlock()
}

// Collection opens the named collection, creating it when missing. The
// returned collection is invalid when the database is closed or the table
// cannot be opened; the reason is recorded on db.
func (db *Database) Collection(name string, mode OpenMode, opts ...CollectionOption) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()

	c := &Collection{db: db, name: name, mode: mode, codec: db.codec}
	for _, opt := range opts {
		opt(c)
	}
	if db.env == nil {
		db.lastErr = ErrNotOpen
		return c
	}

	flags := tablekv.CreateIfMissing
	if mode&MultiValues != 0 {
		flags |= tablekv.MultiValuePerKey
	}
	table := tablekv.OpenTable(db.env, name, flags)
	if !table.IsValid() {
		db.lastErr = fmt.Errorf("open collection %q: %w", name, table.Err())
		table.Close()
		return c
	}
	c.table = table
	db.collections = append(db.collections, c)
	return c
}
