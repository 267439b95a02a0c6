package tablekv

import (
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Giulio2002/tablekv/engine"
)

// Option configures a new Environment.
type Option func(*envConfig)

type envConfig struct {
	driver     string
	path       string
	flags      EnvFlags
	mode       os.FileMode
	mapSize    int64
	maxTables  int
	maxReaders int
	logger     *log.Logger
}

// WithDriver selects the storage engine by name. See Drivers.
func WithDriver(name string) Option {
	return func(c *envConfig) { c.driver = name }
}

// WithPath sets the environment path.
func WithPath(path string) Option {
	return func(c *envConfig) { c.path = path }
}

// WithFlags sets the open flags.
func WithFlags(flags EnvFlags) Option {
	return func(c *envConfig) { c.flags = flags }
}

// WithMode sets the permission of files created by the engine.
func WithMode(mode os.FileMode) Option {
	return func(c *envConfig) { c.mode = mode }
}

// WithMapSize sets the map size in bytes. Zero keeps the engine default.
func WithMapSize(size int64) Option {
	return func(c *envConfig) { c.mapSize = size }
}

// WithMaxTables sets the maximum number of named tables.
func WithMaxTables(n int) Option {
	return func(c *envConfig) { c.maxTables = n }
}

// WithMaxReaders sets the maximum number of concurrent read transactions.
func WithMaxReaders(n int) Option {
	return func(c *envConfig) { c.maxReaders = n }
}

// WithLogger sets the logger of the environment.
func WithLogger(logger *log.Logger) Option {
	return func(c *envConfig) { c.logger = logger }
}

// envState is shared by every handle of one environment.
type envState struct {
	mu     sync.Mutex
	refs   int
	driver engine.Driver
	env    engine.Env
	cfg    envConfig
	open   bool
	log    *log.Entry

	// live tables by engine ID, shared by every handle opened for them
	tables map[engine.TableID]*tableState
}

// Environment owns one storage region rooted at a path. Handles returned
// by Clone share the same environment, which is closed with the last
// handle.
type Environment struct {
	errorState
	inner  *envState
	closed bool
}

// NewEnvironment creates a closed environment. An unknown driver leaves
// it unusable with InvalidParameter.
func NewEnvironment(opts ...Option) *Environment {
	cfg := envConfig{
		driver: DefaultDriver,
		mode:   DefaultMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = currentLogger()
	}

	e := &Environment{}
	d, ok := engine.Lookup(cfg.driver)
	if !ok {
		e.setCode(InvalidParameter, fmt.Sprintf("unknown driver %q", cfg.driver))
		return e
	}
	env, err := d.NewEnv()
	if err != nil {
		e.setError(err)
		return e
	}
	e.inner = &envState{
		refs:   1,
		driver: d,
		env:    env,
		cfg:    cfg,
		log:    cfg.logger.WithField("driver", cfg.driver),
		tables: make(map[engine.TableID]*tableState),
	}
	return e
}

// state returns the shared state, or nil for a closed or unusable handle.
func (e *Environment) state() *envState {
	if e == nil || e.closed {
		return nil
	}
	return e.inner
}

// configure applies fn to the configuration unless the environment is
// open.
func (e *Environment) configure(fn func(*envConfig)) bool {
	s := e.state()
	if s == nil {
		e.setCode(InvalidParameter, "environment is closed")
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		e.setCode(InvalidParameter, "environment is already open")
		return false
	}
	fn(&s.cfg)
	e.clearError()
	return true
}

// SetPath sets the path. Only valid before Open.
func (e *Environment) SetPath(path string) bool {
	return e.configure(func(c *envConfig) { c.path = path })
}

// SetFlags sets the open flags. Only valid before Open.
func (e *Environment) SetFlags(flags EnvFlags) bool {
	return e.configure(func(c *envConfig) { c.flags = flags })
}

// SetMode sets the file mode. Only valid before Open.
func (e *Environment) SetMode(mode os.FileMode) bool {
	return e.configure(func(c *envConfig) { c.mode = mode })
}

// SetMapSize sets the map size in bytes. Only valid before Open.
func (e *Environment) SetMapSize(size int64) bool {
	return e.configure(func(c *envConfig) { c.mapSize = size })
}

// SetMaxTables sets the maximum number of named tables. Only valid
// before Open.
func (e *Environment) SetMaxTables(n int) bool {
	return e.configure(func(c *envConfig) { c.maxTables = n })
}

// SetMaxReaders sets the maximum number of read transactions. Only
// valid before Open.
func (e *Environment) SetMaxReaders(n int) bool {
	return e.configure(func(c *envConfig) { c.maxReaders = n })
}

// Open opens the environment. A second call on an open environment
// returns false and changes nothing.
func (e *Environment) Open() bool {
	s := e.state()
	if s == nil {
		if e != nil && e.last == nil {
			e.setCode(InvalidParameter, "environment is closed")
		}
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return false
	}
	cfg := s.cfg
	if cfg.path == "" {
		e.setCode(InvalidPath, "Empty path passed to environment")
		return false
	}

	if err := s.applyLimits(); err != nil {
		e.setError(err)
		return false
	}
	if err := s.env.Open(cfg.path, cfg.flags.engineFlags(), cfg.mode); err != nil {
		e.setError(restrict(err, VersionMismatch, Invalid, InvalidParameter, NoAccessToPath, TemporarilyNotAvailable, OutOfMemory))
		s.log.WithError(err).WithField("path", cfg.path).Debug("environment open failed")
		// A failed engine environment cannot be opened again.
		s.env.Close()
		if env, nerr := s.driver.NewEnv(); nerr == nil {
			s.env = env
		}
		return false
	}

	s.open = true
	s.log = s.log.WithField("path", cfg.path)
	s.log.WithFields(log.Fields{
		"map_size":    cfg.mapSize,
		"max_tables":  cfg.maxTables,
		"max_readers": cfg.maxReaders,
	}).Debug("environment opened")
	e.clearError()
	return true
}

// applyLimits hands the non-zero limits to the engine.
func (s *envState) applyLimits() error {
	if s.cfg.mapSize > 0 {
		if err := s.env.SetMapSize(s.cfg.mapSize); err != nil {
			return err
		}
	}
	if s.cfg.maxTables > 0 {
		if err := s.env.SetMaxTables(s.cfg.maxTables); err != nil {
			return err
		}
	}
	if s.cfg.maxReaders > 0 {
		if err := s.env.SetMaxReaders(s.cfg.maxReaders); err != nil {
			return err
		}
	}
	return nil
}

// restrict maps err to its code when the code is one of allowed, and to
// Unexpected otherwise.
func restrict(err error, allowed ...ErrorCode) *Error {
	e := newError(err)
	for _, code := range allowed {
		if e.Code == code {
			return e
		}
	}
	return &Error{Code: Unexpected, Message: Unexpected.String(), Err: err}
}

// IsOpen reports whether the environment is open.
func (e *Environment) IsOpen() bool {
	s := e.state()
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (e *Environment) config() envConfig {
	s := e.state()
	if s == nil {
		return envConfig{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Driver returns the storage engine name.
func (e *Environment) Driver() string { return e.config().driver }

// Path returns the environment path.
func (e *Environment) Path() string { return e.config().path }

// Flags returns the open flags.
func (e *Environment) Flags() EnvFlags { return e.config().flags }

// Mode returns the file mode.
func (e *Environment) Mode() os.FileMode { return e.config().mode }

// MapSize returns the configured map size.
func (e *Environment) MapSize() int64 { return e.config().mapSize }

// MaxTables returns the configured maximum number of named tables.
func (e *Environment) MaxTables() int { return e.config().maxTables }

// MaxReaders returns the maximum number of read transactions. Once open,
// the value is read back from the engine.
func (e *Environment) MaxReaders() int {
	s := e.state()
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return s.cfg.maxReaders
	}
	n, err := s.env.MaxReaders()
	if err != nil {
		e.setError(err)
		return s.cfg.maxReaders
	}
	return n
}

// Clone returns another handle to the same environment.
func (e *Environment) Clone() *Environment {
	s := e.state()
	if s == nil {
		return &Environment{closed: true}
	}
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
	return &Environment{inner: s}
}

// Close releases the handle. The environment is closed with the last
// handle; transactions still running on it must be finalized first.
func (e *Environment) Close() {
	s := e.state()
	if s == nil {
		return
	}
	e.closed = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.refs > 0 {
		return
	}
	wasOpen := s.open
	s.open = false
	if err := s.env.Close(); err != nil {
		s.log.WithError(err).Warn("environment close failed")
		return
	}
	if wasOpen {
		s.log.Debug("environment closed")
	}
}

func (e *Environment) logger() *log.Entry {
	if s := e.state(); s != nil {
		return s.log
	}
	return log.NewEntry(currentLogger())
}

// acquireTable returns the live state of fresh.id with one more handle
// counted, registering fresh when the table has none. It reports whether
// fresh was registered.
func (s *envState) acquireTable(fresh *tableState) (*tableState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts, ok := s.tables[fresh.id]; ok {
		ts.mu.Lock()
		ts.refs++
		ts.mu.Unlock()
		return ts, false
	}
	s.tables[fresh.id] = fresh
	return fresh, true
}

// releaseTable unregisters ts after its last handle is gone and closes
// the table in the engine. A state that was already forgotten no longer
// owns its ID.
func (s *envState) releaseTable(ts *tableState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[ts.id] != ts {
		return
	}
	delete(s.tables, ts.id)
	if s.open {
		s.env.CloseTable(ts.id)
	}
}

// forgetTable unregisters ts so that a later open of its ID, which the
// engine may hand to another table, gets a fresh state.
func (s *envState) forgetTable(ts *tableState) {
	s.mu.Lock()
	if s.tables[ts.id] == ts {
		delete(s.tables, ts.id)
	}
	s.mu.Unlock()
}
