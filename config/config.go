// Package config loads environment settings from a file and from
// TABLEKV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Giulio2002/tablekv"
)

// Config keys. Environment variables use the upper-case key with the
// TABLEKV_ prefix, e.g. TABLEKV_MAP_SIZE.
const (
	KeyDriver     = "driver"
	KeyPath       = "path"
	KeyMapSize    = "map_size"
	KeyMaxTables  = "max_tables"
	KeyMaxReaders = "max_readers"
	KeyMode       = "mode"
	KeyFlags      = "flags"

	// EnvPrefix is the prefix of environment variables
	EnvPrefix = "TABLEKV"
)

const defaultMode = "0644"

// Config holds the settings of one environment.
type Config struct {
	Driver     string           `json:"driver" yaml:"driver"`
	Path       string           `json:"path" yaml:"path"`
	MapSize    int64            `json:"map_size" yaml:"map_size"`
	MaxTables  int              `json:"max_tables" yaml:"max_tables"`
	MaxReaders int              `json:"max_readers" yaml:"max_readers"`
	Mode       os.FileMode      `json:"mode" yaml:"mode"`
	Flags      tablekv.EnvFlags `json:"flags" yaml:"flags"`
}

// Validation errors.
var (
	ErrDriverUnknown  = errors.New("unknown driver")
	ErrPathEmpty      = errors.New("path must not be empty")
	ErrMapSizeInvalid = errors.New("invalid map size")
	ErrLimitInvalid   = errors.New("limits must not be negative")
	ErrModeInvalid    = errors.New("invalid file mode")
	ErrFlagUnknown    = errors.New("unknown flag")
)

// New returns a viper instance with the defaults and environment
// variable binding used by Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDriver, tablekv.DefaultDriver)
	v.SetDefault(KeyPath, "")
	v.SetDefault(KeyMapSize, "")
	v.SetDefault(KeyMaxTables, 0)
	v.SetDefault(KeyMaxReaders, 0)
	v.SetDefault(KeyMode, defaultMode)
	v.SetDefault(KeyFlags, []string{})
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, when not empty, and the environment. The file type
// is taken from its extension (yaml, toml, json...).
func Load(file string) (Config, error) {
	v := New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Driver:     v.GetString(KeyDriver),
		Path:       v.GetString(KeyPath),
		MaxTables:  v.GetInt(KeyMaxTables),
		MaxReaders: v.GetInt(KeyMaxReaders),
	}

	size, err := parseSize(v.GetString(KeyMapSize))
	if err != nil {
		return Config{}, err
	}
	c.MapSize = size

	mode, err := strconv.ParseUint(v.GetString(KeyMode), 8, 32)
	if err != nil {
		return Config{}, fmt.Errorf("%w %q", ErrModeInvalid, v.GetString(KeyMode))
	}
	c.Mode = os.FileMode(mode)

	flags, err := parseFlags(v.GetStringSlice(KeyFlags))
	if err != nil {
		return Config{}, err
	}
	c.Flags = flags

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// parseSize accepts byte counts and human sizes such as "64MiB" or
// "1 GB". The empty string is zero, the engine default.
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n > 1<<62 {
		return 0, fmt.Errorf("%w %q", ErrMapSizeInvalid, s)
	}
	return int64(n), nil
}

// parseFlags accepts flag names as list items or comma separated.
func parseFlags(names []string) (tablekv.EnvFlags, error) {
	var flags tablekv.EnvFlags
	for _, item := range names {
		for _, name := range strings.Split(item, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			f, ok := tablekv.ParseEnvFlag(name)
			if !ok {
				return 0, fmt.Errorf("%w %q (known: %s)", ErrFlagUnknown, name, strings.Join(tablekv.EnvFlagNames(), ", "))
			}
			flags |= f
		}
	}
	return flags, nil
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Path == "" {
		return ErrPathEmpty
	}
	known := false
	for _, name := range tablekv.Drivers() {
		if name == c.Driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w %q", ErrDriverUnknown, c.Driver)
	}
	if c.MapSize < 0 {
		return ErrMapSizeInvalid
	}
	if c.MaxTables < 0 || c.MaxReaders < 0 {
		return ErrLimitInvalid
	}
	return nil
}

// Options returns the environment options for c.
func (c Config) Options() []tablekv.Option {
	opts := []tablekv.Option{
		tablekv.WithDriver(c.Driver),
		tablekv.WithPath(c.Path),
		tablekv.WithFlags(c.Flags),
		tablekv.WithMapSize(c.MapSize),
		tablekv.WithMaxTables(c.MaxTables),
		tablekv.WithMaxReaders(c.MaxReaders),
	}
	if c.Mode != 0 {
		opts = append(opts, tablekv.WithMode(c.Mode))
	}
	return opts
}

// Open creates and opens the environment described by c.
func Open(c Config, opts ...tablekv.Option) (*tablekv.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env := tablekv.NewEnvironment(append(c.Options(), opts...)...)
	if !env.Open() {
		err := env.Err()
		env.Close()
		return nil, err
	}
	return env, nil
}
