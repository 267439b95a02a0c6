package tablekv

import (
	"os"
	"sort"

	"github.com/Giulio2002/tablekv/engine"
)

// Environment defaults
const (
	// DefaultDriver is the engine used when no driver is configured
	DefaultDriver = "mdbx"

	// DefaultMode is the permission of files created by the engine
	DefaultMode os.FileMode = 0o644
)

// EnvFlags control how an environment is opened. Engines ignore the
// flags they cannot honour.
type EnvFlags uint

const (
	// FixedMap asks for a fixed mapping address (accepted and ignored)
	FixedMap EnvFlags = 1 << iota

	// NoSubDir means the path is a filename, not a directory
	NoSubDir

	// ReadOnly opens the environment in read-only mode
	ReadOnly

	// WriteMap maps data with write permission
	WriteMap

	// NoMetaSync skips meta page sync after commit
	NoMetaSync

	// NoSync skips data sync after commit
	NoSync

	// MapAsync flushes the map asynchronously
	MapAsync

	// NoTLS lets read transactions move between OS threads
	NoTLS

	// NoLock opens the environment without a shared lock
	NoLock

	// NoReadAhead disables OS readahead
	NoReadAhead

	// NoMemInit skips zeroing memory before writing it
	NoMemInit
)

var envFlagNames = map[string]EnvFlags{
	"fixed_map":    FixedMap,
	"no_subdir":    NoSubDir,
	"read_only":    ReadOnly,
	"write_map":    WriteMap,
	"no_meta_sync": NoMetaSync,
	"no_sync":      NoSync,
	"map_async":    MapAsync,
	"no_tls":       NoTLS,
	"no_lock":      NoLock,
	"no_readahead": NoReadAhead,
	"no_mem_init":  NoMemInit,
}

// ParseEnvFlag returns the flag named name, e.g. "no_subdir".
func ParseEnvFlag(name string) (EnvFlags, bool) {
	f, ok := envFlagNames[name]
	return f, ok
}

// EnvFlagNames returns the sorted names accepted by ParseEnvFlag.
func EnvFlagNames() []string {
	names := make([]string, 0, len(envFlagNames))
	for name := range envFlagNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether every flag of g is set in f.
func (f EnvFlags) Has(g EnvFlags) bool {
	return f&g == g
}

func (f EnvFlags) engineFlags() engine.EnvFlags {
	var out engine.EnvFlags
	if f.Has(NoSubDir) {
		out |= engine.NoSubdir
	}
	if f.Has(ReadOnly) {
		out |= engine.ReadOnly
	}
	if f.Has(WriteMap) {
		out |= engine.WriteMap
	}
	if f.Has(NoMetaSync) {
		out |= engine.NoMetaSync
	}
	if f&(NoSync|MapAsync) != 0 {
		out |= engine.SafeNoSync
	}
	if f.Has(NoTLS) {
		out |= engine.NoTLS
	}
	if f.Has(NoLock) {
		out |= engine.Exclusive
	}
	if f.Has(NoReadAhead) {
		out |= engine.NoReadAhead
	}
	if f.Has(NoMemInit) {
		out |= engine.NoMemInit
	}
	return out
}

// TableFlags configure a table when it is created. Flags passed when
// opening an existing table are ignored.
type TableFlags uint

const (
	// ReverseKeyOrder compares keys from their last byte backwards
	ReverseKeyOrder TableFlags = 1 << iota

	// MultiValuePerKey keeps several sorted values per key
	MultiValuePerKey

	// IntegerKeys uses fixed-width native-endian integer keys
	IntegerKeys

	// FixedSizeMultiValue is MultiValuePerKey with values of one size
	FixedSizeMultiValue

	// IntegerKeysMultiValue is MultiValuePerKey with native-endian
	// integer values
	IntegerKeysMultiValue

	// ReverseKeyOrderMultiValue is MultiValuePerKey with values compared
	// from their last byte backwards
	ReverseKeyOrderMultiValue

	// CreateIfMissing creates the table when it doesn't exist
	CreateIfMissing
)

// DefaultTableFlags is used when a table is opened without flags
const DefaultTableFlags = CreateIfMissing

const multiValueFlags = MultiValuePerKey | FixedSizeMultiValue | IntegerKeysMultiValue | ReverseKeyOrderMultiValue

// Has reports whether every flag of g is set in f.
func (f TableFlags) Has(g TableFlags) bool {
	return f&g == g
}

// IsMultiValue reports whether f describes a table with several values
// per key. Every multi-value variant implies MultiValuePerKey.
func (f TableFlags) IsMultiValue() bool {
	return f&multiValueFlags != 0
}

func (f TableFlags) engineFlags() engine.TableFlags {
	var out engine.TableFlags
	if f.Has(ReverseKeyOrder) {
		out |= engine.ReverseKey
	}
	if f.Has(IntegerKeys) {
		out |= engine.IntegerKey
	}
	if f.IsMultiValue() {
		out |= engine.DupSort
	}
	if f.Has(FixedSizeMultiValue) {
		out |= engine.DupFixed
	}
	if f.Has(IntegerKeysMultiValue) {
		out |= engine.IntegerDup
	}
	if f.Has(ReverseKeyOrderMultiValue) {
		out |= engine.ReverseDup
	}
	if f.Has(CreateIfMissing) {
		out |= engine.Create
	}
	return out
}

// tableFlagsOf converts the stored flags of a table.
func tableFlagsOf(f engine.TableFlags) TableFlags {
	var out TableFlags
	if f&engine.ReverseKey != 0 {
		out |= ReverseKeyOrder
	}
	if f&engine.IntegerKey != 0 {
		out |= IntegerKeys
	}
	if f.IsDup() {
		out |= MultiValuePerKey
	}
	if f&engine.DupFixed != 0 {
		out |= FixedSizeMultiValue
	}
	if f&engine.IntegerDup != 0 {
		out |= IntegerKeysMultiValue
	}
	if f&engine.ReverseDup != 0 {
		out |= ReverseKeyOrderMultiValue
	}
	return out
}

// TxnFlags select the transaction mode.
type TxnFlags uint

const (
	// TxnReadWrite begins a read-write transaction
	TxnReadWrite TxnFlags = 0

	// TxnReadOnly begins a read-only transaction
	TxnReadOnly TxnFlags = 1
)

// PutFlags modify Cursor.Put.
type PutFlags uint

const (
	// PutDefault overwrites in single-value tables and adds a value in
	// multi-value tables
	PutDefault PutFlags = 0

	// ReplaceCurrent overwrites the entry at the cursor; the key must
	// match the current key
	ReplaceCurrent PutFlags = 1 << (iota - 1)

	// NoDuplicateData fails with KeyExists if the key/value pair exists
	NoDuplicateData

	// NoOverrideKey fails with KeyExists if the key has any value
	NoOverrideKey

	// Reserve allocates the value without copying data into it
	Reserve

	// Append asserts the key sorts after every existing key
	Append

	// AppendDuplicate asserts the value sorts after every existing value
	// of the key
	AppendDuplicate
)

func (f PutFlags) engineFlags() engine.PutFlags {
	var out engine.PutFlags
	if f&ReplaceCurrent != 0 {
		out |= engine.Current
	}
	if f&NoDuplicateData != 0 {
		out |= engine.NoDupData
	}
	if f&NoOverrideKey != 0 {
		out |= engine.NoOverwrite
	}
	if f&Reserve != 0 {
		out |= engine.Reserve
	}
	if f&Append != 0 {
		out |= engine.Append
	}
	if f&AppendDuplicate != 0 {
		out |= engine.AppendDup
	}
	return out
}

// RemoveFlags modify Cursor.Remove.
type RemoveFlags uint

const (
	// RemoveCurrent deletes the entry at the cursor
	RemoveCurrent RemoveFlags = 0

	// RemoveAll deletes every value of the current key
	RemoveAll RemoveFlags = 1
)

func (f RemoveFlags) engineFlags() engine.DelFlags {
	if f&RemoveAll != 0 {
		return engine.AllDups
	}
	return engine.DelCurrent
}
