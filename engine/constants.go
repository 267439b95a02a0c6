package engine

import "strconv"

// Numeric values of every flag set below match libmdbx so that the mdbx
// driver can hand them over unchanged.

// EnvFlags control how an environment is opened.
type EnvFlags uint

const (
	// EnvDefaults is the default (durable) mode
	EnvDefaults EnvFlags = 0

	// NoSubdir means the path is a filename, not a directory
	NoSubdir EnvFlags = 0x00004000

	// ReadOnly opens the environment in read-only mode
	ReadOnly EnvFlags = 0x00020000

	// WriteMap maps data with write permission
	WriteMap EnvFlags = 0x00080000

	// NoTLS lets read transactions move between OS threads
	NoTLS EnvFlags = 0x00200000

	// NoReadAhead disables OS readahead
	NoReadAhead EnvFlags = 0x00800000

	// NoMemInit skips zeroing malloc'd memory
	NoMemInit EnvFlags = 0x01000000

	// NoMetaSync skips meta page sync after commit
	NoMetaSync EnvFlags = 0x00040000

	// SafeNoSync skips sync but keeps steady commits
	SafeNoSync EnvFlags = 0x00010000

	// UtterlyNoSync skips all syncs
	UtterlyNoSync = SafeNoSync | NoMetaSync

	// Exclusive opens in exclusive mode, without a shared lock file
	Exclusive EnvFlags = 0x00400000
)

// TableFlags configure a table when it is created.
type TableFlags uint

const (
	// TableDefaults uses byte-wise key order and one value per key
	TableDefaults TableFlags = 0

	// ReverseKey compares keys from their last byte backwards
	ReverseKey TableFlags = 0x02

	// DupSort allows multiple values per key, sorted
	DupSort TableFlags = 0x04

	// IntegerKey uses 4 or 8 byte native-endian integer keys
	IntegerKey TableFlags = 0x08

	// DupFixed requires all values of a key to have the same size
	DupFixed TableFlags = 0x10

	// IntegerDup uses native-endian integer values in a DupSort table
	IntegerDup TableFlags = 0x20

	// ReverseDup compares values from their last byte backwards
	ReverseDup TableFlags = 0x40

	// Create creates the table if it doesn't exist
	Create TableFlags = 0x40000
)

const persistentFlags = ReverseKey | DupSort | IntegerKey | DupFixed | IntegerDup | ReverseDup

// Persistent returns the flags that are stored with the table, i.e.
// without Create and any engine-internal bits.
func (f TableFlags) Persistent() TableFlags {
	return f & persistentFlags
}

// IsDup reports whether the table keeps multiple values per key.
func (f TableFlags) IsDup() bool {
	return f&DupSort != 0
}

// Valid reports whether the duplicate modifiers are only used together
// with DupSort.
func (f TableFlags) Valid() bool {
	return f.IsDup() || f&(DupFixed|IntegerDup|ReverseDup) == 0
}

// PutFlags modify a cursor Put.
type PutFlags uint

const (
	// Upsert is the default insert-or-update mode
	Upsert PutFlags = 0

	// NoOverwrite returns KeyExist if the key exists
	NoOverwrite PutFlags = 0x10

	// NoDupData returns KeyExist if the key/value pair exists
	NoDupData PutFlags = 0x20

	// Current overwrites the entry at the cursor
	Current PutFlags = 0x40

	// Reserve reserves space without copying data
	Reserve PutFlags = 0x10000

	// Append asserts the key sorts after every existing key
	Append PutFlags = 0x20000

	// AppendDup asserts the value sorts after every existing value of the key
	AppendDup PutFlags = 0x40000
)

// DelFlags modify a cursor Del.
type DelFlags uint

const (
	// DelCurrent deletes only the entry at the cursor
	DelCurrent DelFlags = 0

	// AllDups deletes every value of the current key
	AllDups DelFlags = 0x80
)

// Op is a cursor positioning operation.
type Op uint

// Cursor operations tablekv uses, in libmdbx order.
const (
	// First positions at the first key
	First Op = iota
	// FirstDup positions at the first duplicate of current key
	FirstDup
	// GetBoth positions at exact key-value pair
	GetBoth
	// GetBothRange positions at key with value >= specified
	GetBothRange
	// GetCurrent returns current key-value
	GetCurrent
	// Last positions at the last key
	Last
	// LastDup positions at the last duplicate of current key
	LastDup
	// Next moves to the next key-value
	Next
	// NextDup moves to the next duplicate of current key
	NextDup
	// NextNoDup moves to the first value of next key
	NextNoDup
	// Prev moves to the previous key-value
	Prev
	// PrevDup moves to the previous duplicate of current key
	PrevDup
	// PrevNoDup moves to the last value of previous key
	PrevNoDup
	// Set positions at specified key
	Set
	// SetKey positions at key, returns key and value
	SetKey
	// SetRange positions at first key >= specified
	SetRange
)

var opNames = [...]string{
	First:        "first",
	FirstDup:     "first_dup",
	GetBoth:      "get_both",
	GetBothRange: "get_both_range",
	GetCurrent:   "get_current",
	Last:         "last",
	LastDup:      "last_dup",
	Next:         "next",
	NextDup:      "next_dup",
	NextNoDup:    "next_nodup",
	Prev:         "prev",
	PrevDup:      "prev_dup",
	PrevNoDup:    "prev_nodup",
	Set:          "set",
	SetKey:       "set_key",
	SetRange:     "set_range",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}
