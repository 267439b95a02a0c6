package ordered

// Pair is one encoded entry.
type Pair struct {
	Key []byte
	Val []byte
}

// Store is an ordered set of encoded pairs belonging to one table of one
// transaction.
//
// In a DupSort table pairs are ordered by key, then by value, and a key
// may appear several times. Otherwise pairs are ordered by key alone and
// values are ignored by every seek. A nil val means "before every value
// of the key".
//
// Slices returned by a Store are only valid until its next mutation.
// Put may keep val; the caller must not reuse it.
type Store interface {
	First() (Pair, bool)
	Last() (Pair, bool)

	// Seek returns the first pair at or after (key, val).
	Seek(key, val []byte) (Pair, bool)

	// After returns the first pair strictly after (key, val).
	After(key, val []byte) (Pair, bool)

	// Before returns the last pair strictly before (key, val).
	Before(key, val []byte) (Pair, bool)

	// AfterKey returns the first pair whose key is greater than key.
	AfterKey(key []byte) (Pair, bool)

	// LastOf returns the last pair whose key equals key.
	LastOf(key []byte) (Pair, bool)

	// Put inserts the pair, replacing the value of key in tables without
	// DupSort.
	Put(key, val []byte) error

	// Delete removes one pair.
	Delete(key, val []byte) error

	// DeleteKey removes every pair of key.
	DeleteKey(key []byte) error

	// Check returns an error once the store may no longer be used, for
	// example because its transaction has finished.
	Check() error
}
