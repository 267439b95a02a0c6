package tablekv

import (
	"bytes"
	"fmt"
)

// FindResult is the entry a cursor operation landed on. An invalid
// result has an empty key and value and means the cursor found nothing;
// the reason is in the cursor's last error.
//
// Key and Value are copies and stay usable after the transaction ends.
type FindResult struct {
	Key   []byte
	Value []byte
	Valid bool
}

func found(key, value []byte) FindResult {
	return FindResult{
		Key:   bytes.Clone(key),
		Value: bytes.Clone(value),
		Valid: true,
	}
}

// Equal reports whether r and other hold the same entry.
func (r FindResult) Equal(other FindResult) bool {
	return r.Valid == other.Valid &&
		bytes.Equal(r.Key, other.Key) &&
		bytes.Equal(r.Value, other.Value)
}

func (r FindResult) String() string {
	if !r.Valid {
		return "<not found>"
	}
	return fmt.Sprintf("%q=%q", r.Key, r.Value)
}
