package tablekv

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// IntKey returns the native-endian bytes of v, the key format of tables
// opened with IntegerKeys. The encoding is not portable across
// architectures of different endianness.
func IntKey[T constraints.Integer](v T) []byte {
	switch unsafe.Sizeof(v) {
	case 1:
		return []byte{byte(v)}
	case 2:
		return binary.NativeEndian.AppendUint16(nil, uint16(v))
	case 4:
		return binary.NativeEndian.AppendUint32(nil, uint32(v))
	default:
		return binary.NativeEndian.AppendUint64(nil, uint64(v))
	}
}

// KeyInt decodes a key produced by IntKey. It returns false when b has
// the wrong size for T.
func KeyInt[T constraints.Integer](b []byte) (T, bool) {
	var v T
	if uintptr(len(b)) != unsafe.Sizeof(v) {
		return v, false
	}
	switch len(b) {
	case 1:
		v = T(b[0])
	case 2:
		v = T(binary.NativeEndian.Uint16(b))
	case 4:
		v = T(binary.NativeEndian.Uint32(b))
	default:
		v = T(binary.NativeEndian.Uint64(b))
	}
	return v, true
}

// PutInt writes value under the integer key k.
func PutInt[T constraints.Integer](t *Table, k T, value []byte, flags ...PutFlags) bool {
	return t.Put(IntKey(k), value, flags...)
}

// GetInt returns the first value of the integer key k, or nil.
func GetInt[T constraints.Integer](t *Table, k T) []byte {
	return t.Get(IntKey(k))
}

// GetAllInt returns every value of the integer key k.
func GetAllInt[T constraints.Integer](t *Table, k T) [][]byte {
	return t.GetAll(IntKey(k))
}

// RemoveInt deletes the integer key k with every value it has.
func RemoveInt[T constraints.Integer](t *Table, k T) bool {
	return t.Remove(IntKey(k))
}
