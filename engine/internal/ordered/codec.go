// Package ordered implements LMDB cursor semantics on top of any ordered
// pair store. The pure-Go engines only have to provide byte-ordered
// seeks over (key, value) pairs; the codec turns the table's ordering
// flags into byte order and the cursor turns LMDB cursor ops into seeks.
package ordered

import (
	"bytes"
	"encoding/binary"

	"github.com/Giulio2002/tablekv/engine"
)

// Size limits, matching libmdbx with 4 KiB pages.
const (
	// MaxKeySize is the largest key, and the largest value of a DupSort table
	MaxKeySize = 2022

	// MaxValSize is the largest value of a table without DupSort
	MaxValSize = 0x7fff0000
)

// Codec maps keys and values to byte strings whose plain byte order is
// the order the table flags ask for.
type Codec struct {
	flags engine.TableFlags
}

// NewCodec returns the codec for a table created with flags.
func NewCodec(flags engine.TableFlags) Codec {
	return Codec{flags: flags.Persistent()}
}

// Flags returns the table flags.
func (c Codec) Flags() engine.TableFlags {
	return c.flags
}

// Dup reports whether the table keeps several values per key.
func (c Codec) Dup() bool {
	return c.flags.IsDup()
}

// EncodeKey returns a fresh encoded copy of key.
func (c Codec) EncodeKey(key []byte) ([]byte, error) {
	if len(key) == 0 || len(key) > MaxKeySize {
		return nil, engine.NewError("encode_key", engine.ErrBadValSize)
	}
	switch {
	case c.flags&engine.IntegerKey != 0:
		return encodeInt(key)
	case c.flags&engine.ReverseKey != 0:
		return reversed(key), nil
	default:
		return bytes.Clone(key), nil
	}
}

// DecodeKey reverses EncodeKey.
func (c Codec) DecodeKey(enc []byte) []byte {
	switch {
	case c.flags&engine.IntegerKey != 0:
		return decodeInt(enc)
	case c.flags&engine.ReverseKey != 0:
		return reversed(enc)
	default:
		return enc
	}
}

// EncodeVal returns a fresh encoded copy of val. Only values of DupSort
// tables take part in ordering; other values are copied unchanged.
func (c Codec) EncodeVal(val []byte) ([]byte, error) {
	if !c.Dup() {
		if len(val) > MaxValSize {
			return nil, engine.NewError("encode_val", engine.ErrBadValSize)
		}
		return append(make([]byte, 0, len(val)), val...), nil
	}
	if len(val) > MaxKeySize {
		return nil, engine.NewError("encode_val", engine.ErrBadValSize)
	}
	switch {
	case c.flags&engine.IntegerDup != 0:
		return encodeInt(val)
	case c.flags&engine.ReverseDup != 0:
		return reversed(val), nil
	default:
		return append(make([]byte, 0, len(val)), val...), nil
	}
}

// DecodeVal reverses EncodeVal.
func (c Codec) DecodeVal(enc []byte) []byte {
	if !c.Dup() {
		return enc
	}
	switch {
	case c.flags&engine.IntegerDup != 0:
		return decodeInt(enc)
	case c.flags&engine.ReverseDup != 0:
		return reversed(enc)
	default:
		return enc
	}
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// encodeInt turns a native-endian 4 or 8 byte integer into big-endian so
// that byte order equals numeric order.
func encodeInt(b []byte) ([]byte, error) {
	switch len(b) {
	case 4:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, binary.NativeEndian.Uint32(b))
		return out, nil
	case 8:
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, binary.NativeEndian.Uint64(b))
		return out, nil
	default:
		return nil, engine.NewError("encode_int", engine.ErrBadValSize)
	}
}

func decodeInt(b []byte) []byte {
	switch len(b) {
	case 4:
		out := make([]byte, 4)
		binary.NativeEndian.PutUint32(out, binary.BigEndian.Uint32(b))
		return out
	case 8:
		out := make([]byte, 8)
		binary.NativeEndian.PutUint64(out, binary.BigEndian.Uint64(b))
		return out
	default:
		return b
	}
}
