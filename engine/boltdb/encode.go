package boltdb

import (
	"bytes"
	"encoding/binary"

	"github.com/Giulio2002/tablekv/engine"
)

const (
	keyTerminator = 0
	keyEscape     = 1
)

// encodeKeyBytes escapes 0 and 1 bytes and terminates the key with a 0,
// keeping byte order: a key sorts before every longer key it prefixes.
func encodeKeyBytes(buf []byte, key []byte) []byte {
	for _, b := range key {
		if b == keyTerminator || b == keyEscape {
			buf = append(buf, keyEscape)
		}
		buf = append(buf, b)
	}
	return append(buf, keyTerminator)
}

// decodeKeyBytes splits an encoded key from what follows it.
func decodeKeyBytes(buf []byte) ([]byte, []byte, bool) {
	key := make([]byte, 0, len(buf))
	var esc bool
	for idx, b := range buf {
		if esc {
			key = append(key, b)
			esc = false
		} else if b == keyTerminator {
			return key, buf[idx+1:], true
		} else if b == keyEscape {
			esc = true
		} else {
			key = append(key, b)
		}
	}
	return nil, nil, false
}

// encodeDup returns the bucket key of a DupSort pair. A nil val gives
// the position before every value of key.
func encodeDup(key, val []byte) []byte {
	buf := encodeKeyBytes(make([]byte, 0, len(key)+len(val)+2), key)
	return append(buf, val...)
}

// encodeDupUpper returns a position after every value of key and before
// any greater key.
func encodeDupUpper(key []byte) []byte {
	buf := encodeKeyBytes(make([]byte, 0, len(key)+2), key)
	buf[len(buf)-1] = keyEscape
	return buf
}

func decodeDup(buf []byte) ([]byte, []byte) {
	key, val, ok := decodeKeyBytes(buf)
	if !ok {
		return buf, nil
	}
	return key, val
}

// tableBucket returns the bucket name of a table.
func tableBucket(id engine.TableID) []byte {
	return binary.BigEndian.AppendUint32([]byte{'t'}, uint32(id))
}

// tableRecord is a catalog value: table ID then flags.
func encodeTableRecord(id engine.TableID, flags engine.TableFlags) []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(id))
	return binary.BigEndian.AppendUint32(buf, uint32(flags))
}

func decodeTableRecord(buf []byte) (engine.TableID, engine.TableFlags, bool) {
	if len(buf) != 8 {
		return 0, 0, false
	}
	return engine.TableID(binary.BigEndian.Uint32(buf)), engine.TableFlags(binary.BigEndian.Uint32(buf[4:])), true
}

func hasKeyPrefix(buf, key []byte) bool {
	k, _, ok := decodeKeyBytes(buf)
	return ok && bytes.Equal(k, key)
}
