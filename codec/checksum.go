package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

const (
	checksumName = "xxh3"
	checksumSize = 8
)

// Checksum wraps a Codec and appends the little-endian xxh3 hash of the
// encoded bytes. Decode verifies the trailer before decoding.
type Checksum struct {
	inner Codec
}

// WithChecksum returns c with an xxh3 trailer. A nil c checksums raw values.
func WithChecksum(c Codec) Checksum {
	if c == nil {
		c = Compression{typ: NoCompression}
	}
	return Checksum{inner: c}
}

// Inner returns the wrapped codec.
func (c Checksum) Inner() Codec { return c.inner }

// Name returns the inner name with a "+xxh3" suffix.
func (c Checksum) Name() string { return c.inner.Name() + "+" + checksumName }

// Encode encodes data with the inner codec and appends the trailer.
func (c Checksum) Encode(data []byte) ([]byte, error) {
	enc, err := c.inner.Encode(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(enc), len(enc)+checksumSize)
	copy(out, enc)
	return binary.LittleEndian.AppendUint64(out, Sum(enc)), nil
}

// Decode checks and strips the trailer, then decodes with the inner codec.
func (c Checksum) Decode(data []byte) ([]byte, error) {
	if len(data) < checksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint64(data[len(body):])
	if got := Sum(body); got != want {
		return nil, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksumMismatch, want, got)
	}
	return c.inner.Decode(body)
}

// Sum returns the xxh3 64-bit hash of data.
func Sum(data []byte) uint64 {
	return xxh3.Hash(data)
}
