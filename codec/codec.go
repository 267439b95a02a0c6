// Package codec provides value codecs for stored data.
//
// A Codec turns a value into the bytes written to a table and back.
// Compression codecs wrap snappy, LZ4 and Zstandard; WithChecksum appends
// an xxh3 trailer that is verified on every read.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec encodes values before they are stored and decodes them after
// they are read. Encode must be deterministic: equal inputs yield equal
// outputs, so encoded values can be looked up again.
type Codec interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Type identifies a compression algorithm.
type Type uint8

const (
	// NoCompression stores values unchanged.
	NoCompression Type = 0x0

	// SnappyCompression uses Google Snappy.
	SnappyCompression Type = 0x1

	// LZ4Compression uses LZ4 frames.
	LZ4Compression Type = 0x4

	// LZ4HCCompression uses LZ4 frames at a high compression level.
	LZ4HCCompression Type = 0x5

	// ZstdCompression uses Zstandard.
	ZstdCompression Type = 0x7
)

var typeNames = map[Type]string{
	NoCompression:     "none",
	SnappyCompression: "snappy",
	LZ4Compression:    "lz4",
	LZ4HCCompression:  "lz4hc",
	ZstdCompression:   "zstd",
}

// String returns the codec name of the compression type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// IsSupported reports whether the compression type is implemented.
func (t Type) IsSupported() bool {
	_, ok := typeNames[t]
	return ok
}

// Errors returned by codecs.
var (
	ErrUnsupported      = errors.New("codec: unsupported codec")
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")
	ErrTruncated        = errors.New("codec: value too short")
)

// Compression is the Codec of one compression type.
type Compression struct {
	typ Type
}

// New returns the codec for compression type t.
func New(t Type) (Compression, error) {
	if !t.IsSupported() {
		return Compression{}, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
	return Compression{typ: t}, nil
}

// Type returns the compression type of c.
func (c Compression) Type() Type { return c.typ }

// Name returns the compression type name.
func (c Compression) Name() string { return c.typ.String() }

// Encode compresses data.
func (c Compression) Encode(data []byte) ([]byte, error) {
	return Compress(c.typ, data)
}

// Decode decompresses data.
func (c Compression) Decode(data []byte) ([]byte, error) {
	return Decompress(c.typ, data)
}

// Compress compresses data using the specified compression type.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return bytes.Clone(data), nil

	case SnappyCompression:
		return snappy.Encode(nil, data), nil

	case LZ4Compression:
		return compressLZ4(data, lz4.Fast)

	case LZ4HCCompression:
		return compressLZ4(data, lz4.Level9)

	case ZstdCompression:
		enc, err := zstdEncoder()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

// Decompress decompresses data using the specified compression type.
func Decompress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return bytes.Clone(data), nil

	case SnappyCompression:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return out, nil

	case LZ4Compression, LZ4HCCompression:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 read: %w", err)
		}
		return out, nil

	case ZstdCompression:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, err
		}
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

func compressLZ4(data []byte, level lz4.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(level)); err != nil {
		return nil, fmt.Errorf("lz4 apply level: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeAll and DecodeAll may be called concurrently, so one encoder and
// one decoder serve the whole process.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithZeroFrames(true))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return enc, nil
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return dec, nil
	})
)

// Parse returns the codec named by s: a compression type name, optionally
// followed by "+xxh3" for a checksum trailer ("zstd+xxh3", "none+xxh3").
// The empty string is NoCompression.
func Parse(s string) (Codec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	name, sum, checked := strings.Cut(s, "+")
	if checked && sum != checksumName {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	if name == "" {
		name = NoCompression.String()
	}
	for t, n := range typeNames {
		if n != name {
			continue
		}
		var c Codec = Compression{typ: t}
		if checked {
			c = WithChecksum(c)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Names returns the codec names accepted by Parse, without suffixes.
func Names() []string {
	return []string{"none", "snappy", "lz4", "lz4hc", "zstd"}
}
