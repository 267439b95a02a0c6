package tablekv

import (
	"errors"
	"fmt"

	"github.com/Giulio2002/tablekv/engine"
)

// Error represents a tablekv error with an error code
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tablekv: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("tablekv: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode is the closed set of results reported by environments,
// transactions, tables and cursors.
type ErrorCode int

const (
	// NoError indicates the last operation succeeded
	NoError ErrorCode = iota

	// KeyExists indicates the key/value pair already exists
	KeyExists

	// NotFound indicates the key/value pair was not found
	NotFound

	// PageNotFound indicates a requested page was not found (corruption)
	PageNotFound

	// Corrupted indicates the database is corrupted
	Corrupted

	// Panic indicates a fatal environment error
	Panic

	// VersionMismatch indicates the database version doesn't match the engine
	VersionMismatch

	// Invalid indicates the file is not a valid database file
	Invalid

	// MapFull indicates the environment map size was reached
	MapFull

	// DBsFull indicates the environment max tables limit was reached
	DBsFull

	// ReadersFull indicates the environment max readers limit was reached
	ReadersFull

	// TooManyTransactions indicates the transaction has too many dirty pages
	TooManyTransactions

	// CursorFull indicates cursor stack overflow (corruption)
	CursorFull

	// PageFull indicates a page has no space (internal error)
	PageFull

	// MapResized indicates the map was resized beyond what this process
	// can follow
	MapResized

	// Incompatible indicates the operation is incompatible with the table
	// or the engine
	Incompatible

	// BadReaderSlot indicates a reader slot was corrupted or reused
	BadReaderSlot

	// BadTransaction indicates the transaction cannot be used
	BadTransaction

	// BadValueSize indicates an unsupported key or value size
	BadValueSize

	// BadDBI indicates the table handle was changed unexpectedly
	BadDBI

	// Busy indicates another write transaction is running
	Busy

	// KeyMismatch indicates the key does not match the cursor position
	KeyMismatch

	// InvalidParameter indicates an invalid argument or handle
	InvalidParameter

	// InvalidPath indicates an empty or unusable environment path
	InvalidPath

	// NoAccessToPath indicates the path is missing or not accessible, or
	// a write was attempted in a read-only transaction
	NoAccessToPath

	// TemporarilyNotAvailable indicates the environment is locked by
	// another process
	TemporarilyNotAvailable

	// OutOfMemory indicates memory allocation failed
	OutOfMemory

	// OutOfDiskSpace indicates the disk is full
	OutOfDiskSpace

	// IOError indicates a low-level I/O failure
	IOError

	// Unexpected indicates an error outside every other category
	Unexpected
)

var errorMessages = map[ErrorCode]string{
	NoError:                 "success",
	KeyExists:               "key/value pair already exists",
	NotFound:                "key/value pair not found",
	PageNotFound:            "requested page not found",
	Corrupted:               "database is corrupted",
	Panic:                   "fatal environment error",
	VersionMismatch:         "database version mismatch",
	Invalid:                 "file is not a valid database",
	MapFull:                 "environment map size limit reached",
	DBsFull:                 "environment max tables limit reached",
	ReadersFull:             "environment max readers limit reached",
	TooManyTransactions:     "transaction has too many dirty pages",
	CursorFull:              "cursor stack overflow",
	PageFull:                "page has no space",
	MapResized:              "environment map was resized",
	Incompatible:            "operation incompatible with table or engine",
	BadReaderSlot:           "invalid reader slot",
	BadTransaction:          "transaction is not usable",
	BadValueSize:            "unsupported key or value size",
	BadDBI:                  "table handle changed unexpectedly",
	Busy:                    "another write transaction is running",
	KeyMismatch:             "key does not match cursor position",
	InvalidParameter:        "invalid parameter",
	InvalidPath:             "invalid path",
	NoAccessToPath:          "no access to path",
	TemporarilyNotAvailable: "resource temporarily not available",
	OutOfMemory:             "out of memory",
	OutOfDiskSpace:          "out of disk space",
	IOError:                 "I/O error",
	Unexpected:              "unexpected error",
}

func (c ErrorCode) String() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Kind groups error codes by how a caller should react to them.
type Kind int

const (
	// KindNone is the kind of NoError
	KindNone Kind = iota

	// KindNotFound is an expected lookup miss
	KindNotFound

	// KindConstraint is an expected refusal of a conditional write
	KindConstraint

	// KindResource means a limit was hit; reconfigure and retry
	KindResource

	// KindUsage is a caller bug and not retryable
	KindUsage

	// KindFatal means the environment must be reopened
	KindFatal

	// KindOS is an operating system failure
	KindOS
)

// Kind returns the kind of c.
func (c ErrorCode) Kind() Kind {
	switch c {
	case NoError:
		return KindNone
	case NotFound:
		return KindNotFound
	case KeyExists:
		return KindConstraint
	case MapFull, DBsFull, ReadersFull, TooManyTransactions, CursorFull, PageFull, MapResized, Busy:
		return KindResource
	case Panic, Corrupted, PageNotFound, VersionMismatch, Invalid, BadReaderSlot:
		return KindFatal
	case NoAccessToPath, TemporarilyNotAvailable, OutOfMemory, OutOfDiskSpace, IOError:
		return KindOS
	default:
		return KindUsage
	}
}

// engineCodes maps engine result codes to error codes. OS errno values
// are mapped by errnoCode.
var engineCodes = map[engine.Code]ErrorCode{
	engine.Success:                NoError,
	engine.ErrKeyExist:            KeyExists,
	engine.ErrNotFound:            NotFound,
	engine.ErrPageNotFound:        PageNotFound,
	engine.ErrCorrupted:           Corrupted,
	engine.ErrPanic:               Panic,
	engine.ErrVersionMismatch:     VersionMismatch,
	engine.ErrInvalid:             Invalid,
	engine.ErrMapFull:             MapFull,
	engine.ErrDBsFull:             DBsFull,
	engine.ErrReadersFull:         ReadersFull,
	engine.ErrTxnFull:             TooManyTransactions,
	engine.ErrCursorFull:          CursorFull,
	engine.ErrPageFull:            PageFull,
	engine.ErrUnableExtendMapsize: MapResized,
	engine.ErrIncompatible:        Incompatible,
	engine.ErrBadRSlot:            BadReaderSlot,
	engine.ErrBadTxn:              BadTransaction,
	engine.ErrBadValSize:          BadValueSize,
	engine.ErrBadDBI:              BadDBI,
	engine.ErrBusy:                Busy,
	engine.ErrKeyMismatch:         KeyMismatch,
	engine.ErrThreadMismatch:      BadTransaction,
}

// codeFor maps an engine code to an error code.
func codeFor(code engine.Code) ErrorCode {
	if code.IsErrno() {
		return errnoCode(code)
	}
	if c, ok := engineCodes[code]; ok {
		return c
	}
	return Unexpected
}

// CodeOf returns the error code carried by err: NoError for nil, the code
// of a *Error, the mapped code of an engine error, Unexpected otherwise.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codeFor(engine.CodeOf(err))
}

// IsNotFound returns true if err carries NotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == NotFound
}

// IsKeyExists returns true if err carries KeyExists
func IsKeyExists(err error) bool {
	return CodeOf(err) == KeyExists
}

// IsMapFull returns true if err carries MapFull
func IsMapFull(err error) bool {
	return CodeOf(err) == MapFull
}

// newError converts err into an *Error.
func newError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	code := CodeOf(err)
	return &Error{Code: code, Message: code.String(), Err: err}
}

// errorState is the last-error state every handle carries. It is set by
// a failed operation and cleared by a successful one or ClearLastError.
type errorState struct {
	last *Error
}

func (s *errorState) setError(err error) {
	s.last = newError(err)
}

func (s *errorState) setCode(code ErrorCode, msg string) {
	if msg == "" {
		msg = code.String()
	}
	s.last = &Error{Code: code, Message: msg}
}

func (s *errorState) clearError() {
	s.last = nil
}

// LastError returns the code of the last failure, or NoError.
func (s *errorState) LastError() ErrorCode {
	if s.last == nil {
		return NoError
	}
	return s.last.Code
}

// LastErrorString returns a description of the last failure, or an
// empty string.
func (s *errorState) LastErrorString() string {
	if s.last == nil {
		return ""
	}
	return s.last.Error()
}

// ClearLastError resets the last-error state.
func (s *errorState) ClearLastError() {
	s.last = nil
}

// Err returns the last failure as an error, or nil.
func (s *errorState) Err() error {
	if s.last == nil {
		return nil
	}
	return s.last
}
