package engine

import (
	"errors"
	"fmt"
	"syscall"
)

// Code is an engine result code. Negative values use the MDBX numbering,
// positive values are operating system errno values.
type Code int

// Engine codes, matching MDBX.
const (
	// Success indicates the operation completed successfully
	Success Code = 0

	// ErrKeyExist indicates the key/data pair already exists
	ErrKeyExist Code = -30799

	// ErrNotFound indicates the key/data pair was not found (EOF)
	ErrNotFound Code = -30798

	// ErrPageNotFound indicates a requested page was not found (corruption)
	ErrPageNotFound Code = -30797

	// ErrCorrupted indicates the database is corrupted
	ErrCorrupted Code = -30796

	// ErrPanic indicates a fatal environment error
	ErrPanic Code = -30795

	// ErrVersionMismatch indicates DB version doesn't match library
	ErrVersionMismatch Code = -30794

	// ErrInvalid indicates the file is not a valid database file
	ErrInvalid Code = -30793

	// ErrMapFull indicates the environment mapsize was reached
	ErrMapFull Code = -30792

	// ErrDBsFull indicates the environment maxdbs was reached
	ErrDBsFull Code = -30791

	// ErrReadersFull indicates the environment maxreaders was reached
	ErrReadersFull Code = -30790

	// ErrTxnFull indicates the transaction has too many dirty pages
	ErrTxnFull Code = -30788

	// ErrCursorFull indicates cursor stack overflow (corruption)
	ErrCursorFull Code = -30787

	// ErrPageFull indicates a page has no space (internal error)
	ErrPageFull Code = -30786

	// ErrUnableExtendMapsize indicates the map was resized by another
	// process and could not be extended in this one
	ErrUnableExtendMapsize Code = -30785

	// ErrIncompatible indicates incompatible operation or flags
	ErrIncompatible Code = -30784

	// ErrBadRSlot indicates reader slot was corrupted or reused
	ErrBadRSlot Code = -30783

	// ErrBadTxn indicates the transaction is invalid
	ErrBadTxn Code = -30782

	// ErrBadValSize indicates invalid key or data size
	ErrBadValSize Code = -30781

	// ErrBadDBI indicates the table handle is invalid
	ErrBadDBI Code = -30780

	// ErrProblem indicates an unexpected internal error
	ErrProblem Code = -30779

	// ErrBusy indicates another write transaction is running
	ErrBusy Code = -30778

	// ErrKeyMismatch indicates key mismatch with cursor position
	ErrKeyMismatch Code = -30418

	// ErrTooLarge indicates database is too large for system
	ErrTooLarge Code = -30417

	// ErrThreadMismatch indicates thread attempted to use unowned object
	ErrThreadMismatch Code = -30416
)

var codeMessages = map[Code]string{
	Success:                "success",
	ErrKeyExist:            "key/data pair already exists",
	ErrNotFound:            "key/data pair not found",
	ErrPageNotFound:        "requested page not found",
	ErrCorrupted:           "database is corrupted",
	ErrPanic:               "fatal environment error",
	ErrVersionMismatch:     "database version mismatch",
	ErrInvalid:             "file is not a valid database",
	ErrMapFull:             "environment mapsize limit reached",
	ErrDBsFull:             "environment maxdbs limit reached",
	ErrReadersFull:         "environment maxreaders limit reached",
	ErrTxnFull:             "transaction has too many dirty pages",
	ErrCursorFull:          "cursor stack overflow",
	ErrPageFull:            "page has no space",
	ErrUnableExtendMapsize: "unable to extend memory mapping",
	ErrIncompatible:        "incompatible operation or flags",
	ErrBadRSlot:            "reader slot corrupted",
	ErrBadTxn:              "transaction is invalid",
	ErrBadValSize:          "invalid key or value size",
	ErrBadDBI:              "invalid table handle",
	ErrProblem:             "unexpected internal error",
	ErrBusy:                "another write transaction is running",
	ErrKeyMismatch:         "key mismatch with cursor position",
	ErrTooLarge:            "database too large for system",
	ErrThreadMismatch:      "thread attempted to use unowned object",
}

// IsErrno reports whether c is an operating system errno value.
func (c Code) IsErrno() bool {
	return c > 0
}

func (c Code) String() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	if c.IsErrno() {
		return syscall.Errno(c).Error()
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Error is returned by every engine operation that fails.
type Error struct {
	Op   string
	Code Code
	Err  error // wrapped error, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error for op with the given code.
func NewError(op string, code Code) *Error {
	return &Error{Op: op, Code: code}
}

// WrapError creates an Error for op wrapping err. The code is taken from
// err when it carries one.
func WrapError(op string, err error) *Error {
	return &Error{Op: op, Code: CodeOf(err), Err: err}
}

// CodeOf returns the engine code carried by err. Errno values found in
// the chain are returned as is; anything else is ErrProblem.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Code(errno)
	}
	return ErrProblem
}

// IsNotFound returns true if err carries ErrNotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound
}

// IsKeyExist returns true if err carries ErrKeyExist
func IsKeyExist(err error) bool {
	return CodeOf(err) == ErrKeyExist
}
