//go:build windows

package engine

import "golang.org/x/sys/windows"

// Errno codes produced by the pure-Go engines. libmdbx uses the same
// Win32 codes for its errno-style results.
const (
	ErrAccess   = Code(windows.ERROR_ACCESS_DENIED)
	ErrInval    = Code(windows.ERROR_INVALID_PARAMETER)
	ErrNoEnt    = Code(windows.ERROR_FILE_NOT_FOUND)
	ErrAgain    = Code(windows.ERROR_LOCK_VIOLATION)
	ErrNoMem    = Code(windows.ERROR_NOT_ENOUGH_MEMORY)
	ErrNoSpace  = Code(windows.ERROR_DISK_FULL)
	ErrIO       = Code(windows.ERROR_WRITE_FAULT)
	ErrNoData   = Code(windows.ERROR_HANDLE_EOF)
	ErrReadOnly = Code(windows.ERROR_WRITE_PROTECT)
)
