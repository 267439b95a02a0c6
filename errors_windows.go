//go:build windows

package tablekv

import (
	"golang.org/x/sys/windows"

	"github.com/Giulio2002/tablekv/engine"
)

func errnoCode(code engine.Code) ErrorCode {
	switch windows.Errno(code) {
	case windows.ERROR_INVALID_PARAMETER:
		return InvalidParameter
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND, windows.ERROR_WRITE_PROTECT, windows.ERROR_HANDLE_EOF:
		return NoAccessToPath
	case windows.ERROR_LOCK_VIOLATION, windows.ERROR_SHARING_VIOLATION:
		return TemporarilyNotAvailable
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_OUTOFMEMORY:
		return OutOfMemory
	case windows.ERROR_DISK_FULL, windows.ERROR_HANDLE_DISK_FULL:
		return OutOfDiskSpace
	case windows.ERROR_WRITE_FAULT, windows.ERROR_READ_FAULT:
		return IOError
	default:
		return Unexpected
	}
}
