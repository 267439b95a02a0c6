//go:build unix

package tablekv

import (
	"golang.org/x/sys/unix"

	"github.com/Giulio2002/tablekv/engine"
)

func errnoCode(code engine.Code) ErrorCode {
	switch unix.Errno(code) {
	case unix.EINVAL:
		return InvalidParameter
	case unix.EACCES, unix.EPERM, unix.EROFS, unix.ENOENT, unix.ENOTDIR, unix.ENODATA:
		return NoAccessToPath
	case unix.EAGAIN, unix.EBUSY:
		return TemporarilyNotAvailable
	case unix.ENOMEM:
		return OutOfMemory
	case unix.ENOSPC, unix.EDQUOT:
		return OutOfDiskSpace
	case unix.EIO:
		return IOError
	default:
		return Unexpected
	}
}
