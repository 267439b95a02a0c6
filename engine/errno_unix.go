//go:build unix

package engine

import "golang.org/x/sys/unix"

// Errno codes produced by the pure-Go engines.
const (
	ErrAccess   = Code(unix.EACCES)
	ErrInval    = Code(unix.EINVAL)
	ErrNoEnt    = Code(unix.ENOENT)
	ErrAgain    = Code(unix.EAGAIN)
	ErrNoMem    = Code(unix.ENOMEM)
	ErrNoSpace  = Code(unix.ENOSPC)
	ErrIO       = Code(unix.EIO)
	ErrNoData   = Code(unix.ENODATA)
	ErrReadOnly = Code(unix.EROFS)
)
