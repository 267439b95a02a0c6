//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// File is an exclusively locked environment lock file.
type File struct {
	file *os.File
}

// Acquire opens or creates the lock file at path and locks it without
// blocking. A lock held elsewhere, in this process or another, fails
// with an error wrapping EWOULDBLOCK.
func Acquire(path string, mode os.FileMode) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, &lockError{"acquire environment lock", err}
	}
	return &File{file: f}, nil
}

// Release unlocks and closes the lock file.
func (lf *File) Release() error {
	if lf == nil || lf.file == nil {
		return nil
	}
	err := unix.Flock(int(lf.file.Fd()), unix.LOCK_UN)
	if cerr := lf.file.Close(); err == nil {
		err = cerr
	}
	lf.file = nil
	if err != nil {
		return &lockError{"release environment lock", err}
	}
	return nil
}
