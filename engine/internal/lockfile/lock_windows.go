//go:build windows

package lockfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// File is an exclusively locked environment lock file.
type File struct {
	file *os.File
}

// Acquire opens or creates the lock file at path and locks it without
// blocking. A lock held elsewhere fails with an error wrapping
// ERROR_LOCK_VIOLATION.
func Acquire(path string, mode os.FileMode) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, err
	}
	var overlapped windows.Overlapped
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &overlapped)
	if err != nil {
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
	var overlapped windows.Overlapped
	err := windows.UnlockFileEx(windows.Handle(lf.file.Fd()), 0, 1, 0, &overlapped)
	if cerr := lf.file.Close(); err == nil {
		err = cerr
	}
	lf.file = nil
	if err != nil {
		return &lockError{"release environment lock", err}
	}
	return nil
}
