//go:build windows

package addressstore

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

func (s *storage) acquireFileLock() (*os.File, error) {
	if dir := filepath.Dir(s.lockPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("addressstore: create lock directory: %w", err)
		}
	}

	lockFile, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("addressstore: open lock file: %w", err)
	}

	var overlapped windows.Overlapped
	if err := windows.LockFileEx(
		windows.Handle(lockFile.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0,
		1,
		0,
		&overlapped,
	); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("addressstore: acquire lock: %w", err)
	}
	return lockFile, nil
}

func (s *storage) releaseFileLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}
	var overlapped windows.Overlapped
	_ = windows.UnlockFileEx(windows.Handle(lockFile.Fd()), 0, 1, 0, &overlapped)
	lockFile.Close()
}
