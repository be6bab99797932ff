//go:build !windows

package addressstore

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
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
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("addressstore: acquire flock: %w", err)
	}
	return lockFile, nil
}

func (s *storage) releaseFileLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}
	_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
	lockFile.Close()
}
