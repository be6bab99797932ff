package addressstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	currentVersion   = 1
	tempFileSuffix   = ".tmp"
	backupFileSuffix = ".bak"
	lockFileSuffix   = ".lock"
)

// storage handles file persistence for the address store, using the
// same lock-then-atomic-rename discipline regardless of platform; the
// platform-specific piece is only how the lock itself is acquired
// (storage_unix.go / storage_windows.go).
type storage struct {
	path     string
	lockPath string
	mu       sync.Mutex
}

func newStorage(path string) *storage {
	return &storage{path: path, lockPath: path + lockFileSuffix}
}

func (s *storage) load() (*storeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := s.acquireFileLock()
	if err != nil {
		return nil, fmt.Errorf("addressstore: acquire lock for load: %w", err)
	}
	defer s.releaseFileLock(lockFile)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newStoreData(), nil
		}
		return nil, fmt.Errorf("addressstore: read: %w", err)
	}
	if len(raw) == 0 {
		return newStoreData(), nil
	}

	var data storeData
	if err := json.Unmarshal(raw, &data); err != nil {
		backupPath := s.path + backupFileSuffix
		if backupErr := os.Rename(s.path, backupPath); backupErr != nil {
			return nil, fmt.Errorf("addressstore: parse failed and backup failed: parse=%w backup=%v", err, backupErr)
		}
		return newStoreData(), nil
	}
	if data.Entries == nil {
		data.Entries = make(map[string]*Entry)
	}
	return &data, nil
}

func (s *storage) save(data *storeData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := s.acquireFileLock()
	if err != nil {
		return fmt.Errorf("addressstore: acquire lock for save: %w", err)
	}
	defer s.releaseFileLock(lockFile)

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("addressstore: mkdir: %w", err)
		}
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("addressstore: marshal: %w", err)
	}

	tempPath := s.path + tempFileSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("addressstore: create temp file: %w", err)
	}
	if _, err := tempFile.Write(raw); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("addressstore: write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("addressstore: sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("addressstore: close temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("addressstore: rename temp file: %w", err)
	}
	return nil
}
