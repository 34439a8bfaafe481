package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStorage stores each namespace as a file inside a directory.
// Writes go through a temporary file and rename so a crash never
// leaves a partially written blob behind.
type FileStorage struct {
	mu  sync.Mutex
	dir string
}

// NewFileStorage creates a file-backed store rooted at dir. The
// directory is created if it does not exist.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(namespace string) (string, error) {
	if namespace == "" || strings.ContainsAny(namespace, "/\\") || strings.Contains(namespace, "..") {
		return "", fmt.Errorf("storage: invalid namespace %q", namespace)
	}
	return filepath.Join(s.dir, namespace+".bin"), nil
}

// Load implements Storage.
func (s *FileStorage) Load(namespace string) ([]byte, error) {
	path, err := s.path(namespace)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Store implements Storage.
func (s *FileStorage) Store(namespace string, data []byte) error {
	if len(data) > MaxBlobSize {
		return ErrBlobTooLarge
	}
	path, err := s.path(namespace)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, namespace+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete implements Storage.
func (s *FileStorage) Delete(namespace string) error {
	path, err := s.path(namespace)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
