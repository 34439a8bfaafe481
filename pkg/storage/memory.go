package storage

import "sync"

// MemStorage is an in-memory Storage implementation, useful for tests
// and for running without a persistence backend.
type MemStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{blobs: make(map[string][]byte)}
}

// Load implements Storage.
func (s *MemStorage) Load(namespace string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[namespace]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Store implements Storage.
func (s *MemStorage) Store(namespace string, data []byte) error {
	if len(data) > MaxBlobSize {
		return ErrBlobTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[namespace] = append([]byte(nil), data...)
	return nil
}

// Delete implements Storage.
func (s *MemStorage) Delete(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, namespace)
	return nil
}
