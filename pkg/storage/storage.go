// Package storage provides persistent key-value blob storage and the
// persistence manager that saves the provisioning state whenever it
// changes.
package storage

import "errors"

// MaxBlobSize is the largest blob a Storage implementation must
// accept. Callers writing more get ErrBlobTooLarge.
const MaxBlobSize = 4096

var (
	// ErrBlobTooLarge indicates a blob above MaxBlobSize.
	ErrBlobTooLarge = errors.New("storage: blob too large")
)

// Storage abstracts persistent storage for provisioning state.
// Implementations can use files, flash partitions, or in-memory
// storage.
//
// All methods must be safe for concurrent use.
type Storage interface {
	// Load reads the blob stored under namespace.
	// Returns nil, nil if nothing is stored.
	Load(namespace string) ([]byte, error)

	// Store writes the blob under namespace, replacing any previous
	// content. The write must be atomic: a crash leaves either the old
	// or the new blob, never a mix.
	Store(namespace string, data []byte) error

	// Delete removes the blob stored under namespace.
	// Deleting a missing namespace is not an error.
	Delete(namespace string) error
}
