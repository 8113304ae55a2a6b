package store

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCondition is returned by backends for condition variants
// they cannot translate.
var ErrUnsupportedCondition = errors.New("unsupported condition")

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite3", "postgres", "memory")
	Operation string // Operation that failed ("count", "select", "delete", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
