package storage

import "errors"

// Common storage errors
var (
	// ErrKeyNotFound indicates that a key does not exist in a table
	ErrKeyNotFound = errors.New("key not found")

	// ErrStorageClosed indicates that the storage engine is closed
	ErrStorageClosed = errors.New("storage is closed")
)
