package storage

import "context"

// Pair is one key-value entry of a table.
type Pair struct {
	Key   string
	Value []byte
}

// KV is the ordered key-value table primitive every named table is
// built on: record caches, the transaction journal, and the binary
// sub-store all use it identically. Implementations reconcile the
// declared table set against the physical one when they open.
type KV interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, table, key string) ([]byte, error)

	// GetAll returns every entry of a table in ascending key order.
	GetAll(ctx context.Context, table string) ([]Pair, error)

	// Keys returns every key of a table in ascending order.
	Keys(ctx context.Context, table string) ([]string, error)

	// Put stores or replaces the value under key.
	Put(ctx context.Context, table, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, table, key string) error

	// Clear removes every entry of a table.
	Clear(ctx context.Context, table string) error

	// Close releases the underlying storage engine.
	Close() error
}
