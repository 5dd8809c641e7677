// Package boltdb implements the storage.KV table primitive on bbolt.
// One bucket per declared table; values are JSON or raw chunk bytes,
// the package does not interpret them.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/offlinekit/listsync/storage"
)

// DB is the bbolt-backed table primitive.
type DB struct {
	db *bbolt.DB
}

// Open opens the database file and reconciles the declared table set
// against the physical buckets: missing buckets are created, buckets no
// longer declared are dropped. This is the store's structural
// migration; it runs once per open.
func Open(ctx context.Context, dbPath string, tables []string) (*DB, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	d := &DB{db: db}
	if err := d.reconcileTables(tables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reconcile tables: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) reconcileTables(tables []string) error {
	declared := make(map[string]bool, len(tables))
	for _, name := range tables {
		declared[name] = true
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		var drop [][]byte
		err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if !declared[string(name)] {
				drop = append(drop, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range drop {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to drop bucket %s: %w", name, err)
			}
		}
		for _, name := range tables {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Get returns the value stored under key.
func (d *DB) Get(ctx context.Context, table, key string) ([]byte, error) {
	if d.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var value []byte
	err := d.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return storage.ErrKeyNotFound
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}
		value = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// GetAll returns every entry of a table in ascending key order.
func (d *DB) GetAll(ctx context.Context, table string) ([]storage.Pair, error) {
	if d.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var pairs []storage.Pair
	err := d.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			pairs = append(pairs, storage.Pair{
				Key:   string(k),
				Value: append([]byte(nil), v...),
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return pairs, nil
}

// Keys returns every key of a table in ascending order.
func (d *DB) Keys(ctx context.Context, table string) ([]string, error) {
	if d.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var keys []string
	err := d.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of %s: %w", table, err)
	}
	return keys, nil
}

// Put stores or replaces the value under key.
func (d *DB) Put(ctx context.Context, table, key string, value []byte) error {
	if d.db == nil {
		return storage.ErrStorageClosed
	}

	err := d.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (d *DB) Delete(ctx context.Context, table, key string) error {
	if d.db == nil {
		return storage.ErrStorageClosed
	}

	err := d.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete transaction failed: %w", err)
	}
	return nil
}

// Clear removes every entry of a table by dropping and recreating its
// bucket.
func (d *DB) Clear(ctx context.Context, table string) error {
	if d.db == nil {
		return storage.ErrStorageClosed
	}

	err := d.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(table)); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket([]byte(table)); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}
	return nil
}
