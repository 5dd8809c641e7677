package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/offlinekit/listsync/storage"
)

func openTestDB(t *testing.T, tables ...string) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), dbPath, tables)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestOpen_CreatesFileAndBuckets(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(context.Background(), dbPath, []string{"tasks", "docs"})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = db.db.View(func(tx *bbolt.Tx) error {
		for _, name := range []string{"tasks", "docs"} {
			if tx.Bucket([]byte(name)) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestOpen_InvalidPath(t *testing.T) {
	db, err := Open(context.Background(), string([]byte{0}), []string{"tasks"})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestOpen_DropsUndeclaredTables(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(ctx, dbPath, []string{"tasks", "legacy"})
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "legacy", "k", []byte("v")))
	require.NoError(t, db.Close())

	// Reopening without "legacy" drops it and keeps "tasks".
	db, err = Open(ctx, dbPath, []string{"tasks"})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	err = db.db.View(func(tx *bbolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte("legacy")))
		assert.NotNil(t, tx.Bucket([]byte("tasks")))
		return nil
	})
	require.NoError(t, err)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "tasks")

	require.NoError(t, db.Put(ctx, "tasks", "1", []byte(`{"id":1}`)))

	value, err := db.Get(ctx, "tasks", "1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), value)
}

func TestGet_MissingKey(t *testing.T) {
	db := openTestDB(t, "tasks")

	_, err := db.Get(context.Background(), "tasks", "absent")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestGetAll_AscendingKeyOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "tasks")

	require.NoError(t, db.Put(ctx, "tasks", "b", []byte("2")))
	require.NoError(t, db.Put(ctx, "tasks", "a", []byte("1")))
	require.NoError(t, db.Put(ctx, "tasks", "c", []byte("3")))

	pairs, err := db.GetAll(ctx, "tasks")
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "a", pairs[0].Key)
	assert.Equal(t, "b", pairs[1].Key)
	assert.Equal(t, "c", pairs[2].Key)
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "tasks")

	require.NoError(t, db.Put(ctx, "tasks", "x", []byte("1")))
	require.NoError(t, db.Put(ctx, "tasks", "y", []byte("2")))

	keys, err := db.Keys(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, keys)
}

func TestDelete_AbsentKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "tasks")

	assert.NoError(t, db.Delete(ctx, "tasks", "absent"))

	require.NoError(t, db.Put(ctx, "tasks", "1", []byte("v")))
	require.NoError(t, db.Delete(ctx, "tasks", "1"))
	_, err := db.Get(ctx, "tasks", "1")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "tasks")

	require.NoError(t, db.Put(ctx, "tasks", "1", []byte("v")))
	require.NoError(t, db.Clear(ctx, "tasks"))

	keys, err := db.Keys(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// The table stays usable after clearing.
	require.NoError(t, db.Put(ctx, "tasks", "2", []byte("w")))
}
