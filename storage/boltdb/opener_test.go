package boltdb

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpener_SharesOneHandle(t *testing.T) {
	ctx := context.Background()
	opener := NewOpener(filepath.Join(t.TempDir(), "shared.db"), "tasks")

	const n = 8
	handles := make([]*DB, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := opener.DB(ctx)
			assert.NoError(t, err)
			handles[i] = db
		}(i)
	}
	wg.Wait()

	require.NotNil(t, handles[0])
	for i := 1; i < n; i++ {
		assert.Same(t, handles[0], handles[i])
	}
	require.NoError(t, handles[0].Close())
}

func TestOpener_SharesTheError(t *testing.T) {
	ctx := context.Background()
	opener := NewOpener(string([]byte{0}), "tasks")

	_, err1 := opener.DB(ctx)
	_, err2 := opener.DB(ctx)
	require.Error(t, err1)
	assert.Equal(t, err1, err2)
}
