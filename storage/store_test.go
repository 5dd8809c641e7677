package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
)

// memKV is an in-memory KV for store tests.
type memKV struct {
	mu     sync.Mutex
	tables map[string]map[string][]byte

	// putErr, when set, fails every Put.
	putErr error
}

func newMemKV() *memKV {
	return &memKV{tables: make(map[string]map[string][]byte)}
}

func (m *memKV) Get(ctx context.Context, table, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.tables[table][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *memKV) GetAll(ctx context.Context, table string) ([]Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.sortedKeys(table)
	pairs := make([]Pair, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, Pair{Key: key, Value: append([]byte(nil), m.tables[table][key]...)})
	}
	return pairs, nil
}

func (m *memKV) Keys(ctx context.Context, table string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedKeys(table), nil
}

func (m *memKV) Put(ctx context.Context, table, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if m.tables[table] == nil {
		m.tables[table] = make(map[string][]byte)
	}
	m.tables[table][key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(ctx context.Context, table, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables[table], key)
	return nil
}

func (m *memKV) Clear(ctx context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = make(map[string][]byte)
	return nil
}

func (m *memKV) Close() error { return nil }

func (m *memKV) sortedKeys(table string) []string {
	keys := make([]string, 0, len(m.tables[table]))
	for key := range m.tables[table] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var numericType = models.RecordType{Name: "tasks", KeyKind: models.KeyNumeric}

func newTestStore(t *testing.T, kv KV, typ models.RecordType) *Store {
	t.Helper()
	manager := NewManager(kv, Options{MaxConcurrent: 4})
	return manager.Store(typ)
}

func TestAddOrUpdate_KeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	saved, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(451), Title: "kept"})
	require.NoError(t, err)
	assert.Equal(t, int64(451), saved.ID.Num)

	got, err := store.GetByID(ctx, models.NumericKey(451))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "kept", got.Title)
}

func TestAddOrUpdate_AllocatesSyntheticNumericIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	first, err := store.AddOrUpdate(ctx, &models.Record{Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), first.ID.Num)
	assert.True(t, first.ID.IsSynthetic())

	second, err := store.AddOrUpdate(ctx, &models.Record{Title: "second"})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), second.ID.Num)

	third, err := store.AddOrUpdate(ctx, &models.Record{Title: "third"})
	require.NoError(t, err)
	assert.Equal(t, int64(-4), third.ID.Num)
}

func TestAddOrUpdate_SyntheticIDsIgnorePositiveKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(100), Title: "server"})
	require.NoError(t, err)

	saved, err := store.AddOrUpdate(ctx, &models.Record{Title: "local"})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), saved.ID.Num)
}

func TestAddOrUpdate_ConcurrentAllocationsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := store.AddOrUpdate(ctx, &models.Record{Title: "x"})
			assert.NoError(t, err)
			if saved != nil && saved.Error == nil {
				ids <- saved.ID.Num
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		assert.LessOrEqual(t, id, int64(-2))
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestAddOrUpdate_AllocatesSyntheticStringIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), models.RecordType{Name: "docs", KeyKind: models.KeyString})

	saved, err := store.AddOrUpdate(ctx, &models.Record{Title: "doc"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.ID.Str, models.SyntheticPrefix))
	assert.True(t, saved.ID.IsSynthetic())
}

func TestAddOrUpdate_WriteFailureCapturedOnRecord(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := newTestStore(t, kv, numericType)

	kv.putErr = errors.New("disk full")

	saved, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Title: "x"})
	require.NoError(t, err)
	require.NotNil(t, saved.Error)
	assert.Equal(t, models.ErrKindStorageFailure, saved.Error.Kind)
	assert.Contains(t, saved.Error.Message, "disk full")

	// A later successful write clears the captured error.
	kv.putErr = nil
	saved, err = store.AddOrUpdate(ctx, saved)
	require.NoError(t, err)
	assert.Nil(t, saved.Error)
}

func TestGetByID_MissingIsNilNotError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	got, err := store.GetByID(ctx, models.NumericKey(12345))
	require.NoError(t, err)
	assert.Nil(t, got)
}

// wrapKV decorates memKV the way a real backend does, wrapping every
// Get failure with operational context.
type wrapKV struct {
	*memKV
}

func (w *wrapKV) Get(ctx context.Context, table, key string) ([]byte, error) {
	value, err := w.memKV.Get(ctx, table, key)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", table, key, err)
	}
	return value, nil
}

func TestGetByID_MissingIsNilThroughWrappedErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &wrapKV{memKV: newMemKV()}, numericType)

	got, err := store.GetByID(ctx, models.NumericKey(12345))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_EvaluatesQueryAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	for i := 1; i <= 5; i++ {
		_, err := store.AddOrUpdate(ctx, &models.Record{
			ID:     models.NumericKey(int64(i)),
			Title:  fmt.Sprintf("task %d", i),
			Fields: map[string]models.Value{"Rank": models.Number(float64(i))},
		})
		require.NoError(t, err)
	}

	out, err := store.Get(ctx, query.Query{
		Test:    query.Predicate{Field: "Rank", Op: query.OpGt, Value: models.Number(2)},
		OrderBy: []query.SortKey{{Field: "Rank", Descending: true}},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int64(5), out[0].ID.Num)
	assert.Equal(t, int64(3), out[2].ID.Num)
}

func TestReplaceAll_DropsPreviousContents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newMemKV(), numericType)

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Title: "old"})
	require.NoError(t, err)

	_, err = store.ReplaceAll(ctx, []*models.Record{
		{ID: models.NumericKey(2), Title: "new"},
	})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].ID.Num)
}

func TestWrite_ChunksOversizedPayload(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 8

	payload := []byte("abcdefghijklmnopqrst") // 20 bytes: chunks of 8, 8, 4
	saved, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Title: "f", Payload: payload})
	require.NoError(t, err)
	require.Nil(t, saved.Error)

	keys, err := kv.Keys(ctx, "files")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "1_chunk_1", "1_chunk_2", "1_chunk_3"}, keys)

	// The head entry must not carry the payload inline.
	head, err := kv.Get(ctx, "files", "1")
	require.NoError(t, err)
	assert.NotContains(t, string(head), "abcdefgh")

	got, err := store.GetByID(ctx, models.NumericKey(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, bytes.Equal(payload, got.Payload))
}

func TestWrite_SmallPayloadStaysInline(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 1024

	payload := []byte("small")
	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Payload: payload})
	require.NoError(t, err)

	keys, err := kv.Keys(ctx, "files")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys)

	got, err := store.GetByID(ctx, models.NumericKey(1))
	require.NoError(t, err)
	assert.Equal(t, payload, got.Payload)
}

func TestWrite_RewriteRemovesStaleChunks(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 4

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Payload: []byte("0123456789abcdef")})
	require.NoError(t, err)

	// Shrink the payload below the chunk threshold.
	_, err = store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Payload: []byte("ok")})
	require.NoError(t, err)

	keys, err := kv.Keys(ctx, "files")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys)

	got, err := store.GetByID(ctx, models.NumericKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got.Payload)
}

func TestGetAll_SkipsChunkEntries(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 4

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Title: "big", Payload: []byte("0123456789")})
	require.NoError(t, err)
	_, err = store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(2), Title: "plain"})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetAll_KeepsRecordWithChunkLikeID(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "docs", KeyKind: models.KeyString, HasPayload: true})
	store.chunkSize = 4

	// A server-issued id that happens to look like a chunk key is still
	// a record; only entries whose head record exists are chunks.
	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.StringKey("report_chunk_2"), Title: "quarterly"})
	require.NoError(t, err)
	_, err = store.AddOrUpdate(ctx, &models.Record{ID: models.StringKey("audit"), Title: "big", Payload: []byte("0123456789")})
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	titles := []string{all[0].Title, all[1].Title}
	assert.ElementsMatch(t, []string{"quarterly", "big"}, titles)

	got, err := store.GetByID(ctx, models.StringKey("report_chunk_2"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "quarterly", got.Title)
}

func TestDelete_RemovesChunks(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 4

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(1), Payload: []byte("0123456789")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, &models.Record{ID: models.NumericKey(1)}))

	keys, err := kv.Keys(ctx, "files")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNextNumericKey_IgnoresChunkKeys(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	manager := NewManager(kv, Options{})
	store := manager.Store(models.RecordType{Name: "files", KeyKind: models.KeyNumeric, HasPayload: true})
	store.chunkSize = 4

	_, err := store.AddOrUpdate(ctx, &models.Record{ID: models.NumericKey(-2), Payload: []byte("0123456789")})
	require.NoError(t, err)

	saved, err := store.AddOrUpdate(ctx, &models.Record{Title: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), saved.ID.Num)
}
