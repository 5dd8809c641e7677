package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/storage"
	"github.com/offlinekit/listsync/storage/boltdb"
)

func newTestJournal(t *testing.T) (Service, storage.KV) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := boltdb.Open(context.Background(), dbPath, []string{TableTransactions, TablePayloads})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	manager := storage.NewManager(db, storage.Options{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(manager, logger), db
}

func addTx(t *testing.T, j Service, kind models.TransactionKind, recordType string, rec *models.Record) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{Kind: kind, RecordType: recordType, Record: rec}
	require.NoError(t, j.AddOrUpdate(context.Background(), tx))
	return tx
}

func TestAddOrUpdate_AssignsAscendingIDs(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)

	first := addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "a"})
	second := addTx(t, j, models.TransactionAddOrUpdate, "docs", &models.Record{ID: models.NumericKey(-2), Title: "b"})
	third := addTx(t, j, models.TransactionDelete, "tasks", &models.Record{ID: models.NumericKey(5), Title: "c"})

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(3), third.ID)

	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, tx := range pending {
		assert.Equal(t, int64(i+1), tx.ID)
	}
}

func TestAddOrUpdate_SupersedesPendingWriteForSameRecord(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)

	addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "draft"})
	addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "final"})

	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "final", pending[0].Record.Title)
	assert.Equal(t, int64(2), pending[0].ID)
}

func TestAddOrUpdate_DoesNotSupersedeOtherRecordsOrKinds(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)

	// Same id in another record type, a delete for the same record, and
	// an unrelated record must all survive.
	addTx(t, j, models.TransactionAddOrUpdate, "docs", &models.Record{ID: models.NumericKey(-2), Title: "doc"})
	addTx(t, j, models.TransactionDelete, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "gone"})
	addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-3), Title: "other"})
	addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "mine"})

	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 4)
}

func TestAddOrUpdate_RelocatesPayload(t *testing.T) {
	ctx := context.Background()
	j, kv := newTestJournal(t)

	payload := []byte("binary body")
	tx := addTx(t, j, models.TransactionAddOrUpdate, "files", &models.Record{
		ID:          models.NumericKey(-2),
		Title:       "attachment",
		Payload:     payload,
		PayloadPath: "docs/attachment.bin",
	})
	require.NotEmpty(t, tx.PayloadKey)

	// The metadata entry must not carry the payload bytes.
	raw, err := kv.Get(ctx, TableTransactions, fmt.Sprintf("%020d", tx.ID))
	require.NoError(t, err)
	var stored models.Transaction
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Empty(t, stored.Record.Payload)
	assert.Equal(t, tx.PayloadKey, stored.PayloadKey)

	// GetAll rehydrates the payload and its path.
	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, payload, pending[0].Record.Payload)
	assert.Equal(t, "docs/attachment.bin", pending[0].Record.PayloadPath)
}

func TestDelete_RemovesRelocatedPayload(t *testing.T) {
	ctx := context.Background()
	j, kv := newTestJournal(t)

	tx := addTx(t, j, models.TransactionAddOrUpdate, "files", &models.Record{
		ID:      models.NumericKey(-2),
		Payload: []byte("body"),
	})

	require.NoError(t, j.Delete(ctx, tx))

	count, err := j.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	keys, err := kv.Keys(ctx, TablePayloads)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSupersede_DeletesPriorPayload(t *testing.T) {
	ctx := context.Background()
	j, kv := newTestJournal(t)

	addTx(t, j, models.TransactionAddOrUpdate, "files", &models.Record{
		ID:      models.NumericKey(-2),
		Payload: []byte("v1"),
	})
	addTx(t, j, models.TransactionAddOrUpdate, "files", &models.Record{
		ID:      models.NumericKey(-2),
		Payload: []byte("v2"),
	})

	keys, err := kv.Keys(ctx, TablePayloads)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, []byte("v2"), pending[0].Record.Payload)
}

func TestUpdate_KeepsIDAndRewritesRecord(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)

	tx := addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2), Title: "a"})

	// Remap the way journal replay does after the server issues an id.
	tx.Record.ID = models.NumericKey(451)
	tx.Record.Version = "1"
	require.NoError(t, j.Update(ctx, tx))

	pending, err := j.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, tx.ID, pending[0].ID)
	assert.Equal(t, int64(451), pending[0].Record.ID.Num)
	assert.Equal(t, "1", pending[0].Record.Version)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t)

	addTx(t, j, models.TransactionAddOrUpdate, "tasks", &models.Record{ID: models.NumericKey(-2)})
	addTx(t, j, models.TransactionAddOrUpdate, "files", &models.Record{ID: models.NumericKey(-2), Payload: []byte("b")})

	require.NoError(t, j.Clear(ctx))

	count, err := j.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
