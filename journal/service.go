// Package journal is the append-only log of writes made while offline.
// Transactions are totally ordered by id and replayed in that order by
// the sync engine; binary payloads are relocated to a chunked sub-store
// so the metadata table stays small.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/storage"
)

// Table names the journal owns. Both must appear in the declared table
// set the storage engine is opened with.
const (
	TableTransactions = "offline_transactions"
	TablePayloads     = "transaction_payloads"
)

//go:generate moq -out service_mock.go . Service

// Service is the offline transaction journal.
type Service interface {
	// AddOrUpdate appends a transaction, assigning the next id when
	// unset. A pending AddOrUpdate for the same record is superseded:
	// it and its relocated binary are deleted first, collapsing to one
	// pending operation per record.
	AddOrUpdate(ctx context.Context, tx *models.Transaction) error

	// Update rewrites a journaled transaction in place, keeping its id
	// and relocated binary. Used by replay to remap identifiers.
	Update(ctx context.Context, tx *models.Transaction) error

	// Delete removes a transaction and its relocated binary.
	Delete(ctx context.Context, tx *models.Transaction) error

	// GetAll returns all pending transactions in ascending id order,
	// with relocated binaries rehydrated onto the records.
	GetAll(ctx context.Context) ([]*models.Transaction, error)

	// PendingCount returns the number of pending transactions.
	PendingCount(ctx context.Context) (int, error)

	// Clear drops all pending transactions and binaries.
	Clear(ctx context.Context) error
}

type service struct {
	kv       storage.KV
	payloads *storage.Store
	mu       sync.Mutex
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a journal over the manager's transaction metadata
// table and binary sub-store.
func NewService(manager *storage.Manager, logger *slog.Logger) Service {
	return &service{
		kv: manager.KV(),
		payloads: manager.Store(models.RecordType{
			Name:       TablePayloads,
			KeyKind:    models.KeyString,
			HasPayload: true,
		}),
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) AddOrUpdate(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.load(ctx)
	if err != nil {
		return err
	}

	if tx.ID == 0 {
		var maxID int64
		for _, p := range pending {
			if p.ID > maxID {
				maxID = p.ID
			}
		}
		tx.ID = maxID + 1
	}

	if tx.Kind == models.TransactionAddOrUpdate && tx.Record != nil {
		for _, prior := range pending {
			if prior.ID == tx.ID || prior.Kind != models.TransactionAddOrUpdate {
				continue
			}
			if prior.RecordType == tx.RecordType && prior.Record != nil && prior.Record.ID.Equal(tx.Record.ID) {
				s.logger.Debug("superseding pending transaction",
					"prior_id", prior.ID, "record_type", prior.RecordType)
				if err := s.remove(ctx, prior); err != nil {
					return err
				}
			}
		}
	}

	if tx.Record != nil && len(tx.Record.Payload) > 0 {
		key, err := s.relocatePayload(ctx, tx.Record)
		if err != nil {
			return err
		}
		tx.PayloadKey = key
	}

	return s.put(ctx, tx)
}

func (s *service) Update(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, tx)
}

func (s *service) Delete(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, tx)
}

func (s *service) GetAll(ctx context.Context) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, tx := range pending {
		if err := s.rehydrate(ctx, tx); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

func (s *service) PendingCount(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, TableTransactions)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return len(keys), nil
}

func (s *service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx, TableTransactions); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	if err := s.payloads.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear transaction payloads: %w", err)
	}
	return nil
}

// load reads the metadata table without rehydrating binaries.
func (s *service) load(ctx context.Context) ([]*models.Transaction, error) {
	pairs, err := s.kv.GetAll(ctx, TableTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	pending := make([]*models.Transaction, 0, len(pairs))
	for _, pair := range pairs {
		var tx models.Transaction
		if err := json.Unmarshal(pair.Value, &tx); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
		}
		pending = append(pending, &tx)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// put writes the metadata entry. The record's payload never lands in
// the metadata table; once relocated it lives in the sub-store only.
func (s *service) put(ctx context.Context, tx *models.Transaction) error {
	stored := *tx
	if tx.PayloadKey != "" && tx.Record != nil && len(tx.Record.Payload) > 0 {
		rec := tx.Record.Clone()
		rec.Payload = nil
		stored.Record = rec
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if err := s.kv.Put(ctx, TableTransactions, txKey(tx.ID), data); err != nil {
		return fmt.Errorf("failed to write transaction %d: %w", tx.ID, err)
	}
	return nil
}

func (s *service) remove(ctx context.Context, tx *models.Transaction) error {
	if tx.PayloadKey != "" {
		blob := &models.Record{ID: models.StringKey(tx.PayloadKey)}
		if err := s.payloads.Delete(ctx, blob); err != nil {
			return fmt.Errorf("failed to delete transaction payload: %w", err)
		}
	}
	if err := s.kv.Delete(ctx, TableTransactions, txKey(tx.ID)); err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", tx.ID, err)
	}
	return nil
}

// relocatePayload moves the record's binary into the sub-store under a
// timestamp-prefixed key and returns that key.
func (s *service) relocatePayload(ctx context.Context, rec *models.Record) (string, error) {
	suffix := rec.PayloadPath
	if suffix == "" {
		suffix = uuid.NewString()
	}
	key := fmt.Sprintf("%d_%s", s.now().UnixMilli(), suffix)

	blob := &models.Record{
		ID:          models.StringKey(key),
		Title:       rec.Title,
		Payload:     rec.Payload,
		PayloadPath: rec.PayloadPath,
	}
	saved, err := s.payloads.AddOrUpdate(ctx, blob)
	if err != nil {
		return "", err
	}
	if saved.Error != nil {
		return "", fmt.Errorf("failed to relocate payload: %s", saved.Error.Message)
	}
	return key, nil
}

// rehydrate restores a relocated binary and its original addressable
// path onto the journaled record.
func (s *service) rehydrate(ctx context.Context, tx *models.Transaction) error {
	if tx.PayloadKey == "" || tx.Record == nil {
		return nil
	}
	blob, err := s.payloads.GetByID(ctx, models.StringKey(tx.PayloadKey))
	if err != nil {
		return fmt.Errorf("failed to read transaction payload: %w", err)
	}
	if blob == nil {
		s.logger.Warn("transaction payload missing", "transaction_id", tx.ID, "payload_key", tx.PayloadKey)
		return nil
	}
	tx.Record.Payload = blob.Payload
	tx.Record.PayloadPath = blob.PayloadPath
	return nil
}

func txKey(id int64) string {
	return fmt.Sprintf("%020d", id)
}
