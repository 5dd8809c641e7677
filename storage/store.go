package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
)

// ChunkSize is the threshold and slice size for chunked binary
// payloads. A payload of ChunkSize bytes or more is split into
// sequential chunk entries keyed "<id>_chunk_<n>".
const ChunkSize = 10 << 20

const chunkInfix = "_chunk_"

// entry is the serialized, storage-ready form of a record. Derived
// state (the attached error) is stripped; the payload moves out to
// chunk entries when it crosses ChunkSize.
type entry struct {
	ID          models.Key              `json:"id"`
	Title       string                  `json:"title"`
	Version     string                  `json:"version,omitempty"`
	Deleted     bool                    `json:"deleted,omitempty"`
	Fields      map[string]models.Value `json:"fields,omitempty"`
	Payload     []byte                  `json:"payload,omitempty"`
	PayloadPath string                  `json:"payloadPath,omitempty"`
	Chunks      int                     `json:"chunks,omitempty"`
}

// Store is the keyed persistent store of one record type. All
// operations pass through the manager's concurrency gate; synthetic key
// allocation is serialized by the manager's allocation lock so two
// concurrent creates never receive the same id.
type Store struct {
	typ       models.RecordType
	manager   *Manager
	chunkSize int
	logger    *slog.Logger
}

// Type returns the record type descriptor of the store.
func (s *Store) Type() models.RecordType {
	return s.typ
}

// GetAll returns every record of the store.
func (s *Store) GetAll(ctx context.Context) ([]*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.getAll(ctx)
}

// Get returns the subset of the store matching a declarative query,
// evaluated exactly as it would be against remotely fetched records.
func (s *Store) Get(ctx context.Context, q query.Query) ([]*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.manager.eval.Evaluate(records, q), nil
}

// GetByID returns the record stored under id, or nil when nothing is
// stored there. A missing record is a benign result, not an error.
func (s *Store) GetByID(ctx context.Context, id models.Key) (*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.getByID(ctx, id)
}

// GetByIDs returns the records stored under the given ids, skipping
// missing ones.
func (s *Store) GetByIDs(ctx context.Context, ids []models.Key) ([]*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// AddOrUpdate stores a record, allocating a synthetic id when the
// record's key is unset. Storage failures are captured onto the
// record's Error field instead of returned.
func (s *Store) AddOrUpdate(ctx context.Context, item *models.Record) (*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.addOrUpdate(ctx, item)
}

// AddOrUpdateMany stores records one by one; per-record storage
// failures are captured on the individual records.
func (s *Store) AddOrUpdateMany(ctx context.Context, items []*models.Record) ([]*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]*models.Record, 0, len(items))
	for _, item := range items {
		saved, err := s.addOrUpdate(ctx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// Delete removes a record and its chunk entries. Unlike writes, delete
// failures propagate.
func (s *Store) Delete(ctx context.Context, item *models.Record) error {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.delete(ctx, item.ID)
}

// DeleteMany removes records; the first failure propagates.
func (s *Store) DeleteMany(ctx context.Context, items []*models.Record) error {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	for _, item := range items {
		if err := s.delete(ctx, item.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll clears the store and writes the given records, used when a
// full remote load replaces the mirror.
func (s *Store) ReplaceAll(ctx context.Context, items []*models.Record) ([]*models.Record, error) {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.manager.kv.Clear(ctx, s.typ.Name); err != nil {
		return nil, fmt.Errorf("failed to clear table %s: %w", s.typ.Name, err)
	}
	out := make([]*models.Record, 0, len(items))
	for _, item := range items {
		saved, err := s.addOrUpdate(ctx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// Clear removes every record of the store.
func (s *Store) Clear(ctx context.Context) error {
	release, err := s.manager.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.manager.kv.Clear(ctx, s.typ.Name)
}

func (s *Store) getAll(ctx context.Context) ([]*models.Record, error) {
	pairs, err := s.manager.kv.GetAll(ctx, s.typ.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", s.typ.Name, err)
	}

	heads := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		heads[pair.Key] = true
	}

	var records []*models.Record
	for _, pair := range pairs {
		// A chunk entry is only a chunk when its head entry exists;
		// a server-issued id that merely looks like one is a record.
		if head := chunkHead(pair.Key); head != "" && heads[head] {
			continue
		}
		rec, err := s.decode(ctx, pair.Value)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) getByID(ctx context.Context, id models.Key) (*models.Record, error) {
	data, err := s.manager.kv.Get(ctx, s.typ.Name, id.String())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", s.typ.Name, id, err)
	}
	return s.decode(ctx, data)
}

func (s *Store) addOrUpdate(ctx context.Context, item *models.Record) (*models.Record, error) {
	var err error
	if item.ID.IsZero() && s.typ.KeyKind == models.KeyNumeric {
		// The reserving write happens under the allocation lock, so a
		// concurrent create scans only after this id is taken.
		s.manager.allocMu.Lock()
		item.ID, err = s.nextNumericKey(ctx)
		if err != nil {
			s.manager.allocMu.Unlock()
			return nil, err
		}
		err = s.write(ctx, item)
		s.manager.allocMu.Unlock()
	} else {
		if item.ID.IsZero() {
			item.ID = models.StringKey(models.SyntheticPrefix + uuid.NewString())
		}
		err = s.write(ctx, item)
	}

	if err != nil {
		// Captured, not thrown: the caller inspects the record.
		item.Error = models.NewRecordError(models.ErrKindStorageFailure, err)
		s.logger.Warn("write failed", "id", item.ID.String(), "error", err)
		return item, nil
	}
	item.Error = nil
	return item, nil
}

func (s *Store) write(ctx context.Context, item *models.Record) error {
	ent := &entry{
		ID:          item.ID,
		Title:       item.Title,
		Version:     item.Version,
		Deleted:     item.Deleted,
		Fields:      item.Fields,
		Payload:     item.Payload,
		PayloadPath: item.PayloadPath,
	}
	key := item.ID.String()

	if s.typ.HasPayload {
		// Stale chunks from a previous oversized payload must never
		// survive a rewrite.
		if err := s.deleteChunks(ctx, key); err != nil {
			return err
		}
		if len(item.Payload) >= s.chunkSize {
			n := 0
			for off := 0; off < len(item.Payload); off += s.chunkSize {
				end := off + s.chunkSize
				if end > len(item.Payload) {
					end = len(item.Payload)
				}
				n++
				if err := s.manager.kv.Put(ctx, s.typ.Name, chunkKey(key, n), item.Payload[off:end]); err != nil {
					return fmt.Errorf("failed to write chunk %d of %s: %w", n, key, err)
				}
			}
			ent.Payload = nil
			ent.Chunks = n
		}
	}

	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.manager.kv.Put(ctx, s.typ.Name, key, data); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", s.typ.Name, key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, id models.Key) error {
	key := id.String()
	if s.typ.HasPayload {
		if err := s.deleteChunks(ctx, key); err != nil {
			return err
		}
	}
	if err := s.manager.kv.Delete(ctx, s.typ.Name, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", s.typ.Name, key, err)
	}
	return nil
}

// decode turns a head entry back into a record, reassembling chunked
// payloads by ascending chunk number. Chunking is invisible to callers.
func (s *Store) decode(ctx context.Context, data []byte) (*models.Record, error) {
	var ent entry
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	rec := &models.Record{
		ID:          ent.ID,
		Title:       ent.Title,
		Version:     ent.Version,
		Deleted:     ent.Deleted,
		Fields:      ent.Fields,
		Payload:     ent.Payload,
		PayloadPath: ent.PayloadPath,
	}

	if ent.Chunks > 0 {
		key := ent.ID.String()
		payload := make([]byte, 0, ent.Chunks*s.chunkSize)
		for n := 1; n <= ent.Chunks; n++ {
			chunk, err := s.manager.kv.Get(ctx, s.typ.Name, chunkKey(key, n))
			if err != nil {
				return nil, fmt.Errorf("failed to read chunk %d of %s: %w", n, key, err)
			}
			payload = append(payload, chunk...)
		}
		rec.Payload = payload
	}
	return rec, nil
}

// nextNumericKey computes the next synthetic numeric id: one below the
// current minimum key, never above -2. Callers hold the allocation
// lock.
func (s *Store) nextNumericKey(ctx context.Context) (models.Key, error) {
	keys, err := s.manager.kv.Keys(ctx, s.typ.Name)
	if err != nil {
		return models.Key{}, fmt.Errorf("failed to list keys of %s: %w", s.typ.Name, err)
	}
	minKey := int64(0)
	for _, key := range keys {
		if chunkHead(key) != "" {
			continue
		}
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if n < minKey {
			minKey = n
		}
	}
	id := minKey - 1
	if id > -2 {
		id = -2
	}
	return models.NumericKey(id), nil
}

// deleteChunks removes every chunk entry belonging to a head id,
// including orphans left behind by an interrupted write.
func (s *Store) deleteChunks(ctx context.Context, id string) error {
	keys, err := s.manager.kv.Keys(ctx, s.typ.Name)
	if err != nil {
		return fmt.Errorf("failed to list keys of %s: %w", s.typ.Name, err)
	}
	for _, key := range keys {
		if chunkHead(key) != id {
			continue
		}
		if err := s.manager.kv.Delete(ctx, s.typ.Name, key); err != nil {
			return fmt.Errorf("failed to delete chunk %s: %w", key, err)
		}
	}
	return nil
}

func chunkKey(id string, n int) string {
	return fmt.Sprintf("%s%s%d", id, chunkInfix, n)
}

// chunkHead returns the head id of a key with the exact
// "<id>_chunk_<n>" shape, or "" for anything else.
func chunkHead(key string) string {
	i := strings.LastIndex(key, chunkInfix)
	if i <= 0 {
		return ""
	}
	suffix := key[i+len(chunkInfix):]
	if suffix == "" {
		return ""
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return key[:i]
}
