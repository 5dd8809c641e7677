// Package data is the per-record-type orchestrator: it decides cache
// freshness and online/offline routing, deduplicates concurrent
// identical requests, and keeps the local mirror consistent with every
// remote round trip. Reads served locally and reads served remotely
// pass through the same query evaluator, so callers cannot tell the two
// sources apart.
package data

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/offlinekit/listsync/journal"
	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
	"github.com/offlinekit/listsync/remote"
	"github.com/offlinekit/listsync/storage"
)

// DefaultBatchSize is how many records one remote batch call carries.
const DefaultBatchSize = 100

//go:generate moq -out service_mock.go . Service

// ItemFunc observes per-item completion of a batch operation.
type ItemFunc func(item *models.Record, err error)

// Service is the data access surface of one record type.
type Service interface {
	// Type returns the record type descriptor.
	Type() models.RecordType

	// Init settles the collaborator's deferred cross-type links. It
	// runs once; subsequent calls return the first result.
	Init(ctx context.Context) error

	// GetAll returns all records, served from the mirror when fresh or
	// offline, refreshed remotely otherwise.
	GetAll(ctx context.Context) ([]*models.Record, error)

	// Get returns the records matching a query, routed like GetAll but
	// tracked per query key.
	Get(ctx context.Context, q query.Query) ([]*models.Record, error)

	// GetByID returns one record, or nil when it does not exist.
	GetByID(ctx context.Context, id models.Key) (*models.Record, error)

	// GetByIDs returns the records with the given ids, in input order.
	GetByIDs(ctx context.Context, ids []models.Key) ([]*models.Record, error)

	// AddOrUpdateItem writes one record: remotely when connected,
	// journaled when not. A version conflict returns the server's
	// authoritative copy with the conflict attached, not an error.
	AddOrUpdateItem(ctx context.Context, item *models.Record) (*models.Record, error)

	// AddOrUpdateItems writes a batch, invoking onItem as each record
	// completes. Item failures are isolated; siblings still complete.
	AddOrUpdateItems(ctx context.Context, items []*models.Record, onItem ItemFunc) ([]*models.Record, error)

	// DeleteItem deletes one record. A record that was never persisted
	// remotely is only marked deleted locally.
	DeleteItem(ctx context.Context, item *models.Record) error

	// DeleteItems deletes a batch with per-item completion callbacks.
	DeleteItems(ctx context.Context, items []*models.Record, onItem ItemFunc) error

	// Refresh clears the type's freshness bookkeeping and loads
	// remotely.
	Refresh(ctx context.Context) ([]*models.Record, error)

	// ClearCache drops the type's freshness bookkeeping without
	// loading; the next read refreshes.
	ClearCache()

	// ExpireID marks one record as needing a remote refresh.
	ExpireID(id models.Key)

	// SyncItem writes through the remote path unconditionally, used by
	// journal replay. Version conflicts propagate as errors here.
	SyncItem(ctx context.Context, item *models.Record) (*models.Record, error)

	// SyncDeleteItem deletes through the remote path unconditionally.
	SyncDeleteItem(ctx context.Context, item *models.Record) error

	// RewriteLinks forwards a synthetic-to-server id replacement to the
	// collaborator's cross-record link rewriting, when it has any.
	RewriteLinks(ctx context.Context, oldID, newID models.Key) error
}

// Options configures a data service. Freshness and Flight are shared
// across services; nil values get private instances.
type Options struct {
	Probe        remote.Probe
	Freshness    *Freshness
	Flight       *singleflight.Group
	Journal      journal.Service
	Evaluator    *query.Evaluator
	Logger       *slog.Logger
	BatchSize    int
	LinkedFields []string
}

type service struct {
	typ       models.RecordType
	store     *storage.Store
	remote    remote.Collaborator
	probe     remote.Probe
	fresh     *Freshness
	flight    *singleflight.Group
	journal   journal.Service
	eval      *query.Evaluator
	logger    *slog.Logger
	batchSize int
	linked    []string

	initOnce sync.Once
	initErr  error
}

// NewService creates the data service of one record type.
func NewService(store *storage.Store, collaborator remote.Collaborator, opts Options) Service {
	s := &service{
		typ:       store.Type(),
		store:     store,
		remote:    collaborator,
		probe:     opts.Probe,
		fresh:     opts.Freshness,
		flight:    opts.Flight,
		journal:   opts.Journal,
		eval:      opts.Evaluator,
		logger:    opts.Logger,
		batchSize: opts.BatchSize,
		linked:    opts.LinkedFields,
	}
	if s.fresh == nil {
		s.fresh = NewFreshness()
	}
	if s.flight == nil {
		s.flight = &singleflight.Group{}
	}
	if s.eval == nil {
		s.eval = query.NewEvaluator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("record_type", s.typ.Name)
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	return s
}

func (s *service) Type() models.RecordType {
	return s.typ
}

func (s *service) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		if init, ok := s.remote.(remote.Initializer); ok {
			s.initErr = init.Init(ctx)
		}
	})
	return s.initErr
}

func (s *service) GetAll(ctx context.Context) ([]*models.Record, error) {
	v, err, _ := s.flight.Do(s.opKey("getAll", ""), func() (any, error) {
		return s.loadAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Record), nil
}

func (s *service) loadAll(ctx context.Context) ([]*models.Record, error) {
	if !s.fresh.IsStale(s.typ.Name, "", s.typ.CacheMinutes) || !s.online(ctx) {
		return s.store.GetAll(ctx)
	}

	items, err := s.remote.FetchAll(ctx, s.linked...)
	if err != nil {
		// A forced refresh does not silently serve the stale mirror.
		return nil, err
	}
	if _, err := s.store.ReplaceAll(ctx, stripped(items)); err != nil {
		return nil, err
	}
	s.fresh.MarkLoaded(s.typ.Name, "")
	s.logger.Debug("mirror refreshed", "count", len(items))
	return items, nil
}

func (s *service) Get(ctx context.Context, q query.Query) ([]*models.Record, error) {
	opKey := query.Hash(q)
	v, err, _ := s.flight.Do(s.opKey("get", opKey), func() (any, error) {
		return s.loadQuery(ctx, q, opKey)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Record), nil
}

func (s *service) loadQuery(ctx context.Context, q query.Query, opKey string) ([]*models.Record, error) {
	if !s.fresh.IsStale(s.typ.Name, opKey, s.typ.CacheMinutes) || !s.online(ctx) {
		return s.store.Get(ctx, q)
	}

	items, err := s.remote.FetchByQuery(ctx, q, s.linked...)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.AddOrUpdateMany(ctx, stripped(items)); err != nil {
		return nil, err
	}
	s.fresh.MarkLoaded(s.typ.Name, opKey)
	// The backend already filtered; evaluating again guarantees the
	// result is identical to a mirror-served read.
	return s.eval.Evaluate(items, q), nil
}

func (s *service) GetByID(ctx context.Context, id models.Key) (*models.Record, error) {
	v, err, _ := s.flight.Do(s.opKey("getById", id.String()), func() (any, error) {
		return s.loadByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Record), nil
}

func (s *service) loadByID(ctx context.Context, id models.Key) (*models.Record, error) {
	// Synthetic ids exist only locally.
	if id.IsSynthetic() {
		return s.store.GetByID(ctx, id)
	}

	stale := s.fresh.IsStale(s.typ.Name, "", s.typ.CacheMinutes) || s.fresh.IsExpired(s.typ.Name, id)
	if !stale || !s.online(ctx) {
		return s.store.GetByID(ctx, id)
	}

	item, err := s.remote.FetchByID(ctx, id, s.linked...)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if _, err := s.store.AddOrUpdate(ctx, strip(item)); err != nil {
		return nil, err
	}
	s.fresh.ClearExpired(s.typ.Name, id)
	return item, nil
}

func (s *service) GetByIDs(ctx context.Context, ids []models.Key) ([]*models.Record, error) {
	v, err, _ := s.flight.Do(s.opKey("getByIds", idsKey(ids)), func() (any, error) {
		return s.loadByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Record), nil
}

func (s *service) loadByIDs(ctx context.Context, ids []models.Key) ([]*models.Record, error) {
	var local, fetchable []models.Key
	for _, id := range ids {
		if id.IsSynthetic() {
			local = append(local, id)
		} else {
			fetchable = append(fetchable, id)
		}
	}

	byID := make(map[string]*models.Record, len(ids))

	stale := s.fresh.IsStale(s.typ.Name, "", s.typ.CacheMinutes)
	if len(fetchable) > 0 && stale && s.online(ctx) {
		for _, chunk := range chunks(fetchable, s.batchSize) {
			items, err := s.remote.FetchByIDs(ctx, chunk, s.linked...)
			if err != nil {
				return nil, err
			}
			if _, err := s.store.AddOrUpdateMany(ctx, stripped(items)); err != nil {
				return nil, err
			}
			for _, item := range items {
				byID[item.ID.String()] = item
				s.fresh.ClearExpired(s.typ.Name, item.ID)
			}
		}
		fetchable = nil
	}

	for _, id := range append(fetchable, local...) {
		item, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			byID[id.String()] = item
		}
	}

	out := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id.String()]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *service) AddOrUpdateItem(ctx context.Context, item *models.Record) (*models.Record, error) {
	if !s.online(ctx) {
		return s.addOrUpdateOffline(ctx, item)
	}

	saved, err := s.remote.CreateOrUpdate(ctx, item)
	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			return s.reconcileConflict(ctx, item, err)
		}
		return nil, err
	}
	if _, err := s.store.AddOrUpdate(ctx, strip(saved)); err != nil {
		return nil, err
	}
	s.fresh.ClearExpired(s.typ.Name, saved.ID)
	return saved, nil
}

// reconcileConflict refetches the authoritative record, mirrors it, and
// returns it with the conflict attached so the caller can reconcile.
func (s *service) reconcileConflict(ctx context.Context, item *models.Record, conflict error) (*models.Record, error) {
	s.logger.Warn("version conflict", "id", item.ID.String())

	authoritative, err := s.remote.FetchByID(ctx, item.ID, s.linked...)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch after version conflict: %w", err)
	}
	if authoritative == nil {
		return nil, conflict
	}
	if _, err := s.store.AddOrUpdate(ctx, strip(authoritative)); err != nil {
		return nil, err
	}
	authoritative.Error = models.NewRecordError(models.ErrKindVersionConflict, conflict)
	return authoritative, nil
}

func (s *service) addOrUpdateOffline(ctx context.Context, item *models.Record) (*models.Record, error) {
	saved, err := s.store.AddOrUpdate(ctx, item)
	if err != nil {
		return nil, err
	}
	if saved.Error != nil {
		return saved, nil
	}

	tx := &models.Transaction{
		Kind:       models.TransactionAddOrUpdate,
		RecordType: s.typ.Name,
		Record:     saved.Clone(),
	}
	if err := s.journal.AddOrUpdate(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to journal offline write: %w", err)
	}
	s.logger.Debug("journaled offline write", "id", saved.ID.String())
	return saved, nil
}

func (s *service) AddOrUpdateItems(ctx context.Context, items []*models.Record, onItem ItemFunc) ([]*models.Record, error) {
	out := make([]*models.Record, 0, len(items))

	if !s.online(ctx) {
		for _, item := range items {
			saved, err := s.addOrUpdateOffline(ctx, item)
			notify(onItem, saved, err)
			if err != nil {
				return out, err
			}
			out = append(out, saved)
		}
		return out, nil
	}

	for _, chunk := range chunks(items, s.batchSize) {
		saved, err := s.remote.CreateOrUpdateMany(ctx, chunk)
		if err != nil {
			// Retry the chunk item by item so one bad record does not
			// sink its siblings.
			for _, item := range chunk {
				one, ierr := s.AddOrUpdateItem(ctx, item)
				if ierr != nil {
					item.Error = models.NewRecordError(models.ErrKindTransport, ierr)
					notify(onItem, item, ierr)
					out = append(out, item)
					continue
				}
				notify(onItem, one, nil)
				out = append(out, one)
			}
			continue
		}

		if _, err := s.store.AddOrUpdateMany(ctx, stripped(saved)); err != nil {
			return out, err
		}
		for _, one := range saved {
			s.fresh.ClearExpired(s.typ.Name, one.ID)
			notify(onItem, one, nil)
			out = append(out, one)
		}
	}
	return out, nil
}

func (s *service) DeleteItem(ctx context.Context, item *models.Record) error {
	// A record the server never saw needs no remote call: mark it
	// deleted and drop the pending create so replay cannot resurrect
	// it.
	if item.ID.IsSynthetic() {
		item.Deleted = true
		if _, err := s.store.AddOrUpdate(ctx, item); err != nil {
			return err
		}
		return s.dropPending(ctx, item.ID)
	}

	if s.online(ctx) {
		if _, err := s.remote.Delete(ctx, item); err != nil {
			return err
		}
		return s.store.Delete(ctx, item)
	}

	if err := s.store.Delete(ctx, item); err != nil {
		return err
	}
	tx := &models.Transaction{
		Kind:       models.TransactionDelete,
		RecordType: s.typ.Name,
		Record:     item.Clone(),
	}
	return s.journal.AddOrUpdate(ctx, tx)
}

func (s *service) DeleteItems(ctx context.Context, items []*models.Record, onItem ItemFunc) error {
	var remoteEligible []*models.Record
	for _, item := range items {
		if item.ID.IsSynthetic() {
			err := s.DeleteItem(ctx, item)
			notify(onItem, item, err)
			if err != nil {
				return err
			}
			continue
		}
		remoteEligible = append(remoteEligible, item)
	}

	if len(remoteEligible) == 0 {
		return nil
	}

	if !s.online(ctx) {
		for _, item := range remoteEligible {
			err := s.DeleteItem(ctx, item)
			notify(onItem, item, err)
			if err != nil {
				return err
			}
		}
		return nil
	}

	for _, chunk := range chunks(remoteEligible, s.batchSize) {
		if _, err := s.remote.DeleteMany(ctx, chunk); err != nil {
			for _, item := range chunk {
				ierr := s.DeleteItem(ctx, item)
				notify(onItem, item, ierr)
			}
			continue
		}
		if err := s.store.DeleteMany(ctx, chunk); err != nil {
			return err
		}
		for _, item := range chunk {
			notify(onItem, item, nil)
		}
	}
	return nil
}

func (s *service) Refresh(ctx context.Context) ([]*models.Record, error) {
	s.fresh.Clear(s.typ.Name)
	return s.GetAll(ctx)
}

func (s *service) ClearCache() {
	s.fresh.Clear(s.typ.Name)
}

func (s *service) ExpireID(id models.Key) {
	s.fresh.ExpireID(s.typ.Name, id)
}

func (s *service) SyncItem(ctx context.Context, item *models.Record) (*models.Record, error) {
	saved, err := s.remote.CreateOrUpdate(ctx, item)
	if err != nil {
		return nil, err
	}

	// The synthetic entry is replaced, not kept beside the server copy.
	if !item.ID.Equal(saved.ID) {
		if err := s.store.Delete(ctx, &models.Record{ID: item.ID}); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.AddOrUpdate(ctx, strip(saved)); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) SyncDeleteItem(ctx context.Context, item *models.Record) error {
	if _, err := s.remote.Delete(ctx, item); err != nil {
		return err
	}
	return s.store.Delete(ctx, item)
}

func (s *service) RewriteLinks(ctx context.Context, oldID, newID models.Key) error {
	if rewriter, ok := s.remote.(remote.LinkRewriter); ok {
		return rewriter.RewriteLinks(ctx, oldID, newID)
	}
	return nil
}

// dropPending removes journaled transactions targeting an id.
func (s *service) dropPending(ctx context.Context, id models.Key) error {
	pending, err := s.journal.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, tx := range pending {
		if tx.RecordType == s.typ.Name && tx.Record != nil && tx.Record.ID.Equal(id) {
			if err := s.journal.Delete(ctx, tx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) online(ctx context.Context) bool {
	if s.probe == nil {
		return true
	}
	return s.probe(ctx)
}

// idsKey derives a stable operation key from an id list, so identical
// concurrent batch reads share one round trip.
func idsKey(ids []models.Key) string {
	h := fnv.New64a()
	for _, id := range ids {
		_, _ = h.Write([]byte(id.String()))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *service) opKey(op, arg string) string {
	if arg == "" {
		return s.typ.Name + "|" + op
	}
	return s.typ.Name + "|" + op + "|" + arg
}

// strip returns a mirror-ready copy with derived state removed.
func strip(item *models.Record) *models.Record {
	clone := item.Clone()
	clone.Error = nil
	return clone
}

func stripped(items []*models.Record) []*models.Record {
	out := make([]*models.Record, 0, len(items))
	for _, item := range items {
		out = append(out, strip(item))
	}
	return out
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

func notify(onItem ItemFunc, item *models.Record, err error) {
	if onItem != nil {
		onItem(item, err)
	}
}
