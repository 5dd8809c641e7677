package storage

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
)

// Manager owns the process-scoped pieces every Store shares: the
// persistent engine handle, the bounded-concurrency gate in front of
// it, and the mutual-exclusion lock serializing synthetic key
// allocation. There is one Manager per opened database; it has no
// implicit teardown beyond Close.
type Manager struct {
	kv      KV
	gate    *semaphore.Weighted
	eval    *query.Evaluator
	allocMu sync.Mutex
	logger  *slog.Logger
}

// Options configures a Manager.
type Options struct {
	// MaxConcurrent caps the number of simultaneous physical store
	// transactions. Zero or negative means unlimited.
	MaxConcurrent int64

	// Evaluator is used by Store.Get; defaults to a fresh evaluator
	// with undetermined-locale collation.
	Evaluator *query.Evaluator

	Logger *slog.Logger
}

// NewManager creates a manager over an opened KV engine.
func NewManager(kv KV, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	eval := opts.Evaluator
	if eval == nil {
		eval = query.NewEvaluator()
	}
	m := &Manager{kv: kv, eval: eval, logger: logger}
	if opts.MaxConcurrent > 0 {
		m.gate = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return m
}

// Store returns the per-record-type store for a type descriptor.
func (m *Manager) Store(typ models.RecordType) *Store {
	return &Store{
		typ:       typ,
		manager:   m,
		chunkSize: ChunkSize,
		logger:    m.logger.With("table", typ.Name),
	}
}

// KV exposes the underlying table primitive for components that manage
// raw entries, such as the transaction journal's metadata table.
func (m *Manager) KV() KV {
	return m.kv
}

// Close closes the underlying engine.
func (m *Manager) Close() error {
	return m.kv.Close()
}

// acquire takes a token from the gate. The returned release function
// must run on every exit path so a failed operation never starves the
// engine permanently.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if m.gate == nil {
		return func() {}, nil
	}
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { m.gate.Release(1) }, nil
}
