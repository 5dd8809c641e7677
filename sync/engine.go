// Package sync replays the offline transaction journal against the
// remote backend once connectivity returns. Replay is strictly
// sequential by transaction id: a later transaction may have been
// journaled against a synthetic id an earlier one is about to trade for
// a server-issued one.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/offlinekit/listsync/data"
	"github.com/offlinekit/listsync/journal"
	"github.com/offlinekit/listsync/models"
)

// Resolver returns the data service of a record type.
type Resolver func(recordType string) (data.Service, error)

// Events carries the engine's completion callbacks. Nil callbacks are
// skipped.
type Events struct {
	// ItemSynchronized fires after one transaction replays, with the
	// pre-replay and post-replay ids.
	ItemSynchronized func(recordType string, oldID, newID models.Key)

	// Finished fires after the journal is drained, with the
	// accumulated error list.
	Finished func(errs []string)
}

// Engine drains the journal against the remote backend.
type Engine interface {
	// Run replays all pending transactions in ascending id order and
	// returns the human-readable errors encountered. It never fails as
	// a whole; every failure becomes a list entry.
	Run(ctx context.Context) []string
}

type engine struct {
	journal journal.Service
	resolve Resolver
	events  Events
	logger  *slog.Logger
}

// NewEngine creates a synchronization engine.
func NewEngine(j journal.Service, resolve Resolver, events Events, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{journal: j, resolve: resolve, events: events, logger: logger}
}

func (e *engine) Run(ctx context.Context) []string {
	errs := []string{}

	pending, err := e.journal.GetAll(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to read journal: %v", err))
		e.finish(errs)
		return errs
	}

	e.logger.Info("starting journal replay", "pending", len(pending))

	for i, tx := range pending {
		if tx.Record == nil {
			// A transaction with no record cannot be replayed; keep it
			// journaled so the corruption stays visible.
			errs = append(errs, e.format(tx, errors.New("transaction has no record")))
			continue
		}
		svc, err := e.resolve(tx.RecordType)
		if err != nil {
			errs = append(errs, e.format(tx, err))
			continue
		}
		if err := svc.Init(ctx); err != nil {
			errs = append(errs, e.format(tx, err))
			continue
		}

		switch tx.Kind {
		case models.TransactionAddOrUpdate:
			errs = e.replayAddOrUpdate(ctx, svc, tx, pending[i+1:], errs)
		case models.TransactionDelete:
			errs = e.replayDelete(ctx, svc, tx, errs)
		default:
			errs = append(errs, e.format(tx, fmt.Errorf("unknown transaction kind %q", tx.Kind)))
		}
	}

	e.logger.Info("journal replay finished", "errors", len(errs))
	e.finish(errs)
	return errs
}

func (e *engine) replayAddOrUpdate(ctx context.Context, svc data.Service, tx *models.Transaction, rest []*models.Transaction, errs []string) []string {
	oldID := tx.Record.ID
	wasSynthetic := oldID.IsSynthetic()

	saved, err := svc.SyncItem(ctx, tx.Record)
	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			// A conflicted write can never be retried safely; drop it
			// and report.
			if derr := e.journal.Delete(ctx, tx); derr != nil {
				errs = append(errs, e.format(tx, derr))
			}
			return append(errs, e.format(tx, err))
		}
		// Anything else stays journaled for the next run.
		return append(errs, e.format(tx, err))
	}

	if wasSynthetic && !saved.ID.Equal(oldID) {
		// Rewrite every later pending transaction still holding the
		// synthetic id before it gets its turn; otherwise it would
		// target a record the server has never heard of.
		for _, later := range rest {
			if later.RecordType != tx.RecordType || later.Record == nil || !later.Record.ID.Equal(oldID) {
				continue
			}
			later.Record.ID = saved.ID
			later.Record.Version = saved.Version
			if uerr := e.journal.Update(ctx, later); uerr != nil {
				errs = append(errs, e.format(later, uerr))
			}
		}
		if lerr := svc.RewriteLinks(ctx, oldID, saved.ID); lerr != nil {
			errs = append(errs, e.format(tx, lerr))
		}
		e.logger.Debug("remapped synthetic id",
			"record_type", tx.RecordType,
			"old_id", oldID.String(),
			"new_id", saved.ID.String())
	}

	if derr := e.journal.Delete(ctx, tx); derr != nil {
		errs = append(errs, e.format(tx, derr))
	}
	e.emitItem(tx.RecordType, oldID, saved.ID)
	return errs
}

func (e *engine) replayDelete(ctx context.Context, svc data.Service, tx *models.Transaction, errs []string) []string {
	if err := svc.SyncDeleteItem(ctx, tx.Record); err != nil {
		return append(errs, e.format(tx, err))
	}
	if derr := e.journal.Delete(ctx, tx); derr != nil {
		errs = append(errs, e.format(tx, derr))
	}
	e.emitItem(tx.RecordType, tx.Record.ID, tx.Record.ID)
	return errs
}

// format renders one failure for user display: record type, operation,
// title, id, and the underlying message.
func (e *engine) format(tx *models.Transaction, err error) string {
	title, id := "", ""
	if tx.Record != nil {
		title = tx.Record.Title
		id = tx.Record.ID.String()
	}
	return fmt.Sprintf("%s %s %q (id %s): %v", tx.RecordType, tx.Kind, title, id, err)
}

func (e *engine) emitItem(recordType string, oldID, newID models.Key) {
	if e.events.ItemSynchronized != nil {
		e.events.ItemSynchronized(recordType, oldID, newID)
	}
}

func (e *engine) finish(errs []string) {
	if e.events.Finished != nil {
		e.events.Finished(errs)
	}
}
