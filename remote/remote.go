// Package remote declares the narrow contracts the engine consumes for
// everything that lives on the other side of the network: fetching and
// writing records, probing connectivity, and field metadata. How the
// generic query model translates to the backend's native query language
// is the collaborator's concern, not the engine's.
package remote

import (
	"context"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
)

//go:generate moq -out collaborator_mock.go . Collaborator

// Fetcher reads records of one record type from the backend. The
// optional linkedFields restrict which lookup fields are expanded.
type Fetcher interface {
	FetchAll(ctx context.Context, linkedFields ...string) ([]*models.Record, error)
	FetchByID(ctx context.Context, id models.Key, linkedFields ...string) (*models.Record, error)
	FetchByIDs(ctx context.Context, ids []models.Key, linkedFields ...string) ([]*models.Record, error)
	FetchByQuery(ctx context.Context, q query.Query, linkedFields ...string) ([]*models.Record, error)
}

// Writer persists records of one record type to the backend.
// CreateOrUpdate and CreateOrUpdateMany return an error wrapping
// models.ErrVersionConflict when the server's stored version is newer
// than the caller's.
type Writer interface {
	CreateOrUpdate(ctx context.Context, item *models.Record) (*models.Record, error)
	CreateOrUpdateMany(ctx context.Context, items []*models.Record) ([]*models.Record, error)
	Delete(ctx context.Context, item *models.Record) (*models.Record, error)
	DeleteMany(ctx context.Context, items []*models.Record) ([]*models.Record, error)
}

// Collaborator is the full per-record-type remote contract.
type Collaborator interface {
	Fetcher
	Writer
}

// Initializer is implemented by collaborators that defer cross-type
// link resolution; the sync engine settles them before replay.
type Initializer interface {
	Init(ctx context.Context) error
}

// LinkRewriter is implemented by collaborators that keep cross-record
// links; replay invokes it after a synthetic id is replaced by a
// server-issued one.
type LinkRewriter interface {
	RewriteLinks(ctx context.Context, oldID, newID models.Key) error
}

// Probe reports whether the remote endpoint is currently reachable.
// Any failure, including a timeout, reads as offline.
type Probe func(ctx context.Context) bool

// FieldProvider returns the declared field descriptors of a record
// type, used to shape remote fetches and writes.
type FieldProvider interface {
	Fields(recordType string) ([]models.FieldDescriptor, error)
}
