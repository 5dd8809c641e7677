package boltdb

import (
	"context"
	"sync"
)

// Opener shares one physical open between concurrent first users. The
// open (including table reconciliation) runs once for the opener's
// lifetime; every caller gets the same handle or the same error.
type Opener struct {
	path   string
	tables []string
	once   sync.Once
	db     *DB
	err    error
}

// NewOpener prepares a shared open for the given path and declared
// tables. Nothing is opened until the first DB call.
func NewOpener(path string, tables ...string) *Opener {
	return &Opener{path: path, tables: tables}
}

// DB opens the database on first use and returns the shared handle.
func (o *Opener) DB(ctx context.Context) (*DB, error) {
	o.once.Do(func() {
		o.db, o.err = Open(ctx, o.path, o.tables)
	})
	return o.db, o.err
}
