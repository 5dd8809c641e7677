package data

import (
	"sync"
	"time"

	"github.com/offlinekit/listsync/models"
)

// Freshness is the session-scoped cache bookkeeping: the last
// successful remote load per record type (and optionally per query
// key), plus per-id expiry marks. It lives for the process lifetime and
// is shared by every data service; its key space is separate from the
// record tables so freshness writes never race data writes.
type Freshness struct {
	mu      sync.Mutex
	loads   map[string]time.Time
	expired map[string]bool
	now     func() time.Time
}

// NewFreshness creates an empty freshness ledger.
func NewFreshness() *Freshness {
	return &Freshness{
		loads:   make(map[string]time.Time),
		expired: make(map[string]bool),
		now:     time.Now,
	}
}

// MarkLoaded records a successful remote load for a type, or for one
// query key within the type when opKey is non-empty.
func (f *Freshness) MarkLoaded(recordType, opKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[loadKey(recordType, opKey)] = f.now()
}

// IsStale reports whether the mirror is too old to serve. A cache
// duration of -1 (or any non-positive value) means no caching: every
// read is stale.
func (f *Freshness) IsStale(recordType, opKey string, cacheMinutes int) bool {
	if cacheMinutes <= 0 {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	loaded, ok := f.loads[loadKey(recordType, opKey)]
	if !ok {
		return true
	}
	return f.now().Sub(loaded) >= time.Duration(cacheMinutes)*time.Minute
}

// ExpireID marks one record as needing a remote refresh regardless of
// the type-level freshness.
func (f *Freshness) ExpireID(recordType string, id models.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[idKey(recordType, id)] = true
}

// IsExpired reports whether the record carries an expiry mark.
func (f *Freshness) IsExpired(recordType string, id models.Key) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired[idKey(recordType, id)]
}

// ClearExpired removes a record's expiry mark after a successful remote
// round trip.
func (f *Freshness) ClearExpired(recordType string, id models.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.expired, idKey(recordType, id))
}

// Clear drops all freshness bookkeeping of a record type, forcing the
// next read to refresh.
func (f *Freshness) Clear(recordType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.loads {
		if key == recordType || len(key) > len(recordType) && key[:len(recordType)+1] == recordType+"|" {
			delete(f.loads, key)
		}
	}
	for key := range f.expired {
		if len(key) > len(recordType) && key[:len(recordType)+1] == recordType+"|" {
			delete(f.expired, key)
		}
	}
}

func loadKey(recordType, opKey string) string {
	if opKey == "" {
		return recordType
	}
	return recordType + "|" + opKey
}

func idKey(recordType string, id models.Key) string {
	return recordType + "|id|" + id.String()
}
