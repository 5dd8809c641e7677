package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/offlinekit/listsync/models"
)

// Evaluator filters, orders, and paginates record collections. String
// comparisons are locale-aware; the Now/Today query tokens resolve
// against the evaluator's clock at evaluation time.
type Evaluator struct {
	coll *collate.Collator
	now  func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLanguage sets the collation language for string ordering.
func WithLanguage(tag language.Tag) Option {
	return func(e *Evaluator) {
		e.coll = collate.New(tag)
	}
}

// WithClock overrides the clock used to resolve Now/Today tokens.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator creates an evaluator with undetermined-locale collation
// and the wall clock.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		coll: collate.New(language.Und),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the matching, ordered, paginated subset of records.
// The input slice is never mutated.
func (e *Evaluator) Evaluate(records []*models.Record, q Query) []*models.Record {
	matched := make([]*models.Record, 0, len(records))
	for _, r := range records {
		if q.Test == nil || e.Matches(r, q.Test) {
			matched = append(matched, r)
		}
	}

	if len(q.OrderBy) > 0 {
		e.sortRecords(matched, q.OrderBy)
	}

	if q.LastKey != nil {
		for i, r := range matched {
			if r.ID.Equal(*q.LastKey) {
				matched = matched[i+1:]
				break
			}
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched
}

// Matches evaluates the test tree against one record.
func (e *Evaluator) Matches(r *models.Record, n Node) bool {
	switch node := n.(type) {
	case Predicate:
		return e.matchPredicate(r, node)
	case *Predicate:
		return e.matchPredicate(r, *node)
	case Sequence:
		return e.matchSequence(r, node)
	case *Sequence:
		return e.matchSequence(r, *node)
	}
	return false
}

func (e *Evaluator) matchSequence(r *models.Record, seq Sequence) bool {
	if seq.Op == LogicOr {
		for _, child := range seq.Children {
			if e.Matches(r, child) {
				return true
			}
		}
		return false
	}
	// AND: empty sequence is vacuously true.
	for _, child := range seq.Children {
		if !e.Matches(r, child) {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchPredicate(r *models.Record, p Predicate) bool {
	fv := r.Value(p.Field)

	// A lookup field is tested against its identifier or its display
	// value, depending on the LookupID flag.
	if fv.Kind == models.ValueLookup && fv.Lookup != nil {
		if p.LookupID {
			fv = keyValue(fv.Lookup.ID)
		} else {
			fv = models.Text(fv.Lookup.Value)
		}
	}

	switch p.Op {
	case OpIsNull:
		return fv.IsNull()
	case OpIsNotNull:
		return !fv.IsNull()
	case OpBeginsWith:
		return strings.HasPrefix(textOf(fv), textOf(e.resolve(p.Value)))
	case OpContains:
		return strings.Contains(textOf(fv), textOf(e.resolve(p.Value)))
	case OpEq:
		return e.equal(fv, p.Value, p.DateOnly)
	case OpNeq:
		return !e.equal(fv, p.Value, p.DateOnly)
	case OpGt, OpGeq, OpLt, OpLeq:
		c, ok := e.compare(fv, e.resolve(p.Value), p.DateOnly)
		if !ok {
			return false
		}
		switch p.Op {
		case OpGt:
			return c > 0
		case OpGeq:
			return c >= 0
		case OpLt:
			return c < 0
		default:
			return c <= 0
		}
	case OpIn:
		for _, candidate := range p.Values {
			if e.equal(fv, candidate, p.DateOnly) {
				return true
			}
		}
		return false
	case OpIncludes:
		return e.includes(fv, p.Value, p.DateOnly)
	case OpNotIncludes:
		return !e.includes(fv, p.Value, p.DateOnly)
	}
	return false
}

func (e *Evaluator) includes(fv, target models.Value, dateOnly bool) bool {
	if fv.Kind != models.ValueList {
		return false
	}
	for _, item := range fv.List {
		if item.Kind == models.ValueLookup && item.Lookup != nil {
			if e.equal(keyValue(item.Lookup.ID), target, dateOnly) ||
				e.equal(models.Text(item.Lookup.Value), target, dateOnly) {
				return true
			}
			continue
		}
		if e.equal(item, target, dateOnly) {
			return true
		}
	}
	return false
}

// equal tests predicate equality. A taxonomy field matches its term id,
// its label, or any entry of its integer alias list.
func (e *Evaluator) equal(fv, target models.Value, dateOnly bool) bool {
	target = e.resolve(target)

	if fv.Kind == models.ValueTaxonomy && fv.Taxonomy != nil {
		switch target.Kind {
		case models.ValueNumber:
			for _, wssID := range fv.Taxonomy.WssIDs {
				if float64(wssID) == target.Number {
					return true
				}
			}
			return false
		case models.ValueText:
			return fv.Taxonomy.TermID == target.Text || fv.Taxonomy.Label == target.Text
		default:
			return false
		}
	}

	if fv.IsNull() || target.IsNull() {
		return fv.IsNull() && target.IsNull()
	}
	if fv.Kind != target.Kind {
		return false
	}
	switch fv.Kind {
	case models.ValueText:
		return fv.Text == target.Text
	case models.ValueNumber:
		return fv.Number == target.Number
	case models.ValueBool:
		return fv.Bool == target.Bool
	case models.ValueTime:
		a, b := fv.Time, target.Time
		if dateOnly {
			a, b = startOfDay(a), startOfDay(b)
		}
		return a.Equal(b)
	}
	return false
}

// compare orders two resolved values. The second result is false when
// the values are not mutually orderable.
func (e *Evaluator) compare(a, b models.Value, dateOnly bool) (int, bool) {
	if a.IsNull() || b.IsNull() || a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case models.ValueText:
		return e.coll.CompareString(a.Text, b.Text), true
	case models.ValueNumber:
		switch {
		case a.Number < b.Number:
			return -1, true
		case a.Number > b.Number:
			return 1, true
		}
		return 0, true
	case models.ValueTime:
		at, bt := a.Time, b.Time
		if dateOnly {
			at, bt = startOfDay(at), startOfDay(bt)
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	case models.ValueBool:
		switch {
		case !a.Bool && b.Bool:
			return -1, true
		case a.Bool && !b.Bool:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// resolve replaces the Now/Today tokens with concrete timestamps.
func (e *Evaluator) resolve(v models.Value) models.Value {
	switch v.Kind {
	case models.ValueNow:
		return models.Time(e.now())
	case models.ValueToday:
		return models.Time(startOfDay(e.now()))
	}
	return v
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// textOf renders a value for prefix and substring matching. Values
// without a textual form match nothing.
func textOf(v models.Value) string {
	switch v.Kind {
	case models.ValueText:
		return v.Text
	case models.ValueTaxonomy:
		if v.Taxonomy != nil {
			return v.Taxonomy.Label
		}
	}
	return ""
}

func keyValue(k models.Key) models.Value {
	if k.Kind == models.KeyNumeric {
		return models.Number(float64(k.Num))
	}
	return models.Text(k.Str)
}

// sortRecords orders records by the sort keys, stable, with per-type
// comparison rules: strings collate by locale, dates by timestamp,
// lookups by display value.
func (e *Evaluator) sortRecords(records []*models.Record, keys []SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range keys {
			c := e.compareForSort(sortValue(records[i], key.Field), sortValue(records[j], key.Field))
			if key.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func sortValue(r *models.Record, field string) models.Value {
	v := r.Value(field)
	switch v.Kind {
	case models.ValueLookup:
		if v.Lookup != nil {
			return models.Text(v.Lookup.Value)
		}
		return models.Null()
	case models.ValueTaxonomy:
		if v.Taxonomy != nil {
			return models.Text(v.Taxonomy.Label)
		}
		return models.Null()
	}
	return v
}

// compareForSort is a total order over values: nulls sort first, then
// per-kind rules, then a kind tiebreak for mixed columns.
func (e *Evaluator) compareForSort(a, b models.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	if c, ok := e.compare(a, b, false); ok {
		return c
	}
	return strings.Compare(string(a.Kind), string(b.Kind))
}
