// Package query evaluates declarative queries against in-memory record
// collections. Evaluation is pure: no I/O, and identical input yields
// identical ordered output whether the records came from the network or
// the local mirror.
package query

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/offlinekit/listsync/models"
)

// Operator is a predicate comparison operator.
type Operator string

const (
	OpBeginsWith  Operator = "begins_with"
	OpContains    Operator = "contains"
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGeq         Operator = "geq"
	OpLt          Operator = "lt"
	OpLeq         Operator = "leq"
	OpIn          Operator = "in"
	OpIncludes    Operator = "includes"
	OpNotIncludes Operator = "not_includes"
	OpIsNull      Operator = "is_null"
	OpIsNotNull   Operator = "is_not_null"
)

// LogicOp combines the children of a sequence node.
type LogicOp string

const (
	LogicAnd LogicOp = "and"
	LogicOr  LogicOp = "or"
)

// Node is one node of the boolean test tree: either a Predicate leaf or
// a Sequence combining children.
type Node interface {
	isNode()
}

// Predicate is a single field test.
type Predicate struct {
	Field string
	Op    Operator

	// Value is the comparison operand; Values is used by OpIn.
	Value  models.Value
	Values []models.Value

	// LookupID targets a lookup field's identifier instead of its
	// display value.
	LookupID bool

	// DateOnly compares timestamps ignoring the time of day.
	DateOnly bool
}

func (Predicate) isNode() {}

// Sequence combines child nodes with AND or OR. Evaluation
// short-circuits; an empty AND sequence is vacuously true, an empty OR
// sequence is false.
type Sequence struct {
	Op       LogicOp
	Children []Node
}

func (Sequence) isNode() {}

// SortKey is one ordering key.
type SortKey struct {
	Field      string
	Descending bool
}

// Query is the declarative query model: a test tree, an ordered list of
// sort keys, and pagination (records strictly after LastKey, at most
// Limit of them).
type Query struct {
	Test    Node
	OrderBy []SortKey
	LastKey *models.Key
	Limit   int
}

// Hash derives a stable operation key for a query, used to deduplicate
// identical in-flight requests.
func Hash(q Query) string {
	data, err := json.Marshal(struct {
		Test    Node
		OrderBy []SortKey
		LastKey *models.Key
		Limit   int
	}{q.Test, q.OrderBy, q.LastKey, q.Limit})
	if err != nil {
		// Queries are plain data; marshaling only fails on NaN-like
		// operands. Fall back to the textual form.
		data = []byte(fmt.Sprintf("%+v", q))
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
