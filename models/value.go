package models

import "time"

// ValueKind discriminates the typed field values a record may carry.
type ValueKind string

const (
	ValueNull     ValueKind = "null"
	ValueText     ValueKind = "text"
	ValueNumber   ValueKind = "number"
	ValueBool     ValueKind = "bool"
	ValueTime     ValueKind = "time"
	ValueLookup   ValueKind = "lookup"
	ValueTaxonomy ValueKind = "taxonomy"
	ValueList     ValueKind = "list"

	// ValueNow and ValueToday are placeholder tokens that only appear
	// inside query predicates. They resolve against the evaluator's
	// clock at evaluation time, not at query construction time.
	// ValueToday resolves to the start of the current day.
	ValueNow   ValueKind = "now"
	ValueToday ValueKind = "today"
)

// Lookup is a link to another record: its identifier plus the display
// value shown for the link.
type Lookup struct {
	ID    Key    `json:"id"`
	Value string `json:"value"`
}

// Taxonomy is a managed-term field value. TermID is the primary
// identifier; WssIDs is the secondary integer alias list a predicate
// may also match against.
type Taxonomy struct {
	TermID string `json:"termId"`
	Label  string `json:"label"`
	WssIDs []int  `json:"wssIds,omitempty"`
}

// Value is a tagged field value. Exactly the slot named by Kind is
// meaningful; the rest stay zero so values survive a JSON round trip
// through the local store without losing their type.
type Value struct {
	Kind     ValueKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Number   float64   `json:"number,omitempty"`
	Bool     bool      `json:"bool,omitempty"`
	Time     time.Time `json:"time,omitzero"`
	Lookup   *Lookup   `json:"lookup,omitempty"`
	Taxonomy *Taxonomy `json:"taxonomy,omitempty"`
	List     []Value   `json:"list,omitempty"`
}

// Null returns the null value.
func Null() Value { return Value{Kind: ValueNull} }

// Text builds a text value.
func Text(s string) Value { return Value{Kind: ValueText, Text: s} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Time builds a timestamp value.
func Time(t time.Time) Value { return Value{Kind: ValueTime, Time: t} }

// LookupValue builds a link value.
func LookupValue(id Key, display string) Value {
	return Value{Kind: ValueLookup, Lookup: &Lookup{ID: id, Value: display}}
}

// TaxonomyValue builds a managed-term value.
func TaxonomyValue(termID, label string, wssIDs ...int) Value {
	return Value{Kind: ValueTaxonomy, Taxonomy: &Taxonomy{TermID: termID, Label: label, WssIDs: wssIDs}}
}

// ListValue builds a collection value.
func ListValue(items ...Value) Value { return Value{Kind: ValueList, List: items} }

// Now returns the evaluation-time "now" token.
func Now() Value { return Value{Kind: ValueNow} }

// Today returns the evaluation-time "today" token.
func Today() Value { return Value{Kind: ValueToday} }

// IsNull reports whether the value is null or a zero Value.
func (v Value) IsNull() bool {
	return v.Kind == ValueNull || v.Kind == ""
}
