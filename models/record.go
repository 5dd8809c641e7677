package models

// Record is one item of a record type: identity plus typed field
// values. Domain models are plain data here; how fields map onto the
// remote backend's schema is the remote collaborator's concern.
type Record struct {
	ID      Key              `json:"id"`
	Title   string           `json:"title"`
	Version string           `json:"version,omitempty"`
	Deleted bool             `json:"deleted,omitempty"`
	Fields  map[string]Value `json:"fields,omitempty"`

	// Payload carries the binary body of a file-bearing record.
	// PayloadPath is its addressable path on the backend.
	Payload     []byte `json:"payload,omitempty"`
	PayloadPath string `json:"payloadPath,omitempty"`

	// Error holds a local-edit-conflict or storage failure attached to
	// this record instead of being thrown at the caller. It is derived
	// state and is never written to the local store.
	Error *RecordError `json:"-"`
}

// Value resolves a field by name. The identity fields ID and Title are
// addressable like declared fields; unknown fields resolve to null.
func (r *Record) Value(name string) Value {
	switch name {
	case "ID", "Id":
		if r.ID.Kind == KeyNumeric {
			return Number(float64(r.ID.Num))
		}
		return Text(r.ID.Str)
	case "Title":
		return Text(r.Title)
	}
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return Null()
}

// Clone returns a deep copy, so mirrored copies never alias the
// caller's payload or field map.
func (r *Record) Clone() *Record {
	clone := *r
	if r.Fields != nil {
		clone.Fields = make(map[string]Value, len(r.Fields))
		for k, v := range r.Fields {
			clone.Fields[k] = v
		}
	}
	if r.Payload != nil {
		clone.Payload = make([]byte, len(r.Payload))
		copy(clone.Payload, r.Payload)
	}
	if r.Error != nil {
		errCopy := *r.Error
		clone.Error = &errCopy
	}
	return &clone
}

// FieldKind describes the declared type of a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldNumber   FieldKind = "number"
	FieldBool     FieldKind = "bool"
	FieldDate     FieldKind = "date"
	FieldLookup   FieldKind = "lookup"
	FieldTaxonomy FieldKind = "taxonomy"
	FieldList     FieldKind = "list"
)

// FieldDescriptor declares one field of a record type. The descriptor
// table replaces runtime reflection: remote collaborators consume it as
// plain data to shape fetches and writes.
type FieldDescriptor struct {
	Name string
	Kind FieldKind
}

// RecordType is the static descriptor of a class of records sharing
// one local store table and one remote endpoint.
type RecordType struct {
	// Name is the record type name; it doubles as the local store
	// table name.
	Name string

	// KeyKind is the key space of the type.
	KeyKind KeyKind

	// HasPayload marks file-bearing record types. Oversized payloads
	// are chunked by the local store.
	HasPayload bool

	// CacheMinutes is how long a successful remote load stays fresh.
	// Zero or negative disables caching (every read is stale).
	CacheMinutes int

	Fields []FieldDescriptor
}

// Descriptor returns the declared descriptor for a field name.
func (t RecordType) Descriptor(name string) (FieldDescriptor, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
