package models

import "errors"

// ErrVersionConflict indicates a write targeted a record whose
// server-side version is newer than the caller's. Remote collaborators
// wrap it so callers and the sync engine can classify with errors.Is.
var ErrVersionConflict = errors.New("version conflict")

// ErrorKind is the fixed discriminant of an error attached to a record.
type ErrorKind string

const (
	ErrKindVersionConflict ErrorKind = "version_conflict"
	ErrKindStorageFailure  ErrorKind = "storage_failure"
	ErrKindTransport       ErrorKind = "transport_failure"
)

// RecordError is a failure attached to an individual record instead of
// being thrown, so sibling records in a batch still complete.
type RecordError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *RecordError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewRecordError builds a record error from an underlying failure.
func NewRecordError(kind ErrorKind, err error) *RecordError {
	return &RecordError{Kind: kind, Message: err.Error()}
}
