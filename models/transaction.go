package models

// TransactionKind is the operation a journaled transaction replays.
type TransactionKind string

const (
	TransactionAddOrUpdate TransactionKind = "add_or_update"
	TransactionDelete      TransactionKind = "delete"
)

// Transaction is one pending offline write. Transactions are totally
// ordered by ID and must be replayed in that order: a later transaction
// may reference a synthetic id created by an earlier one.
type Transaction struct {
	ID         int64           `json:"id"`
	Kind       TransactionKind `json:"kind"`
	RecordType string          `json:"recordType"`
	Record     *Record         `json:"record"`

	// PayloadKey points into the journal's binary sub-store when the
	// record's payload was relocated there. The journaled record then
	// holds no payload bytes itself.
	PayloadKey string `json:"payloadKey,omitempty"`
}
