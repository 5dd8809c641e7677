package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// KeyKind discriminates the two key spaces a record type may use.
// A record type uses exactly one of them, never both.
type KeyKind int

const (
	// KeyNumeric is a server-issued positive integer key space.
	// Synthetic ids are negative integers counting down from -2.
	KeyNumeric KeyKind = iota

	// KeyString is a server-issued opaque string key space.
	// Synthetic ids carry the SyntheticPrefix.
	KeyString
)

// SyntheticPrefix marks locally generated string keys for records that
// have not been persisted remotely yet.
const SyntheticPrefix = "local_"

// Key identifies a record within its record type's store.
type Key struct {
	Kind KeyKind
	Num  int64
	Str  string
}

// NumericKey builds a numeric key.
func NumericKey(n int64) Key {
	return Key{Kind: KeyNumeric, Num: n}
}

// StringKey builds a string key.
func StringKey(s string) Key {
	return Key{Kind: KeyString, Str: s}
}

// IsZero reports whether the key is the "unset" sentinel of its kind
// (0 for numeric keys, empty string for string keys). A store assigns a
// synthetic id to records saved with a zero key.
func (k Key) IsZero() bool {
	if k.Kind == KeyNumeric {
		return k.Num == 0
	}
	return k.Str == ""
}

// IsSynthetic reports whether the key was allocated locally and has not
// been replaced by a server-issued id yet.
func (k Key) IsSynthetic() bool {
	if k.Kind == KeyNumeric {
		return k.Num <= -2
	}
	return strings.HasPrefix(k.Str, SyntheticPrefix)
}

// Equal reports whether both keys address the same record.
func (k Key) Equal(other Key) bool {
	if k.Kind != other.Kind {
		return false
	}
	if k.Kind == KeyNumeric {
		return k.Num == other.Num
	}
	return k.Str == other.Str
}

// String renders the key as a store key string.
func (k Key) String() string {
	if k.Kind == KeyNumeric {
		return strconv.FormatInt(k.Num, 10)
	}
	return k.Str
}

// MarshalJSON encodes numeric keys as JSON numbers and string keys as
// JSON strings, so serialized records never mix the two key spaces.
func (k Key) MarshalJSON() ([]byte, error) {
	if k.Kind == KeyNumeric {
		return json.Marshal(k.Num)
	}
	return json.Marshal(k.Str)
}

// UnmarshalJSON restores a key from its wire form.
func (k *Key) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal string key: %w", err)
		}
		*k = StringKey(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to unmarshal numeric key: %w", err)
	}
	*k = NumericKey(n)
	return nil
}
