// Package item defines the base record every stored entity shares.
package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/domain/value"
)

// Record is the untyped map form of an item as read from or written to a store.
type Record = map[string]any

// Base record keys.
const (
	KeyID        = "id"
	KeyItemID    = "itemId"
	KeyTypeID    = "typeId"
	KeyCreatedBy = "createdBy"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// BaseKeys lists the keys owned by Item rather than by the custom data.
var BaseKeys = []string{KeyID, KeyTypeID, KeyCreatedBy, KeyCreatedAt, KeyUpdatedAt}

// Sentinel errors.
var (
	ErrImmutable         = errors.New("value is immutable once set")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
)

// Item is the common header of every stored entity. Timestamps are unix
// seconds; millisecond inputs are normalized on the way in.
type Item struct {
	ID        string `json:"id" yaml:"id"`
	TypeID    string `json:"typeId" yaml:"typeId"`
	CreatedBy string `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// NormalizeTimestamp converts a 13-digit millisecond timestamp to seconds.
// Anything else is returned unchanged.
func NormalizeTimestamp(ts int64) int64 {
	if len(strconv.FormatInt(ts, 10)) == 13 {
		return ts / 1000
	}
	return ts
}

// SetCreatedAt records the creation time. It may only be set once.
func (i *Item) SetCreatedAt(ts int64) error {
	if i.CreatedAt != 0 {
		return ErrImmutable
	}
	if ts < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimestamp, ts)
	}
	i.CreatedAt = NormalizeTimestamp(ts)
	return nil
}

// SetCreatedBy records the creator. It may only be set once.
func (i *Item) SetCreatedBy(id string) error {
	if i.CreatedBy != "" {
		return ErrImmutable
	}
	if !ident.IsIdentifier(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	i.CreatedBy = id
	return nil
}

// SetUpdatedAt records the last modification time.
func (i *Item) SetUpdatedAt(ts int64) error {
	if ts < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimestamp, ts)
	}
	i.UpdatedAt = NormalizeTimestamp(ts)
	return nil
}

// UpdatedAtOr returns UpdatedAt, or now in unix seconds when it was never set.
func (i Item) UpdatedAtOr(now time.Time) int64 {
	if i.UpdatedAt == 0 {
		return now.Unix()
	}
	return i.UpdatedAt
}

// Record returns the base keys as a map. Unset optional keys are omitted.
func (i Item) Record() Record {
	rec := Record{KeyID: i.ID, KeyTypeID: i.TypeID}
	if i.CreatedBy != "" {
		rec[KeyCreatedBy] = i.CreatedBy
	}
	if i.CreatedAt != 0 {
		rec[KeyCreatedAt] = i.CreatedAt
	}
	if i.UpdatedAt != 0 {
		rec[KeyUpdatedAt] = i.UpdatedAt
	}
	return rec
}

// FromRecord reads the base keys out of rec. An "itemId" key is accepted in
// place of "id".
func FromRecord(rec Record) (Item, error) {
	var it Item
	if id, ok := rec[KeyID].(string); ok {
		it.ID = id
	} else if id, ok := rec[KeyItemID].(string); ok {
		it.ID = id
	}
	it.TypeID, _ = rec[KeyTypeID].(string)

	if by, ok := rec[KeyCreatedBy].(string); ok && by != "" {
		if err := it.SetCreatedBy(by); err != nil {
			return Item{}, err
		}
	}
	if ts, ok, err := timestampOf(rec[KeyCreatedAt]); err != nil {
		return Item{}, fmt.Errorf("createdAt: %w", err)
	} else if ok {
		it.CreatedAt = NormalizeTimestamp(ts)
	}
	if ts, ok, err := timestampOf(rec[KeyUpdatedAt]); err != nil {
		return Item{}, fmt.Errorf("updatedAt: %w", err)
	} else if ok {
		it.UpdatedAt = NormalizeTimestamp(ts)
	}
	return it, nil
}

func timestampOf(v any) (int64, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	n, ok := value.ToNumber(v)
	if !ok || n < 0 {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidTimestamp, v)
	}
	return int64(n), true, nil
}

// Decode converts an arbitrary record into a typed struct through JSON.
func Decode(rec Record, dst any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Encode converts a typed struct into its record form through JSON.
func Encode(src any) (Record, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// WithoutBase returns a copy of rec with the base keys removed.
func WithoutBase(rec Record) Record {
	out := Clone(rec)
	for _, k := range BaseKeys {
		delete(out, k)
	}
	delete(out, KeyItemID)
	return out
}

// DeepClone copies rec along with any nested maps and slices of decoded
// JSON values.
func DeepClone(rec Record) Record {
	if rec == nil {
		return nil
	}
	out, _ := deepCopy(rec).(map[string]any)
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

// Clone returns a shallow copy of rec.
func Clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
