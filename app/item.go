// Package app contains the item handler: the stateful wrapper that loads an
// item from a store, validates assignments against its fields, and persists
// the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/contentcore/adapters/clock"
	"github.com/artpar/contentcore/adapters/idgen"
	"github.com/artpar/contentcore/core/validation"
	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/value"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
)

// Errors.
var (
	ErrNoStore           = errors.New("item handler requires a store")
	ErrInvalidIdentifier = errors.New("item handler requires an identifier")
)

// FieldError is a rejected assignment.
type FieldError = validation.FieldError

// ItemOptions configures an ItemHandler.
type ItemOptions struct {
	Store    ports.ItemStore
	ItemType string
	ItemID   string
	// Validator checks custom keys. Without one, custom keys are accepted
	// as given.
	Validator *validation.Validator
	// Data is assigned through SetData after construction.
	Data  item.Record
	Clock ports.Clock
	// IDs generates ItemID when it is empty. Defaults to random UUIDs.
	IDs    ports.IDGenerator
	Logger zerolog.Logger
}

// ItemHandler holds one item's base fields and custom data.
type ItemHandler struct {
	mu        sync.RWMutex
	store     ports.ItemStore
	validator *validation.Validator
	clock     ports.Clock
	logger    zerolog.Logger

	base   item.Item
	data   item.Record
	dirty  map[string]bool
	loaded bool
}

// NewItemHandler creates a handler for one item.
func NewItemHandler(opts ItemOptions) (*ItemHandler, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	if opts.ItemID == "" {
		ids := opts.IDs
		if ids == nil {
			ids = idgen.UUID{}
		}
		opts.ItemID = ids.New()
	}
	if !ident.IsIdentifier(opts.ItemID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, opts.ItemID)
	}
	itemType := opts.ItemType
	if itemType == "" {
		itemType = item.TypeItem
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}

	h := &ItemHandler{
		store:     opts.Store,
		validator: opts.Validator,
		clock:     c,
		logger:    opts.Logger.With().Str("item_type", itemType).Str("item_id", opts.ItemID).Logger(),
		base:      item.Item{ID: opts.ItemID, TypeID: itemType},
		data:      item.Record{},
		dirty:     make(map[string]bool),
	}
	if len(opts.Data) > 0 {
		h.SetData(opts.Data)
	}
	return h, nil
}

// ID returns the item id.
func (h *ItemHandler) ID() string { return h.base.ID }

// Type returns the item type id.
func (h *ItemHandler) Type() string { return h.base.TypeID }

// Item returns the base fields.
func (h *ItemHandler) Item() item.Item {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.base
}

// Load reads the item from the store. A loaded handler is not re-read
// unless force is set. Pending assignments are discarded.
func (h *ItemHandler) Load(ctx context.Context, force bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loaded && !force {
		return nil
	}

	rec, err := h.store.Select(ctx, h.base.TypeID, h.base.ID)
	if err != nil {
		return fmt.Errorf("load %s %s: %w", h.base.TypeID, h.base.ID, err)
	}
	base, err := item.FromRecord(rec)
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", h.base.TypeID, h.base.ID, err)
	}
	base.ID, base.TypeID = h.base.ID, h.base.TypeID

	h.base = base
	h.data = item.WithoutBase(rec)
	h.dirty = make(map[string]bool)
	h.loaded = true
	return nil
}

// Save stamps the timestamps and writes the item: an update when it was
// loaded, otherwise an insert that falls back to an update.
func (h *ItemHandler) Save(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now().Unix()
	if h.base.CreatedAt == 0 {
		h.base.CreatedAt = now
	}
	h.base.UpdatedAt = now

	rec := h.recordLocked()
	var err error
	if h.loaded {
		err = h.store.Update(ctx, h.base.TypeID, h.base.ID, rec)
	} else {
		err = h.store.Insert(ctx, h.base.TypeID, h.base.ID, rec)
		if errors.Is(err, ports.ErrAlreadyExists) {
			err = h.store.Update(ctx, h.base.TypeID, h.base.ID, rec)
		}
	}
	if err != nil {
		return fmt.Errorf("save %s %s: %w", h.base.TypeID, h.base.ID, err)
	}

	h.dirty = make(map[string]bool)
	h.loaded = true
	h.logger.Debug().Msg("item saved")
	return nil
}

// Destroy removes the item from the store.
func (h *ItemHandler) Destroy(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Remove(ctx, h.base.TypeID, h.base.ID); err != nil {
		return fmt.Errorf("destroy %s %s: %w", h.base.TypeID, h.base.ID, err)
	}
	h.loaded = false
	return nil
}

// SetData assigns every key of data. Base keys go through the item setters;
// the rest are validated against the field with the same key. Only keys
// that pass are written, and each failure is returned.
func (h *ItemHandler) SetData(data item.Record) []FieldError {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []FieldError
	for _, k := range keys {
		var msg string
		if isBaseKey(k) {
			msg = h.setBaseLocked(k, data[k])
		} else {
			msg = h.setCustomLocked(k, data[k])
		}
		if msg != "" {
			errs = append(errs, FieldError{Key: k, Message: msg})
			continue
		}
		h.dirty[k] = true
	}

	if len(errs) > 0 {
		h.logger.Debug().Interface("errors", errs).Msg("item assignment rejected keys")
	}
	return errs
}

func (h *ItemHandler) setBaseLocked(k string, v any) string {
	switch k {
	case item.KeyID, item.KeyItemID:
		if v != h.base.ID {
			return item.ErrImmutable.Error()
		}
	case item.KeyTypeID:
		if v != h.base.TypeID {
			return item.ErrImmutable.Error()
		}
	case item.KeyCreatedBy:
		s, _ := v.(string)
		if s == h.base.CreatedBy {
			return ""
		}
		if err := h.base.SetCreatedBy(s); err != nil {
			return err.Error()
		}
	case item.KeyCreatedAt, item.KeyUpdatedAt:
		n, ok := value.ToNumber(v)
		if !ok {
			return item.ErrInvalidTimestamp.Error()
		}
		ts := int64(n)
		if k == item.KeyUpdatedAt {
			if err := h.base.SetUpdatedAt(ts); err != nil {
				return err.Error()
			}
			return ""
		}
		if item.NormalizeTimestamp(ts) == h.base.CreatedAt {
			return ""
		}
		if err := h.base.SetCreatedAt(ts); err != nil {
			return err.Error()
		}
	}
	return ""
}

func (h *ItemHandler) setCustomLocked(k string, v any) string {
	if h.validator == nil {
		h.data[k] = v
		return ""
	}
	f, ok := h.validator.FieldByKey(k)
	if !ok {
		return fmt.Sprintf("Unknown field key %q", k)
	}
	res := h.validator.ValidateField(validation.Input{Value: v, Field: &f})
	if !res.Success {
		return res.Message
	}
	h.data[k] = res.Value
	return ""
}

// Get returns one custom value.
func (h *ItemHandler) Get(key string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.data[key]
	return v, ok
}

// Data returns the base keys merged with the custom data.
func (h *ItemHandler) Data() item.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.recordLocked()
}

func (h *ItemHandler) recordLocked() item.Record {
	rec := item.DeepClone(h.data)
	for k, v := range h.base.Record() {
		rec[k] = v
	}
	return rec
}

// DirtyFields returns the keys assigned since the last load, save, or
// MarkClean, sorted.
func (h *ItemHandler) DirtyFields() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.dirty))
	for k := range h.dirty {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarkClean forgets pending assignments without saving.
func (h *ItemHandler) MarkClean() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirty = make(map[string]bool)
}

// IsLoaded reports whether the item was read from or written to the store.
func (h *ItemHandler) IsLoaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// LoadRelated fetches the items of another type referenced by ids.
func (h *ItemHandler) LoadRelated(ctx context.Context, itemType string, ids []string) ([]item.Record, error) {
	if len(ids) == 0 {
		return []item.Record{}, nil
	}
	res, err := h.store.SelectMultiple(ctx, ports.SelectOptions{ItemType: itemType, ItemIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load related %s: %w", itemType, err)
	}
	return res.Results, nil
}

func isBaseKey(k string) bool {
	if k == item.KeyItemID {
		return true
	}
	for _, b := range item.BaseKeys {
		if b == k {
			return true
		}
	}
	return false
}
