// Package memory provides in-memory implementations for testing and for
// single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
)

// ItemStore is an in-memory implementation of ports.ItemStore.
type ItemStore struct {
	mu     sync.RWMutex
	items  map[string]item.Record // by type:id
	logger zerolog.Logger
}

// Option configures an ItemStore.
type Option func(*ItemStore)

// WithLogger sets the logger used for filter diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *ItemStore) { s.logger = l }
}

// NewItemStore creates a new in-memory item store.
func NewItemStore(opts ...Option) *ItemStore {
	s := &ItemStore{
		items:  make(map[string]item.Record),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func storeKey(itemType, itemID string) string {
	return itemType + ":" + itemID
}

// Select returns a copy of one record.
func (s *ItemStore) Select(ctx context.Context, itemType, itemID string) (item.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.items[storeKey(itemType, itemID)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return item.DeepClone(rec), nil
}

// SelectMultiple returns the records of a type matching opts.
func (s *ItemStore) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	if err := ctx.Err(); err != nil {
		return page.Result{}, err
	}

	s.mu.RLock()
	candidates := make([]item.Record, 0, len(s.items))
	for _, rec := range s.items {
		if rec[item.KeyTypeID] == opts.ItemType {
			candidates = append(candidates, item.DeepClone(rec))
		}
	}
	s.mu.RUnlock()

	return Query(candidates, opts, s.logger), nil
}

// Insert stores a new record.
func (s *ItemStore) Insert(ctx context.Context, itemType, itemID string, data item.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(itemType, itemID, data)
}

// InsertMultiple stores new records; nothing is written if any id exists.
func (s *ItemStore) InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range items {
		if _, exists := s.items[storeKey(itemType, id)]; exists {
			return fmt.Errorf("%s %s: %w", itemType, id, ports.ErrAlreadyExists)
		}
	}
	for id, data := range items {
		if err := s.insertLocked(itemType, id, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *ItemStore) insertLocked(itemType, itemID string, data item.Record) error {
	k := storeKey(itemType, itemID)
	if _, exists := s.items[k]; exists {
		return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrAlreadyExists)
	}
	rec := item.DeepClone(data)
	if rec == nil {
		rec = item.Record{}
	}
	rec[item.KeyID] = itemID
	rec[item.KeyTypeID] = itemType
	s.items[k] = rec
	return nil
}

// Update merges data into an existing record.
func (s *ItemStore) Update(ctx context.Context, itemType, itemID string, data item.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(itemType, itemID, data)
}

// UpdateMultiple merges each record; nothing is written if any is missing.
func (s *ItemStore) UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range items {
		if _, ok := s.items[storeKey(itemType, id)]; !ok {
			return fmt.Errorf("%s %s: %w", itemType, id, ports.ErrNotFound)
		}
	}
	for id, data := range items {
		if err := s.updateLocked(itemType, id, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *ItemStore) updateLocked(itemType, itemID string, data item.Record) error {
	k := storeKey(itemType, itemID)
	rec, ok := s.items[k]
	if !ok {
		return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrNotFound)
	}
	for key, v := range item.DeepClone(data) {
		rec[key] = v
	}
	rec[item.KeyID] = itemID
	rec[item.KeyTypeID] = itemType
	return nil
}

// Remove deletes a record.
func (s *ItemStore) Remove(ctx context.Context, itemType, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := storeKey(itemType, itemID)
	if _, ok := s.items[k]; !ok {
		return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrNotFound)
	}
	delete(s.items, k)
	return nil
}

// RemoveMultiple deletes every listed record that exists.
func (s *ItemStore) RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range itemIDs {
		delete(s.items, storeKey(itemType, id))
	}
	return nil
}

// Close is a no-op.
func (s *ItemStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ ports.ItemStore = (*ItemStore)(nil)
