package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/ports"
)

// Store wraps a ports.ItemStore and records every operation.
type Store struct {
	next   ports.ItemStore
	driver string
	c      *Collector
}

// InstrumentStore decorates next. A nil collector returns next unchanged.
func InstrumentStore(next ports.ItemStore, driver string, c *Collector) ports.ItemStore {
	if c == nil {
		return next
	}
	return &Store{next: next, driver: driver, c: c}
}

func (s *Store) observe(op string, start time.Time, err error) {
	result := "success"
	switch {
	case errors.Is(err, ports.ErrNotFound):
		result = "not_found"
	case errors.Is(err, ports.ErrAlreadyExists):
		result = "conflict"
	case err != nil:
		result = "error"
	}
	s.c.StoreOperations.WithLabelValues(s.driver, op, result).Inc()
	s.c.StoreDuration.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())
}

func (s *Store) Select(ctx context.Context, itemType, itemID string) (item.Record, error) {
	start := time.Now()
	rec, err := s.next.Select(ctx, itemType, itemID)
	s.observe("select", start, err)
	return rec, err
}

func (s *Store) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	start := time.Now()
	res, err := s.next.SelectMultiple(ctx, opts)
	s.observe("select_multiple", start, err)
	return res, err
}

func (s *Store) Insert(ctx context.Context, itemType, itemID string, data item.Record) error {
	start := time.Now()
	err := s.next.Insert(ctx, itemType, itemID, data)
	s.observe("insert", start, err)
	return err
}

func (s *Store) InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	start := time.Now()
	err := s.next.InsertMultiple(ctx, itemType, items)
	s.observe("insert_multiple", start, err)
	return err
}

func (s *Store) Update(ctx context.Context, itemType, itemID string, data item.Record) error {
	start := time.Now()
	err := s.next.Update(ctx, itemType, itemID, data)
	s.observe("update", start, err)
	return err
}

func (s *Store) UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	start := time.Now()
	err := s.next.UpdateMultiple(ctx, itemType, items)
	s.observe("update_multiple", start, err)
	return err
}

func (s *Store) Remove(ctx context.Context, itemType, itemID string) error {
	start := time.Now()
	err := s.next.Remove(ctx, itemType, itemID)
	s.observe("remove", start, err)
	return err
}

func (s *Store) RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error {
	start := time.Now()
	err := s.next.RemoveMultiple(ctx, itemType, itemIDs)
	s.observe("remove_multiple", start, err)
	return err
}

func (s *Store) Close() error {
	return s.next.Close()
}

var _ ports.ItemStore = (*Store)(nil)
