// Package cache provides an LRU read-through cache of Field records in
// front of any ports.ItemStore. Field writes made through the cache drop
// the affected entries.
package cache

import (
	"context"
	"fmt"

	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/ports"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when a non-positive size is given.
const DefaultSize = 1024

// Recorder observes cache lookups.
type Recorder interface {
	RecordCacheLookup(hit bool)
}

// FieldCache caches Field records by id. Only plain id lookups of the
// Field type are served from the cache; every other call is delegated.
// Writes that bypass the cache are not observed; use Invalidate or Purge.
type FieldCache struct {
	next     ports.ItemStore
	lru      *lru.Cache[string, item.Record]
	recorder Recorder
}

// NewFieldCache wraps next with a cache of size entries. recorder may be nil.
func NewFieldCache(next ports.ItemStore, size int, recorder Recorder) (*FieldCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, item.Record](size)
	if err != nil {
		return nil, fmt.Errorf("create field cache: %w", err)
	}
	return &FieldCache{next: next, lru: c, recorder: recorder}, nil
}

// SelectMultiple serves cached Field ids and fetches the rest in one call.
func (c *FieldCache) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	if !cacheable(opts) {
		return c.next.SelectMultiple(ctx, opts)
	}

	found := make(map[string]item.Record, len(opts.ItemIDs))
	var misses []string
	for _, id := range opts.ItemIDs {
		if rec, ok := c.lru.Get(id); ok {
			found[id] = item.DeepClone(rec)
			c.record(true)
			continue
		}
		misses = append(misses, id)
		c.record(false)
	}

	if len(misses) > 0 {
		fetched := opts
		fetched.ItemIDs = misses
		res, err := c.next.SelectMultiple(ctx, fetched)
		if err != nil {
			return page.Result{}, err
		}
		for _, rec := range res.Results {
			id, _ := rec[item.KeyID].(string)
			if id == "" {
				continue
			}
			c.lru.Add(id, item.DeepClone(rec))
			found[id] = rec
		}
	}

	out := page.Result{Results: make([]item.Record, 0, len(found))}
	seen := make(map[string]bool, len(found))
	for _, id := range opts.ItemIDs {
		if rec, ok := found[id]; ok && !seen[id] {
			seen[id] = true
			out.Results = append(out.Results, rec)
		}
	}
	out.TotalItems = len(out.Results)
	return out, nil
}

// Select delegates single-record reads.
func (c *FieldCache) Select(ctx context.Context, itemType, itemID string) (item.Record, error) {
	return c.next.Select(ctx, itemType, itemID)
}

func (c *FieldCache) Insert(ctx context.Context, itemType, itemID string, data item.Record) error {
	defer c.invalidate(itemType, itemID)
	return c.next.Insert(ctx, itemType, itemID, data)
}

func (c *FieldCache) InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	defer c.invalidate(itemType, keys(items)...)
	return c.next.InsertMultiple(ctx, itemType, items)
}

func (c *FieldCache) Update(ctx context.Context, itemType, itemID string, data item.Record) error {
	defer c.invalidate(itemType, itemID)
	return c.next.Update(ctx, itemType, itemID, data)
}

func (c *FieldCache) UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	defer c.invalidate(itemType, keys(items)...)
	return c.next.UpdateMultiple(ctx, itemType, items)
}

func (c *FieldCache) Remove(ctx context.Context, itemType, itemID string) error {
	defer c.invalidate(itemType, itemID)
	return c.next.Remove(ctx, itemType, itemID)
}

func (c *FieldCache) RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error {
	defer c.invalidate(itemType, itemIDs...)
	return c.next.RemoveMultiple(ctx, itemType, itemIDs)
}

// Close purges the cache and closes the underlying store.
func (c *FieldCache) Close() error {
	c.lru.Purge()
	return c.next.Close()
}

func (c *FieldCache) invalidate(itemType string, ids ...string) {
	if itemType == item.TypeField {
		c.Invalidate(ids...)
	}
}

func keys(items map[string]item.Record) []string {
	out := make([]string, 0, len(items))
	for id := range items {
		out = append(out, id)
	}
	return out
}

// Invalidate drops the given ids.
func (c *FieldCache) Invalidate(ids ...string) {
	for _, id := range ids {
		c.lru.Remove(id)
	}
}

// Purge drops every entry.
func (c *FieldCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached fields.
func (c *FieldCache) Len() int {
	return c.lru.Len()
}

func (c *FieldCache) record(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(hit)
	}
}

func cacheable(opts ports.SelectOptions) bool {
	return opts.ItemType == item.TypeField &&
		len(opts.ItemIDs) > 0 &&
		len(opts.Filters) == 0 &&
		opts.Pagination == nil
}

var _ ports.ItemStore = (*FieldCache)(nil)
