package cache_test

import (
	"context"
	"testing"

	"github.com/artpar/contentcore/adapters/cache"
	"github.com/artpar/contentcore/adapters/memory"
	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/ports"
)

type countingStore struct {
	ports.ItemStore
	calls int
	last  ports.SelectOptions
}

func (s *countingStore) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	s.calls++
	s.last = opts
	return s.ItemStore.SelectMultiple(ctx, opts)
}

type lookups struct {
	hits, misses int
}

func (l *lookups) RecordCacheLookup(hit bool) {
	if hit {
		l.hits++
	} else {
		l.misses++
	}
}

func setup(t *testing.T) (*cache.FieldCache, *countingStore, *lookups, *memory.ItemStore) {
	t.Helper()
	store := memory.NewItemStore()
	ctx := context.Background()
	store.InsertMultiple(ctx, item.TypeField, map[string]item.Record{
		"f1": {"key": "title"},
		"f2": {"key": "body"},
	})
	sel := &countingStore{ItemStore: store}
	rec := &lookups{}
	c, err := cache.NewFieldCache(sel, 8, rec)
	if err != nil {
		t.Fatalf("NewFieldCache failed: %v", err)
	}
	return c, sel, rec, store
}

func TestFieldCache_ReadThrough(t *testing.T) {
	c, sel, rec, _ := setup(t)
	ctx := context.Background()
	opts := ports.SelectOptions{ItemType: item.TypeField, ItemIDs: []string{"f2", "f1", "missing"}}

	res, err := c.SelectMultiple(ctx, opts)
	if err != nil {
		t.Fatalf("SelectMultiple failed: %v", err)
	}
	if len(res.Results) != 2 || res.Results[0][item.KeyID] != "f2" {
		t.Errorf("results = %v, want f2 then f1", res.Results)
	}

	if _, err := c.SelectMultiple(ctx, opts); err != nil {
		t.Fatalf("second SelectMultiple failed: %v", err)
	}
	if sel.calls != 2 {
		t.Errorf("delegate calls = %d, want 2", sel.calls)
	}
	if len(sel.last.ItemIDs) != 1 || sel.last.ItemIDs[0] != "missing" {
		t.Errorf("second delegate ids = %v, want only the miss", sel.last.ItemIDs)
	}
	if rec.hits != 2 || rec.misses != 4 {
		t.Errorf("hits/misses = %d/%d, want 2/4", rec.hits, rec.misses)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestFieldCache_Invalidate(t *testing.T) {
	c, _, _, store := setup(t)
	ctx := context.Background()
	opts := ports.SelectOptions{ItemType: item.TypeField, ItemIDs: []string{"f1"}}

	c.SelectMultiple(ctx, opts)
	store.Update(ctx, item.TypeField, "f1", item.Record{"key": "heading"})

	res, _ := c.SelectMultiple(ctx, opts)
	if res.Results[0]["key"] != "title" {
		t.Errorf("key = %v, want cached title", res.Results[0]["key"])
	}

	c.Invalidate("f1")
	res, _ = c.SelectMultiple(ctx, opts)
	if res.Results[0]["key"] != "heading" {
		t.Errorf("key = %v, want heading after Invalidate", res.Results[0]["key"])
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d, want 0", c.Len())
	}
}

func TestFieldCache_DelegatesQueries(t *testing.T) {
	c, sel, rec, _ := setup(t)
	ctx := context.Background()

	opts := ports.SelectOptions{
		ItemType: item.TypeField,
		Filters:  filter.Filters{filter.Eq("key", "title")},
	}
	for i := 0; i < 2; i++ {
		res, err := c.SelectMultiple(ctx, opts)
		if err != nil {
			t.Fatalf("SelectMultiple failed: %v", err)
		}
		if len(res.Results) != 1 {
			t.Errorf("got %d results, want 1", len(res.Results))
		}
	}
	if sel.calls != 2 {
		t.Errorf("delegate calls = %d, want 2", sel.calls)
	}
	if rec.hits+rec.misses != 0 {
		t.Errorf("recorded %d lookups for a filtered query, want 0", rec.hits+rec.misses)
	}
}

func TestFieldCache_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	opts := ports.SelectOptions{ItemType: item.TypeField, ItemIDs: []string{"f1", "f2"}}

	tests := []struct {
		name  string
		write func(c *cache.FieldCache) error
		want  map[string]any
	}{
		{
			name: "update",
			write: func(c *cache.FieldCache) error {
				return c.Update(ctx, item.TypeField, "f1", item.Record{"key": "heading"})
			},
			want: map[string]any{"f1": "heading", "f2": "body"},
		},
		{
			name: "update multiple",
			write: func(c *cache.FieldCache) error {
				return c.UpdateMultiple(ctx, item.TypeField, map[string]item.Record{
					"f1": {"key": "heading"},
					"f2": {"key": "summary"},
				})
			},
			want: map[string]any{"f1": "heading", "f2": "summary"},
		},
		{
			name: "remove",
			write: func(c *cache.FieldCache) error {
				return c.Remove(ctx, item.TypeField, "f1")
			},
			want: map[string]any{"f2": "body"},
		},
		{
			name: "remove multiple",
			write: func(c *cache.FieldCache) error {
				return c.RemoveMultiple(ctx, item.TypeField, []string{"f1", "f2"})
			},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _, _ := setup(t)
			if _, err := c.SelectMultiple(ctx, opts); err != nil {
				t.Fatalf("SelectMultiple failed: %v", err)
			}
			if err := tt.write(c); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			res, err := c.SelectMultiple(ctx, opts)
			if err != nil {
				t.Fatalf("SelectMultiple failed: %v", err)
			}
			got := make(map[string]any, len(res.Results))
			for _, rec := range res.Results {
				got[rec[item.KeyID].(string)] = rec["key"]
			}
			if len(got) != len(tt.want) {
				t.Fatalf("results = %v, want %v", got, tt.want)
			}
			for id, key := range tt.want {
				if got[id] != key {
					t.Errorf("%s key = %v, want %v", id, got[id], key)
				}
			}
		})
	}
}

func TestFieldCache_InsertInvalidatesMiss(t *testing.T) {
	c, _, _, _ := setup(t)
	ctx := context.Background()
	opts := ports.SelectOptions{ItemType: item.TypeField, ItemIDs: []string{"f3"}}

	if res, _ := c.SelectMultiple(ctx, opts); len(res.Results) != 0 {
		t.Fatalf("results = %v, want none", res.Results)
	}
	if err := c.Insert(ctx, item.TypeField, "f3", item.Record{"key": "slug"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	res, _ := c.SelectMultiple(ctx, opts)
	if len(res.Results) != 1 || res.Results[0]["key"] != "slug" {
		t.Errorf("results = %v, want inserted f3", res.Results)
	}
}

func TestFieldCache_OtherTypesKeepEntries(t *testing.T) {
	c, _, _, _ := setup(t)
	ctx := context.Background()

	c.SelectMultiple(ctx, ports.SelectOptions{ItemType: item.TypeField, ItemIDs: []string{"f1"}})
	if err := c.Insert(ctx, item.TypeItem, "f1", item.Record{"title": "same id"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
