package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/contentcore/adapters/clock"
	"github.com/artpar/contentcore/adapters/idgen"
	"github.com/artpar/contentcore/adapters/memory"
	"github.com/artpar/contentcore/app"
	"github.com/artpar/contentcore/core/validation"
	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
)

const (
	titleID = "09e9952a-ae13-4242-a69c-6d20aa722a6d"
	countID = "5b0e9c0e-3a77-4d5e-8f5c-2f1b6f0f1a01"
	userID  = "defcb109-843a-46bd-a608-8f4e4cc2fac4"
)

func testFields() []field.Field {
	return []field.Field{
		{
			Item:       item.Item{ID: titleID, TypeID: item.TypeField},
			Key:        "title",
			FieldType:  field.TypeText,
			Validation: field.Validation{Required: true},
		},
		{
			Item:       item.Item{ID: countID, TypeID: item.TypeField},
			Key:        "count",
			FieldType:  field.TypeNumber,
			Validation: field.Validation{Between: &field.Between{Min: 1, Max: 10}},
		},
	}
}

func newHandler(t *testing.T, store ports.ItemStore, id string) *app.ItemHandler {
	t.Helper()
	v, err := validation.New(validation.Options{Fields: testFields(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("validation.New failed: %v", err)
	}
	h, err := app.NewItemHandler(app.ItemOptions{
		Store:     store,
		ItemType:  item.TypeCustomItem,
		ItemID:    id,
		Validator: v,
		Clock:     clock.NewFake(time.Unix(1700000000, 0)),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewItemHandler failed: %v", err)
	}
	return h
}

func TestNewItemHandler_Errors(t *testing.T) {
	if _, err := app.NewItemHandler(app.ItemOptions{ItemID: titleID}); !errors.Is(err, app.ErrNoStore) {
		t.Errorf("error = %v, want ErrNoStore", err)
	}
	_, err := app.NewItemHandler(app.ItemOptions{Store: memory.NewItemStore(), ItemID: "not-an-id"})
	if !errors.Is(err, app.ErrInvalidIdentifier) {
		t.Errorf("error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestNewItemHandler_GeneratesID(t *testing.T) {
	ids := idgen.NewSequential(0xabc)
	h, err := app.NewItemHandler(app.ItemOptions{Store: memory.NewItemStore(), IDs: ids})
	if err != nil {
		t.Fatalf("NewItemHandler failed: %v", err)
	}
	if want := "00000abc-0000-4000-8000-000000000001"; h.ID() != want {
		t.Errorf("ID() = %q, want %q", h.ID(), want)
	}

	h, err = app.NewItemHandler(app.ItemOptions{Store: memory.NewItemStore()})
	if err != nil {
		t.Fatalf("NewItemHandler failed: %v", err)
	}
	if h.ID() == "" {
		t.Error("ID() is empty, want a generated UUID")
	}
}

func TestItemHandler_SetData(t *testing.T) {
	id := idgen.NewSequential(1).New()
	h := newHandler(t, memory.NewItemStore(), id)

	errs := h.SetData(item.Record{
		"title":   "Hello",
		"count":   "3",
		"missing": true,
	})
	if len(errs) != 1 || errs[0].Key != "missing" {
		t.Fatalf("errors = %v, want only the unknown key", errs)
	}

	if v, _ := h.Get("count"); v != float64(3) {
		t.Errorf("count = %v (%T), want coerced 3", v, v)
	}

	errs = h.SetData(item.Record{"title": "Changed", "count": 50})
	if len(errs) != 1 || errs[0].Key != "count" || errs[0].Message != "Must be less than 10." {
		t.Fatalf("errors = %v, want count out of range", errs)
	}
	if v, _ := h.Get("title"); v != "Changed" {
		t.Errorf("title = %v, want Changed: passing keys are still written", v)
	}
	if v, _ := h.Get("count"); v != float64(3) {
		t.Errorf("count = %v, want unchanged 3", v)
	}

	dirty := h.DirtyFields()
	if len(dirty) != 2 || dirty[0] != "count" || dirty[1] != "title" {
		t.Errorf("DirtyFields = %v, want [count title]", dirty)
	}
	h.MarkClean()
	if len(h.DirtyFields()) != 0 {
		t.Error("DirtyFields not empty after MarkClean")
	}
}

func TestItemHandler_SetBaseKeys(t *testing.T) {
	id := idgen.NewSequential(2).New()
	h := newHandler(t, memory.NewItemStore(), id)

	errs := h.SetData(item.Record{
		item.KeyCreatedBy: userID,
		item.KeyCreatedAt: int64(1600000000000),
	})
	if len(errs) != 0 {
		t.Fatalf("errors = %v, want none", errs)
	}
	if got := h.Item().CreatedAt; got != 1600000000 {
		t.Errorf("CreatedAt = %d, want normalized 1600000000", got)
	}

	errs = h.SetData(item.Record{
		item.KeyCreatedBy: titleID,
		item.KeyCreatedAt: 1700000000,
		item.KeyID:        titleID,
	})
	if len(errs) != 3 {
		t.Fatalf("errors = %v, want three immutable failures", errs)
	}
	for _, e := range errs {
		if e.Message != item.ErrImmutable.Error() {
			t.Errorf("%s: message = %q, want %q", e.Key, e.Message, item.ErrImmutable.Error())
		}
	}

	if errs := h.SetData(item.Record{item.KeyCreatedBy: userID}); len(errs) != 0 {
		t.Errorf("reassigning the same creator failed: %v", errs)
	}
}

func TestItemHandler_SaveLoadDestroy(t *testing.T) {
	store := memory.NewItemStore()
	ctx := context.Background()
	id := idgen.NewSequential(3).New()

	h := newHandler(t, store, id)
	h.SetData(item.Record{"title": "Hello"})
	if err := h.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !h.IsLoaded() || len(h.DirtyFields()) != 0 {
		t.Error("Save did not mark the handler loaded and clean")
	}

	rec, err := store.Select(ctx, item.TypeCustomItem, id)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if rec["title"] != "Hello" || rec[item.KeyCreatedAt] != int64(1700000000) || rec[item.KeyUpdatedAt] != int64(1700000000) {
		t.Errorf("stored record = %v", rec)
	}

	other := newHandler(t, store, id)
	if err := other.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := other.Get("title"); v != "Hello" {
		t.Errorf("loaded title = %v, want Hello", v)
	}
	if other.Item().CreatedAt != 1700000000 {
		t.Errorf("loaded CreatedAt = %d", other.Item().CreatedAt)
	}

	other.SetData(item.Record{"count": 4})
	if err := other.Save(ctx); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	rec, _ = store.Select(ctx, item.TypeCustomItem, id)
	if rec["title"] != "Hello" || rec["count"] != float64(4) {
		t.Errorf("record after update = %v", rec)
	}

	if err := other.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := other.Load(ctx, true); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Load after Destroy error = %v, want ErrNotFound", err)
	}
}

func TestItemHandler_SaveUnloadedExisting(t *testing.T) {
	store := memory.NewItemStore()
	ctx := context.Background()
	id := idgen.NewSequential(4).New()

	store.Insert(ctx, item.TypeCustomItem, id, item.Record{"title": "Old", "count": 2})

	h := newHandler(t, store, id)
	h.SetData(item.Record{"title": "New"})
	if err := h.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec, _ := store.Select(ctx, item.TypeCustomItem, id)
	if rec["title"] != "New" || rec["count"] != 2 {
		t.Errorf("record = %v, want merged update", rec)
	}
}

func TestItemHandler_LoadRelated(t *testing.T) {
	store := memory.NewItemStore()
	ctx := context.Background()
	gen := idgen.NewSequential(5)
	a, b := gen.New(), gen.New()

	store.Insert(ctx, item.TypeBlock, a, item.Record{"name": "a"})
	store.Insert(ctx, item.TypeBlock, b, item.Record{"name": "b"})

	h := newHandler(t, store, gen.New())
	recs, err := h.LoadRelated(ctx, item.TypeBlock, []string{b})
	if err != nil {
		t.Fatalf("LoadRelated failed: %v", err)
	}
	if len(recs) != 1 || recs[0]["name"] != "b" {
		t.Errorf("related = %v, want only b", recs)
	}

	recs, err = h.LoadRelated(ctx, item.TypeBlock, nil)
	if err != nil || len(recs) != 0 {
		t.Errorf("LoadRelated(nil) = %v, %v; want empty", recs, err)
	}
}
