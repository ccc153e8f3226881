package item_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/contentcore/domain/item"
)

const creator = "123e4567-e89b-42d3-a456-426614174000"

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{1700000000123, 1700000000},
		{1700000000, 1700000000},
		{0, 0},
		{17000000001234, 17000000001234},
	}
	for _, tt := range tests {
		if got := item.NormalizeTimestamp(tt.in); got != tt.want {
			t.Errorf("NormalizeTimestamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetCreatedAtOnce(t *testing.T) {
	var it item.Item
	if err := it.SetCreatedAt(1700000000999); err != nil {
		t.Fatalf("SetCreatedAt() error = %v", err)
	}
	if it.CreatedAt != 1700000000 {
		t.Errorf("CreatedAt = %d, want 1700000000", it.CreatedAt)
	}
	if err := it.SetCreatedAt(1800000000); !errors.Is(err, item.ErrImmutable) {
		t.Errorf("second SetCreatedAt() error = %v, want ErrImmutable", err)
	}
	if it.CreatedAt != 1700000000 {
		t.Errorf("CreatedAt changed to %d", it.CreatedAt)
	}
}

func TestSetCreatedByOnce(t *testing.T) {
	var it item.Item
	if err := it.SetCreatedBy("bob"); !errors.Is(err, item.ErrInvalidIdentifier) {
		t.Errorf("SetCreatedBy(bob) error = %v, want ErrInvalidIdentifier", err)
	}
	if err := it.SetCreatedBy(creator); err != nil {
		t.Fatalf("SetCreatedBy() error = %v", err)
	}
	if err := it.SetCreatedBy(creator); !errors.Is(err, item.ErrImmutable) {
		t.Errorf("second SetCreatedBy() error = %v, want ErrImmutable", err)
	}
}

func TestUpdatedAtOr(t *testing.T) {
	now := time.Unix(1750000000, 0)
	var it item.Item
	if got := it.UpdatedAtOr(now); got != 1750000000 {
		t.Errorf("UpdatedAtOr() = %d, want now", got)
	}
	_ = it.SetUpdatedAt(1700000000000)
	if got := it.UpdatedAtOr(now); got != 1700000000 {
		t.Errorf("UpdatedAtOr() = %d, want 1700000000", got)
	}
}

func TestFromRecord(t *testing.T) {
	rec := item.Record{
		"itemId":    "a",
		"typeId":    "Page",
		"createdBy": creator,
		"createdAt": float64(1700000000123),
		"updatedAt": "1700000001",
		"title":     "ignored",
	}
	it, err := item.FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if it.ID != "a" || it.TypeID != "Page" || it.CreatedBy != creator {
		t.Errorf("FromRecord() = %+v", it)
	}
	if it.CreatedAt != 1700000000 || it.UpdatedAt != 1700000001 {
		t.Errorf("timestamps = %d, %d", it.CreatedAt, it.UpdatedAt)
	}

	out := it.Record()
	if out["id"] != "a" || out["createdAt"] != int64(1700000000) {
		t.Errorf("Record() = %v", out)
	}

	if _, err := item.FromRecord(item.Record{"createdAt": "soon"}); !errors.Is(err, item.ErrInvalidTimestamp) {
		t.Errorf("FromRecord(bad createdAt) error = %v, want ErrInvalidTimestamp", err)
	}
	if _, err := item.FromRecord(item.Record{"createdBy": "nobody"}); !errors.Is(err, item.ErrInvalidIdentifier) {
		t.Errorf("FromRecord(bad createdBy) error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestArchetypeFromRecord(t *testing.T) {
	a, err := item.ArchetypeFromRecord(item.Record{
		"id":             "b7c1b8a4-0d3a-4c5e-9a57-0b8a1b2c3d4e",
		"typeId":         item.TypeArchetype,
		"name":           "Article",
		"itemType":       "article",
		"attachedFields": []any{"09e9952a-ae13-4242-a69c-6d20aa722a6d"},
		"createdAt":      float64(1700000000000),
	})
	if err != nil {
		t.Fatalf("ArchetypeFromRecord() error = %v", err)
	}
	if a.Name != "Article" || len(a.AttachedFields) != 1 || a.CreatedAt != 1700000000 {
		t.Errorf("ArchetypeFromRecord() = %+v", a)
	}
	if !item.IsKnownType(item.TypeArchetype) || item.IsKnownType("article") {
		t.Error("IsKnownType mismatch")
	}
}
