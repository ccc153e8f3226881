package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/ports"
)

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Inserted int
	Updated  int
}

// Seed writes every catalog field into store. New fields are inserted in one
// batch; fields already stored are updated in place.
func Seed(ctx context.Context, store ports.ItemStore, c Catalog) (SeedResult, error) {
	var res SeedResult
	if err := Check(c); err != nil {
		return res, err
	}

	inserts := make(map[string]item.Record)
	updates := make(map[string]item.Record)
	for _, f := range c.Fields {
		if f.TypeID == "" {
			f.TypeID = item.TypeField
		}
		_, err := store.Select(ctx, item.TypeField, f.ID)
		switch {
		case err == nil:
			updates[f.ID] = f.Record()
		case errors.Is(err, ports.ErrNotFound):
			inserts[f.ID] = f.Record()
		default:
			return res, fmt.Errorf("select field %s: %w", f.ID, err)
		}
	}

	if len(inserts) > 0 {
		if err := store.InsertMultiple(ctx, item.TypeField, inserts); err != nil {
			return res, fmt.Errorf("insert fields: %w", err)
		}
		res.Inserted = len(inserts)
	}
	if len(updates) > 0 {
		if err := store.UpdateMultiple(ctx, item.TypeField, updates); err != nil {
			return res, fmt.Errorf("update fields: %w", err)
		}
		res.Updated = len(updates)
	}
	return res, nil
}
