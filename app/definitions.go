package app

import (
	"context"
	"fmt"

	"github.com/artpar/contentcore/core/validation"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/ports"
)

// Definitions is a loaded archetype with a validator over its attached
// fields.
type Definitions struct {
	Archetype item.Archetype
	Validator *validation.Validator
	store     ports.ItemStore
	opts      ItemOptions
}

// LoadDefinitions reads the archetype archetypeID from store and loads its
// attached fields through sel, which defaults to store. vopts supplies
// logging, metrics, and repeater settings; its field lists are replaced by
// the archetype's.
func LoadDefinitions(ctx context.Context, store ports.ItemStore, sel ports.ItemSelector, archetypeID string, vopts validation.Options) (*Definitions, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if sel == nil {
		sel = store
	}

	rec, err := store.Select(ctx, item.TypeArchetype, archetypeID)
	if err != nil {
		return nil, fmt.Errorf("load archetype %s: %w", archetypeID, err)
	}
	arch, err := item.ArchetypeFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("decode archetype %s: %w", archetypeID, err)
	}
	if arch.ItemType == "" {
		arch.ItemType = item.TypeCustomItem
	}

	vopts.Fields = nil
	vopts.FieldMap = nil
	vopts.FieldIDs = arch.AttachedFields
	v, err := validation.NewLoaded(ctx, sel, vopts)
	if err != nil {
		return nil, fmt.Errorf("load fields of archetype %s: %w", archetypeID, err)
	}

	return &Definitions{
		Archetype: arch,
		Validator: v,
		store:     store,
		opts:      ItemOptions{Logger: vopts.Logger},
	}, nil
}

// NewItem returns a handler for an item of the archetype's type validated
// by its fields. An empty itemID is generated.
func (d *Definitions) NewItem(itemID string, data item.Record) (*ItemHandler, error) {
	opts := d.opts
	opts.Store = d.store
	opts.ItemType = d.Archetype.ItemType
	opts.ItemID = itemID
	opts.Validator = d.Validator
	opts.Data = data
	return NewItemHandler(opts)
}

// WithClock sets the clock used by handlers created from d.
func (d *Definitions) WithClock(c ports.Clock) *Definitions {
	d.opts.Clock = c
	return d
}

// WithIDs sets the generator for handlers created without an id.
func (d *Definitions) WithIDs(ids ports.IDGenerator) *Definitions {
	d.opts.IDs = ids
	return d
}
