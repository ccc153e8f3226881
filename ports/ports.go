// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
)

// Common errors shared by store adapters.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// SelectOptions narrows a multi-item query.
type SelectOptions struct {
	// ItemType is required; every driver restricts results to it.
	ItemType string
	// ItemIDs, when set, restricts results to these ids.
	ItemIDs []string
	Filters filter.Filters
	// Pagination is optional; nil returns every match.
	Pagination *page.Options
}

// ItemSelector resolves records by type, ids, and filters. The field
// validator needs nothing more from a store.
type ItemSelector interface {
	SelectMultiple(ctx context.Context, opts SelectOptions) (page.Result, error)
}

// ItemStore persists item records of any type.
type ItemStore interface {
	ItemSelector

	// Select returns one record or ErrNotFound.
	Select(ctx context.Context, itemType, itemID string) (item.Record, error)

	// Insert stores a new record. It fails with ErrAlreadyExists when the
	// id is taken.
	Insert(ctx context.Context, itemType, itemID string, data item.Record) error

	// InsertMultiple stores new records keyed by id, all or nothing.
	InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error

	// Update merges data into an existing record, or ErrNotFound.
	Update(ctx context.Context, itemType, itemID string, data item.Record) error

	// UpdateMultiple merges each record, all or nothing.
	UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error

	// Remove deletes a record, or ErrNotFound.
	Remove(ctx context.Context, itemType, itemID string) error

	// RemoveMultiple deletes every listed record that exists.
	RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error

	// Close releases the store's resources.
	Close() error
}
