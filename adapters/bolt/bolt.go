// Package bolt provides a bbolt implementation of ports.ItemStore. Each item
// type is a bucket of JSON documents keyed by item id; queries are
// evaluated in memory over the type's bucket.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artpar/contentcore/adapters/memory"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// ItemStore implements ports.ItemStore over a bbolt file.
type ItemStore struct {
	db     *bolt.DB
	logger zerolog.Logger
}

// Open opens or creates the database file at path.
func Open(path string, logger zerolog.Logger) (*ItemStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	return &ItemStore{db: db, logger: logger}, nil
}

// Select returns one record.
func (s *ItemStore) Select(ctx context.Context, itemType, itemID string) (item.Record, error) {
	var rec item.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(itemType))
		if b == nil {
			return ports.ErrNotFound
		}
		raw := b.Get([]byte(itemID))
		if raw == nil {
			return ports.ErrNotFound
		}
		var err error
		rec, err = decode(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SelectMultiple scans the type's bucket and evaluates opts in memory.
func (s *ItemStore) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	var recs []item.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(opts.ItemType))
		if b == nil {
			return nil
		}
		if len(opts.ItemIDs) > 0 {
			for _, id := range opts.ItemIDs {
				if raw := b.Get([]byte(id)); raw != nil {
					rec, err := decode(raw)
					if err != nil {
						return err
					}
					recs = append(recs, rec)
				}
			}
			return nil
		}
		return b.ForEach(func(_, raw []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decode(raw)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return page.Result{}, err
	}
	return memory.Query(recs, opts, s.logger), nil
}

// Insert stores a new record.
func (s *ItemStore) Insert(ctx context.Context, itemType, itemID string, data item.Record) error {
	return s.InsertMultiple(ctx, itemType, map[string]item.Record{itemID: data})
}

// InsertMultiple stores new records in one transaction.
func (s *ItemStore) InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(itemType))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", itemType, err)
		}
		for id, data := range items {
			if b.Get([]byte(id)) != nil {
				return fmt.Errorf("%s %s: %w", itemType, id, ports.ErrAlreadyExists)
			}
			if err := put(b, itemType, id, item.Clone(data)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update merges data into an existing record.
func (s *ItemStore) Update(ctx context.Context, itemType, itemID string, data item.Record) error {
	return s.UpdateMultiple(ctx, itemType, map[string]item.Record{itemID: data})
}

// UpdateMultiple merges each record in one transaction.
func (s *ItemStore) UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(itemType))
		for id, data := range items {
			var raw []byte
			if b != nil {
				raw = b.Get([]byte(id))
			}
			if raw == nil {
				return fmt.Errorf("%s %s: %w", itemType, id, ports.ErrNotFound)
			}
			rec, err := decode(raw)
			if err != nil {
				return err
			}
			for k, v := range data {
				rec[k] = v
			}
			if err := put(b, itemType, id, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Remove deletes a record.
func (s *ItemStore) Remove(ctx context.Context, itemType, itemID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(itemType))
		if b == nil || b.Get([]byte(itemID)) == nil {
			return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrNotFound)
		}
		return b.Delete([]byte(itemID))
	})
}

// RemoveMultiple deletes every listed record that exists.
func (s *ItemStore) RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(itemType))
		if b == nil {
			return nil
		}
		for _, id := range itemIDs {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database file.
func (s *ItemStore) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, itemType, itemID string, rec item.Record) error {
	if rec == nil {
		rec = item.Record{}
	}
	rec[item.KeyID] = itemID
	rec[item.KeyTypeID] = itemType
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", itemType, itemID, err)
	}
	return b.Put([]byte(itemID), raw)
}

func decode(raw []byte) (item.Record, error) {
	var rec item.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

var _ ports.ItemStore = (*ItemStore)(nil)
