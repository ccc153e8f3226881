package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/domain/value"
	"github.com/artpar/contentcore/ports"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const itemColumns = "revision_id, item_id, type_id, created_by, created_at, updated_at, json_data"

// ItemStore implements ports.ItemStore using SQLite.
type ItemStore struct {
	db     *DB
	sb     sq.StatementBuilderType
	logger zerolog.Logger
}

// NewItemStore creates a new SQLite item store. The database must be
// migrated.
func NewItemStore(db *DB, logger zerolog.Logger) *ItemStore {
	return &ItemStore{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
	}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Select returns one published record.
func (s *ItemStore) Select(ctx context.Context, itemType, itemID string) (item.Record, error) {
	return s.selectOne(ctx, s.db, itemType, itemID)
}

func (s *ItemStore) selectOne(ctx context.Context, q queryer, itemType, itemID string) (item.Record, error) {
	query, args, err := s.sb.Select(itemColumns).
		From("items_published").
		Where(sq.Eq{"type_id": itemType, "item_id": itemID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return rec, err
}

// SelectMultiple translates opts into one count and one page query.
func (s *ItemStore) SelectMultiple(ctx context.Context, opts ports.SelectOptions) (page.Result, error) {
	h := filter.NewHandler(opts.Filters, s.logger)
	h.EnsureTypeFilter(opts.ItemType)
	if len(opts.ItemIDs) > 0 {
		ids := make([]any, len(opts.ItemIDs))
		for i, id := range opts.ItemIDs {
			ids[i] = id
		}
		h.Upsert(filter.In(item.KeyItemID, ids...))
	}

	where, err := whereClause(h.Filters())
	if err != nil {
		return page.Result{}, fmt.Errorf("translate filters: %w", err)
	}
	order, err := orderClause(opts.Pagination)
	if err != nil {
		return page.Result{}, err
	}

	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From("items_published").Where(where).ToSql()
	if err != nil {
		return page.Result{}, err
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return page.Result{}, fmt.Errorf("count items: %w", err)
	}

	qb := s.sb.Select(itemColumns).From("items_published").Where(where).OrderBy(order)
	limit, offset := page.LimitOffset(opts.Pagination)
	if limit > 0 {
		qb = qb.Limit(uint64(limit)).Offset(uint64(offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return page.Result{}, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return page.Result{}, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	res := page.Result{Results: []item.Record{}, TotalItems: total}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return page.Result{}, err
		}
		res.Results = append(res.Results, rec)
	}
	if err := rows.Err(); err != nil {
		return page.Result{}, err
	}

	res.HasMore = offset+len(res.Results) < total
	if opts.Pagination != nil {
		p := *opts.Pagination
		res.Pagination = &p
	}
	return res, nil
}

// Insert stores a new record.
func (s *ItemStore) Insert(ctx context.Context, itemType, itemID string, data item.Record) error {
	return s.insert(ctx, s.db, itemType, itemID, data)
}

// InsertMultiple stores new records in one transaction.
func (s *ItemStore) InsertMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for id, data := range items {
			if err := s.insert(ctx, tx, itemType, id, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ItemStore) insert(ctx context.Context, q queryer, itemType, itemID string, data item.Record) error {
	r, err := toRow(data)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert("items_published").
		Columns("item_id", "type_id", "created_by", "created_at", "updated_at", "json_data").
		Values(itemID, itemType, r.createdBy, r.createdAt, r.updatedAt, r.jsonData).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrAlreadyExists)
		}
		return fmt.Errorf("insert %s %s: %w", itemType, itemID, err)
	}
	return nil
}

// Update merges data into an existing record.
func (s *ItemStore) Update(ctx context.Context, itemType, itemID string, data item.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.update(ctx, tx, itemType, itemID, data)
	})
}

// UpdateMultiple merges each record in one transaction.
func (s *ItemStore) UpdateMultiple(ctx context.Context, itemType string, items map[string]item.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for id, data := range items {
			if err := s.update(ctx, tx, itemType, id, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ItemStore) update(ctx context.Context, tx *sql.Tx, itemType, itemID string, data item.Record) error {
	existing, err := s.selectOne(ctx, tx, itemType, itemID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrNotFound)
		}
		return err
	}
	for k, v := range data {
		existing[k] = v
	}

	r, err := toRow(existing)
	if err != nil {
		return err
	}
	query, args, err := s.sb.Update("items_published").
		Set("created_by", r.createdBy).
		Set("created_at", r.createdAt).
		Set("updated_at", r.updatedAt).
		Set("json_data", r.jsonData).
		Where(sq.Eq{"type_id": itemType, "item_id": itemID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s %s: %w", itemType, itemID, err)
	}
	return nil
}

// Remove archives a record and deletes it from the published table.
func (s *ItemStore) Remove(ctx context.Context, itemType, itemID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := s.archive(ctx, tx, itemType, []string{itemID})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s %s: %w", itemType, itemID, ports.ErrNotFound)
		}
		return nil
	})
}

// RemoveMultiple archives and deletes every listed record that exists.
func (s *ItemStore) RemoveMultiple(ctx context.Context, itemType string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := s.archive(ctx, tx, itemType, itemIDs)
		return err
	})
}

func (s *ItemStore) archive(ctx context.Context, tx *sql.Tx, itemType string, itemIDs []string) (int64, error) {
	where := sq.Eq{"type_id": itemType, "item_id": itemIDs}

	sel := s.sb.Select(itemColumns).From("items_published").Where(where)
	query, args, err := s.sb.Insert("items_archived").
		Columns("revision_id", "item_id", "type_id", "created_by", "created_at", "updated_at", "json_data").
		Select(sel).
		ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("archive %s: %w", itemType, err)
	}

	query, args, err = s.sb.Delete("items_published").Where(where).ToSql()
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", itemType, err)
	}
	return result.RowsAffected()
}

// Archived returns the archived revisions of one item, oldest first.
func (s *ItemStore) Archived(ctx context.Context, itemType, itemID string) ([]item.Record, error) {
	query, args, err := s.sb.Select(itemColumns).
		From("items_archived").
		Where(sq.Eq{"type_id": itemType, "item_id": itemID}).
		OrderBy("archived_at ASC", "revision_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []item.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *ItemStore) Close() error {
	return s.db.Close()
}

func (s *ItemStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type row struct {
	createdBy sql.NullString
	createdAt sql.NullInt64
	updatedAt sql.NullInt64
	jsonData  string
}

func toRow(data item.Record) (row, error) {
	var r row
	if s, ok := data[item.KeyCreatedBy].(string); ok && s != "" {
		r.createdBy = sql.NullString{String: s, Valid: true}
	}
	if n, ok := value.ToNumber(data[item.KeyCreatedAt]); ok {
		r.createdAt = sql.NullInt64{Int64: item.NormalizeTimestamp(int64(n)), Valid: true}
	}
	if n, ok := value.ToNumber(data[item.KeyUpdatedAt]); ok {
		r.updatedAt = sql.NullInt64{Int64: item.NormalizeTimestamp(int64(n)), Valid: true}
	}

	encoded, err := json.Marshal(item.WithoutBase(data))
	if err != nil {
		return row{}, fmt.Errorf("encode json_data: %w", err)
	}
	r.jsonData = string(encoded)
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (item.Record, error) {
	var (
		revisionID int64
		itemID     string
		typeID     string
		r          row
	)
	if err := sc.Scan(&revisionID, &itemID, &typeID, &r.createdBy, &r.createdAt, &r.updatedAt, &r.jsonData); err != nil {
		return nil, err
	}

	rec := item.Record{}
	if r.jsonData != "" {
		if err := json.Unmarshal([]byte(r.jsonData), &rec); err != nil {
			return nil, fmt.Errorf("decode json_data of %s %s: %w", typeID, itemID, err)
		}
	}
	rec[item.KeyID] = itemID
	rec[item.KeyTypeID] = typeID
	if r.createdBy.Valid {
		rec[item.KeyCreatedBy] = r.createdBy.String
	}
	if r.createdAt.Valid {
		rec[item.KeyCreatedAt] = r.createdAt.Int64
	}
	if r.updatedAt.Valid {
		rec[item.KeyUpdatedAt] = r.updatedAt.Int64
	}
	return rec, nil
}

var _ ports.ItemStore = (*ItemStore)(nil)
