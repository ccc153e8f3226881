package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/domain/value"
)

// ErrInvalidKey is returned for filter or sort keys that cannot be used as
// a JSON path segment.
var ErrInvalidKey = errors.New("invalid query key")

var keyName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var baseColumns = map[string]string{
	item.KeyID:        "item_id",
	item.KeyItemID:    "item_id",
	item.KeyTypeID:    "type_id",
	item.KeyCreatedBy: "created_by",
	item.KeyCreatedAt: "created_at",
	item.KeyUpdatedAt: "updated_at",
	"revisionId":      "revision_id",
}

// column maps a record key to its SQL expression.
func column(key string) (expr string, isBase bool, err error) {
	if col, ok := baseColumns[key]; ok {
		return col, true, nil
	}
	if !keyName.MatchString(key) {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return "json_extract(json_data, '$." + key + "')", false, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// fuzzyClause matches when both sides are falsy, or when a string record
// value contains the string filter value case-insensitively. Other filter
// values match nothing.
func fuzzyClause(key, col string, isBase bool, v any) sq.Sqlizer {
	isText := sq.Expr("typeof(" + col + ") = 'text'")
	if !isBase {
		isText = sq.Expr("json_type(json_data, '$." + key + "') = 'text'")
	}

	if !value.Truthy(v) {
		falsy := sq.Or{
			sq.Eq{col: nil},
			sq.Expr(col + " = ''"),
			sq.Expr(col + " = 0"),
		}
		if !isBase {
			falsy = append(falsy, sq.Expr("json_type(json_data, '$."+key+"') IN ('array', 'object') AND "+col+" IN ('[]', '{}')"))
		}
		if v == "" {
			return sq.Or{falsy, isText}
		}
		return falsy
	}

	want, ok := v.(string)
	if !ok {
		return sq.Expr("1=0")
	}
	return sq.And{
		isText,
		sq.Expr("LOWER("+col+") LIKE LOWER(?) ESCAPE '\\'", "%"+likeEscaper.Replace(want)+"%"),
	}
}

// whereClause translates a filter list into one AND condition.
func whereClause(fs filter.Filters) (sq.Sqlizer, error) {
	and := sq.And{}
	for _, n := range fs {
		cond, err := nodeClause(n)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}
	return and, nil
}

func nodeClause(n filter.Node) (sq.Sqlizer, error) {
	switch t := n.(type) {
	case filter.Filter:
		return filterClause(t)
	case filter.Group:
		parts := make([]sq.Sqlizer, 0, len(t.Children))
		for _, child := range t.Children {
			cond, err := filterClause(child)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cond)
		}
		switch t.Group {
		case filter.GroupAnd:
			return sq.And(parts), nil
		case filter.GroupOr:
			if len(parts) == 0 {
				return sq.Expr("1=0"), nil
			}
			return sq.Or(parts), nil
		}
		return nil, fmt.Errorf("%w: %q", filter.ErrUnknownGroup, t.Group)
	}
	return nil, filter.ErrInvalidFilter
}

func filterClause(f filter.Filter) (sq.Sqlizer, error) {
	col, isBase, err := column(f.Key)
	if err != nil {
		return nil, err
	}

	switch f.Operator {
	case filter.OpEqual:
		if f.Value == nil {
			return sq.Eq{col: nil}, nil
		}
		if s, ok := f.Value.(string); ok {
			if n, isNum := value.ToNumber(s); isNum {
				return sq.Or{sq.Eq{col: s}, sq.Eq{col: n}}, nil
			}
		}
		return sq.Eq{col: sqlValue(f.Value)}, nil

	case filter.OpNotEqual:
		if f.Value == nil {
			return sq.NotEq{col: nil}, nil
		}
		return sq.Or{sq.Eq{col: nil}, sq.NotEq{col: sqlValue(f.Value)}}, nil

	case filter.OpLess:
		return sq.Lt{col: sqlValue(f.Value)}, nil
	case filter.OpLessOrEqual:
		return sq.LtOrEq{col: sqlValue(f.Value)}, nil
	case filter.OpGreater:
		return sq.Gt{col: sqlValue(f.Value)}, nil
	case filter.OpGreaterOrEqual:
		return sq.GtOrEq{col: sqlValue(f.Value)}, nil

	case filter.OpFuzzy:
		return fuzzyClause(f.Key, col, isBase, f.Value), nil

	case filter.OpIn, filter.OpArrayContains, filter.OpArrayContainsAny:
		vals, ok := value.AsSlice(f.Value)
		if !ok || len(vals) == 0 {
			return sq.Expr("1=0"), nil
		}
		return inClause(f.Key, col, isBase, vals), nil

	case filter.OpNotIn:
		vals, ok := value.AsSlice(f.Value)
		if !ok || len(vals) == 0 {
			return sq.Expr("1=1"), nil
		}
		return sq.Or{sq.Eq{col: nil}, notClause{inClause(f.Key, col, isBase, vals)}}, nil
	}

	return nil, fmt.Errorf("%w: %q", filter.ErrUnknownOperator, f.Operator)
}

// inClause matches a scalar column against vals; JSON keys also match when
// the stored value is an array overlapping vals.
func inClause(key, col string, isBase bool, vals []any) sq.Sqlizer {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = sqlValue(v)
	}
	if isBase {
		return sq.Eq{col: args}
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	return sq.Expr(
		"EXISTS (SELECT 1 FROM json_each(json_data, '$."+key+"') WHERE json_each.value IN ("+marks+"))",
		args...,
	)
}

type notClause struct {
	inner sq.Sqlizer
}

func (n notClause) ToSql() (string, []any, error) {
	s, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + s + ")", args, nil
}

// sqlValue converts a filter value into a driver argument.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
	if n, ok := value.ToNumber(v); ok {
		if _, isStr := v.(string); !isStr {
			return n
		}
	}
	return v
}

// orderClause returns the ORDER BY term for o, defaulting to newest
// revision first.
func orderClause(o *page.Options) (string, error) {
	if o == nil || o.SortBy == "" {
		return "revision_id DESC", nil
	}
	col, _, err := column(o.SortBy)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if o.SortOrder == page.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", revision_id " + dir, nil
}
