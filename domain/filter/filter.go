// Package filter defines the store-agnostic query model: single comparisons,
// one-level AND/OR groups, and an ordered list of both that is implicitly
// ANDed. Stores translate it to their native query syntax; the in-memory
// evaluator here is the reference semantics.
package filter

import (
	"errors"

	"github.com/artpar/contentcore/domain/value"
)

// Operator is a comparison operator.
type Operator string

// Operators.
const (
	OpLess             Operator = "<"
	OpLessOrEqual      Operator = "<="
	OpGreater          Operator = ">"
	OpGreaterOrEqual   Operator = ">="
	OpFuzzy            Operator = "~"
	OpEqual            Operator = "=="
	OpNotEqual         Operator = "!="
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
)

var operators = []Operator{
	OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpFuzzy, OpEqual,
	OpNotEqual, OpArrayContains, OpArrayContainsAny, OpIn, OpNotIn,
}

// Operators returns every known operator.
func Operators() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators)
	return out
}

// IsKnown reports whether o is a known operator.
func (o Operator) IsKnown() bool {
	for _, k := range operators {
		if k == o {
			return true
		}
	}
	return false
}

// GroupType is the logical combinator of a Group.
type GroupType string

// Group types.
const (
	GroupAnd GroupType = "and"
	GroupOr  GroupType = "or"
)

// IsKnown reports whether g is "and" or "or".
func (g GroupType) IsKnown() bool {
	return g == GroupAnd || g == GroupOr
}

// Errors.
var (
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrUnknownGroup    = errors.New("unknown filter group type")
	ErrNestedGroup     = errors.New("filter groups cannot be nested")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Node is a Filter or a Group.
type Node interface {
	isNode()
}

// Filter is a single comparison of a record value against Value.
type Filter struct {
	Key      string   `json:"key"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Group combines plain filters with AND or OR. Groups hold filters only.
type Group struct {
	Group    GroupType `json:"group"`
	Children []Filter  `json:"children"`
}

func (Filter) isNode() {}
func (Group) isNode()  {}

// Filters is an ordered list of nodes, all of which must pass.
type Filters []Node

// Eq builds a "==" filter.
func Eq(key string, v any) Filter {
	return Filter{Key: key, Operator: OpEqual, Value: v}
}

// In builds an "in" filter.
func In(key string, vals ...any) Filter {
	return Filter{Key: key, Operator: OpIn, Value: vals}
}

// And builds an "and" group.
func And(children ...Filter) Group {
	return Group{Group: GroupAnd, Children: children}
}

// Or builds an "or" group.
func Or(children ...Filter) Group {
	return Group{Group: GroupOr, Children: children}
}

// IsFilter reports whether v has the shape of a single filter: a non-empty
// object whose keys are drawn from key, operator and value, with a string
// key and a known operator.
func IsFilter(v any) bool {
	switch f := v.(type) {
	case Filter:
		return f.Operator.IsKnown()
	case *Filter:
		return f != nil && f.Operator.IsKnown()
	}
	m, ok := value.AsMap(v)
	if !ok || len(m) == 0 {
		return false
	}
	for k := range m {
		if k != "key" && k != "operator" && k != "value" {
			return false
		}
	}
	if _, ok := m["key"].(string); !ok {
		return false
	}
	op, ok := m["operator"].(string)
	return ok && Operator(op).IsKnown()
}

// IsGroup reports whether v has the shape of a group: a truthy group
// combinator and an array of children.
func IsGroup(v any) bool {
	switch g := v.(type) {
	case Group:
		return g.Group != "" && g.Children != nil
	case *Group:
		return g != nil && g.Group != "" && g.Children != nil
	}
	m, ok := value.AsMap(v)
	if !ok || !value.Truthy(m["group"]) {
		return false
	}
	_, ok = value.AsSlice(m["children"])
	return ok
}
