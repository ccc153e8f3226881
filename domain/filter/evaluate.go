package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/value"
)

// KeyJSONData is the record key holding a nested JSON payload. Values missing
// from the top level of a record are looked up inside it.
const KeyJSONData = "jsonData"

// Evaluate reports whether rec satisfies f. Unknown operators evaluate
// false; Match and Handler report them.
func Evaluate(f Filter, rec item.Record) bool {
	ok, _ := evaluate(f, rec)
	return ok
}

// EvaluateNode evaluates a single filter, or a group by its combinator.
func EvaluateNode(n Node, rec item.Record) bool {
	ok, _ := evaluateNode(n, rec)
	return ok
}

// MatchesAll reports whether rec passes every node in fs. An empty list
// matches anything; a record that is not a populated object matches nothing.
func MatchesAll(fs Filters, rec any) bool {
	ok, _ := Match(fs, rec)
	return ok
}

// Match is MatchesAll that also returns the error, such as
// ErrUnknownOperator, of the node that failed the record.
func Match(fs Filters, rec any) (bool, error) {
	if len(fs) == 0 {
		return true, nil
	}
	m, ok := value.AsMap(rec)
	if !ok || len(m) == 0 {
		return false, nil
	}
	for _, n := range fs {
		ok, err := evaluateNode(n, m)
		if !ok {
			return false, err
		}
	}
	return true, nil
}

func evaluateNode(n Node, rec item.Record) (bool, error) {
	switch t := n.(type) {
	case Filter:
		return evaluate(t, rec)
	case *Filter:
		return evaluate(*t, rec)
	case Group:
		return evaluateGroup(t, rec)
	case *Group:
		return evaluateGroup(*t, rec)
	}
	return false, fmt.Errorf("%w: %T", ErrInvalidFilter, n)
}

func evaluateGroup(g Group, rec item.Record) (bool, error) {
	switch g.Group {
	case GroupAnd:
		for _, c := range g.Children {
			ok, err := evaluate(c, rec)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case GroupOr:
		var firstErr error
		for _, c := range g.Children {
			ok, err := evaluate(c, rec)
			if ok {
				return true, nil
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return false, firstErr
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownGroup, g.Group)
}

func evaluate(f Filter, rec item.Record) (bool, error) {
	dv := resolve(f.Key, rec)

	switch f.Operator {
	case OpIn, OpArrayContains, OpArrayContainsAny:
		vals, ok := value.AsSlice(f.Value)
		if dv == nil || !ok {
			return false, nil
		}
		return containsAny(vals, dv), nil

	case OpNotIn:
		vals, ok := value.AsSlice(f.Value)
		if dv == nil || !ok {
			return true, nil
		}
		return !containsAny(vals, dv), nil

	case OpFuzzy:
		if !value.Truthy(f.Value) && !value.Truthy(dv) {
			return true, nil
		}
		want, ok1 := f.Value.(string)
		got, ok2 := dv.(string)
		if ok1 && ok2 {
			return strings.Contains(strings.ToLower(got), strings.ToLower(want)), nil
		}
		return false, nil

	case OpEqual:
		if f.Value == nil {
			return dv == nil, nil
		}
		if want, ok := f.Value.(string); ok {
			if _, isStr := dv.(string); isStr || value.IsNumber(dv) {
				return value.LooseEqual(want, dv), nil
			}
		}
		return compareNumbers(dv, f.Value, f.Operator), nil

	case OpNotEqual:
		if f.Value == nil {
			return dv != nil, nil
		}
		if want, ok := f.Value.(string); ok {
			got, isStr := dv.(string)
			return !isStr || got != want, nil
		}
		return compareNumbers(dv, f.Value, f.Operator), nil

	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return compareNumbers(dv, f.Value, f.Operator), nil
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownOperator, f.Operator)
}

// resolve finds the record value a filter compares against.
func resolve(key string, rec item.Record) any {
	if v, ok := rec[key]; ok && v != nil {
		return v
	}
	if data := jsonData(rec); data != nil {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	if key == item.KeyItemID {
		if id, ok := rec[item.KeyID]; ok && id != nil {
			return id
		}
	}
	return nil
}

func jsonData(rec item.Record) map[string]any {
	switch raw := rec[KeyJSONData].(type) {
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil
		}
		return m
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil
		}
		return m
	default:
		m, _ := value.AsMap(raw)
		return m
	}
}

// containsAny reports whether some element of vals loosely equals dv, or,
// when dv is itself a list, any of its elements.
func containsAny(vals []any, dv any) bool {
	candidates, isList := value.AsSlice(dv)
	if !isList {
		candidates = []any{dv}
	}
	for _, v := range vals {
		for _, c := range candidates {
			if value.LooseEqual(c, v) {
				return true
			}
		}
	}
	return false
}

// compareNumbers applies op as "got op want" once both sides coerce to
// numbers. It is false when either side does not.
func compareNumbers(got, want any, op Operator) bool {
	a, ok := value.ToNumber(got)
	if !ok {
		return false
	}
	b, ok := value.ToNumber(want)
	if !ok {
		return false
	}
	switch op {
	case OpLess:
		return a < b
	case OpLessOrEqual:
		return a <= b
	case OpGreater:
		return a > b
	case OpGreaterOrEqual:
		return a >= b
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	}
	return false
}
