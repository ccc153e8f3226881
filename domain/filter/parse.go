package filter

import (
	"encoding/json"
	"fmt"

	"github.com/artpar/contentcore/domain/value"
)

// Parse converts decoded JSON or YAML into Filters. It accepts nil, a single
// filter or group, or an array of them.
func Parse(v any) (Filters, error) {
	if v == nil {
		return nil, nil
	}
	if fs, ok := v.(Filters); ok {
		return fs, nil
	}
	list, ok := value.AsSlice(v)
	if !ok {
		n, err := ParseNode(v)
		if err != nil {
			return nil, err
		}
		return Filters{n}, nil
	}
	out := make(Filters, 0, len(list))
	for i, raw := range list {
		n, err := ParseNode(raw)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseNode converts a single decoded value into a Filter or Group.
func ParseNode(v any) (Node, error) {
	switch n := v.(type) {
	case Filter:
		if !n.Operator.IsKnown() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, n.Operator)
		}
		return n, nil
	case Group:
		if !n.Group.IsKnown() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, n.Group)
		}
		return n, nil
	}

	m, ok := value.AsMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an object", ErrInvalidFilter, v)
	}
	if _, isGroup := m["group"]; isGroup {
		return parseGroup(m)
	}
	return parseFilter(m)
}

func parseGroup(m map[string]any) (Group, error) {
	if !IsGroup(m) {
		return Group{}, fmt.Errorf("%w: group needs a combinator and children", ErrInvalidFilter)
	}
	gt, _ := m["group"].(string)
	if !GroupType(gt).IsKnown() {
		return Group{}, fmt.Errorf("%w: %v", ErrUnknownGroup, m["group"])
	}
	children, _ := value.AsSlice(m["children"])
	g := Group{Group: GroupType(gt), Children: make([]Filter, 0, len(children))}
	for i, raw := range children {
		if IsGroup(raw) {
			return Group{}, fmt.Errorf("child %d: %w", i, ErrNestedGroup)
		}
		cm, ok := value.AsMap(raw)
		if !ok {
			return Group{}, fmt.Errorf("child %d: %w", i, ErrInvalidFilter)
		}
		f, err := parseFilter(cm)
		if err != nil {
			return Group{}, fmt.Errorf("child %d: %w", i, err)
		}
		g.Children = append(g.Children, f)
	}
	return g, nil
}

func parseFilter(m map[string]any) (Filter, error) {
	if op, ok := m["operator"].(string); ok && !Operator(op).IsKnown() {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	if !IsFilter(m) {
		return Filter{}, fmt.Errorf("%w: expected key, operator and value", ErrInvalidFilter)
	}
	return Filter{
		Key:      m["key"].(string),
		Operator: Operator(m["operator"].(string)),
		Value:    m["value"],
	}, nil
}

// UnmarshalJSON decodes a JSON array (or single node) of filters and groups.
func (fs *Filters) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*fs = parsed
	return nil
}
