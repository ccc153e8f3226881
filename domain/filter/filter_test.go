package filter_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/rs/zerolog"
)

func TestEvaluate_Idempotent(t *testing.T) {
	f := filter.Filter{Key: "count", Operator: filter.OpGreater, Value: "3"}
	rec := item.Record{"count": 4}

	first := filter.Evaluate(f, rec)
	for i := 0; i < 10; i++ {
		if got := filter.Evaluate(f, rec); got != first {
			t.Fatalf("Evaluate() run %d = %v, want %v", i, got, first)
		}
	}
	if !first {
		t.Error("Evaluate(4 > \"3\") = false, want true")
	}
}

func TestEvaluateNode_Groups(t *testing.T) {
	rec := item.Record{"status": 2}
	children := []filter.Filter{
		filter.Eq("status", 2),
		filter.Eq("status", 3),
	}

	if !filter.EvaluateNode(filter.Or(children...), rec) {
		t.Error("or group = false, want true")
	}
	if filter.EvaluateNode(filter.And(children...), rec) {
		t.Error("and group = true, want false")
	}
	if !filter.EvaluateNode(filter.And(children[0]), rec) {
		t.Error("and group with single passing child = false, want true")
	}
	if filter.EvaluateNode(filter.Group{Group: "xor", Children: children}, rec) {
		t.Error("unknown group type = true, want false")
	}
}

func TestEvaluate_Fuzzy(t *testing.T) {
	f := filter.Filter{Key: "title", Operator: filter.OpFuzzy, Value: "Foo"}

	if !filter.Evaluate(f, item.Record{"title": "xFooBar"}) {
		t.Error("~Foo on xFooBar = false, want true")
	}
	if !filter.Evaluate(f, item.Record{"title": "xfoobar"}) {
		t.Error("~Foo on xfoobar = false, want true")
	}
	if filter.Evaluate(f, item.Record{"title": "Baz"}) {
		t.Error("~Foo on Baz = true, want false")
	}
	empty := filter.Filter{Key: "title", Operator: filter.OpFuzzy, Value: ""}
	if !filter.Evaluate(empty, item.Record{"other": 1}) {
		t.Error("empty ~ on missing value = false, want true")
	}
	if filter.Evaluate(f, item.Record{"title": 12}) {
		t.Error("~Foo on number = true, want false")
	}
}

func TestEvaluate_InNotIn(t *testing.T) {
	in := filter.Filter{Key: "itemId", Operator: filter.OpIn, Value: []any{"a", "b"}}
	notIn := filter.Filter{Key: "itemId", Operator: filter.OpNotIn, Value: []any{"a", "b"}}

	b := item.Record{"itemId": "b"}
	c := item.Record{"itemId": "c"}

	if !filter.Evaluate(in, b) {
		t.Error("in on b = false, want true")
	}
	if filter.Evaluate(notIn, b) {
		t.Error("not-in on b = true, want false")
	}
	if !filter.Evaluate(notIn, c) {
		t.Error("not-in on c = false, want true")
	}
	if filter.Evaluate(in, c) {
		t.Error("in on c = true, want false")
	}
	if !filter.Evaluate(notIn, item.Record{"title": "x"}) {
		t.Error("not-in on missing value = false, want true")
	}
	if !filter.Evaluate(in, item.Record{"id": "a"}) {
		t.Error("itemId should fall back to id")
	}
	if filter.Evaluate(filter.Filter{Key: "n", Operator: filter.OpIn, Value: "a"}, item.Record{"n": "a"}) {
		t.Error("in with non-array value = true, want false")
	}
}

func TestEvaluate_InLooseEquality(t *testing.T) {
	f := filter.Filter{Key: "n", Operator: filter.OpArrayContainsAny, Value: []any{"1", 2}}
	if !filter.Evaluate(f, item.Record{"n": 1}) {
		t.Error("1 in [\"1\", 2] = false, want true")
	}
	if !filter.Evaluate(f, item.Record{"n": "2"}) {
		t.Error("\"2\" in [\"1\", 2] = false, want true")
	}
	if !filter.Evaluate(f, item.Record{"n": []any{"x", 2}}) {
		t.Error("list overlapping values = false, want true")
	}
}

func TestEvaluate_EqualityAndComparison(t *testing.T) {
	tests := []struct {
		name string
		f    filter.Filter
		rec  item.Record
		want bool
	}{
		{"string eq string", filter.Eq("s", "a"), item.Record{"s": "a"}, true},
		{"string eq number", filter.Eq("n", "5"), item.Record{"n": 5}, true},
		{"number eq numeric string", filter.Eq("n", 5), item.Record{"n": "5"}, true},
		{"number eq non numeric", filter.Eq("n", 5), item.Record{"n": "x"}, false},
		{"eq nil on missing", filter.Eq("n", nil), item.Record{"other": 1}, true},
		{"ne string strict", filter.Filter{Key: "n", Operator: filter.OpNotEqual, Value: "5"}, item.Record{"n": 5}, true},
		{"ne string same", filter.Filter{Key: "s", Operator: filter.OpNotEqual, Value: "a"}, item.Record{"s": "a"}, false},
		{"ne number", filter.Filter{Key: "n", Operator: filter.OpNotEqual, Value: 4}, item.Record{"n": 5}, true},
		{"lt", filter.Filter{Key: "n", Operator: filter.OpLess, Value: 10}, item.Record{"n": 3}, true},
		{"lte equal", filter.Filter{Key: "n", Operator: filter.OpLessOrEqual, Value: 3}, item.Record{"n": "3"}, true},
		{"gt false", filter.Filter{Key: "n", Operator: filter.OpGreater, Value: 10}, item.Record{"n": 3}, false},
		{"gte", filter.Filter{Key: "n", Operator: filter.OpGreaterOrEqual, Value: 3}, item.Record{"n": 3}, true},
		{"gt non numeric", filter.Filter{Key: "n", Operator: filter.OpGreater, Value: 1}, item.Record{"n": "abc"}, false},
		{"gt missing", filter.Filter{Key: "n", Operator: filter.OpGreater, Value: 1}, item.Record{"m": 5}, false},
		{"json data string", filter.Eq("title", "x"), item.Record{"id": "1", "jsonData": `{"title":"x"}`}, true},
		{"json data map", filter.Eq("title", "x"), item.Record{"id": "1", "jsonData": map[string]any{"title": "x"}}, true},
		{"unknown operator", filter.Filter{Key: "n", Operator: "=~", Value: 1}, item.Record{"n": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Evaluate(tt.f, tt.rec); got != tt.want {
				t.Errorf("Evaluate(%+v, %v) = %v, want %v", tt.f, tt.rec, got, tt.want)
			}
		})
	}
}

func TestMatchesAll(t *testing.T) {
	fs := filter.Filters{
		filter.Eq("typeId", "Page"),
		filter.Or(filter.Eq("status", 1), filter.Eq("status", 2)),
	}

	if !filter.MatchesAll(nil, "anything") {
		t.Error("empty filters should match anything")
	}
	if filter.MatchesAll(fs, "not a record") {
		t.Error("non-object record should not match")
	}
	if filter.MatchesAll(fs, item.Record{}) {
		t.Error("empty record should not match")
	}
	if !filter.MatchesAll(fs, item.Record{"typeId": "Page", "status": 2}) {
		t.Error("matching record rejected")
	}
	if filter.MatchesAll(fs, item.Record{"typeId": "Page", "status": 3}) {
		t.Error("record failing group accepted")
	}
}

func TestMatch_ReportsUnknownOperator(t *testing.T) {
	rec := item.Record{"a": 1}
	bad := filter.Filter{Key: "a", Operator: "like", Value: 1}

	tests := []struct {
		name    string
		fs      filter.Filters
		want    bool
		wantErr error
	}{
		{"known", filter.Filters{filter.Eq("a", 1)}, true, nil},
		{"unknown", filter.Filters{bad}, false, filter.ErrUnknownOperator},
		{"unknown in and", filter.Filters{filter.And(filter.Eq("a", 1), bad)}, false, filter.ErrUnknownOperator},
		{"unknown in or", filter.Filters{filter.Or(bad)}, false, filter.ErrUnknownOperator},
		{"or rescued", filter.Filters{filter.Or(bad, filter.Eq("a", 1))}, true, nil},
		{"earlier miss", filter.Filters{filter.Eq("a", 2), bad}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Match(tt.fs, rec)
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Match() error = %v, want %v", err, tt.wantErr)
			}
			if filter.MatchesAll(tt.fs, rec) != tt.want {
				t.Errorf("MatchesAll() disagrees with Match()")
			}
		})
	}
}

func TestHandler_LogsUnknownOperator(t *testing.T) {
	var buf bytes.Buffer
	h := filter.NewHandler(filter.Filters{filter.Filter{Key: "a", Operator: "like", Value: 1}}, zerolog.New(&buf))

	if h.Matches(item.Record{"a": 1}) {
		t.Error("Matches() = true, want false for an unknown operator")
	}
	if !strings.Contains(buf.String(), "unknown") {
		t.Errorf("log = %q, want the unknown operator reported", buf.String())
	}
}

func TestEvaluate_EqualNil(t *testing.T) {
	f := filter.Eq("deletedAt", nil)

	if !filter.Evaluate(f, item.Record{"title": "a"}) {
		t.Error("Evaluate(absent == nil) = false, want true")
	}
	if !filter.Evaluate(f, item.Record{"deletedAt": nil}) {
		t.Error("Evaluate(nil == nil) = false, want true")
	}
	if filter.Evaluate(f, item.Record{"deletedAt": 0}) {
		t.Error("Evaluate(0 == nil) = true, want false")
	}
}

func TestIsFilterAndIsGroup(t *testing.T) {
	tests := []struct {
		v       any
		filter  bool
		isGroup bool
	}{
		{map[string]any{"key": "a", "operator": "==", "value": 1}, true, false},
		{map[string]any{"key": "a", "operator": "=="}, true, false},
		{map[string]any{"key": "a", "operator": "eq", "value": 1}, false, false},
		{map[string]any{"key": 1, "operator": "==", "value": 1}, false, false},
		{map[string]any{"key": "a", "operator": "==", "value": 1, "extra": true}, false, false},
		{map[string]any{}, false, false},
		{map[string]any{"group": "and", "children": []any{}}, false, true},
		{map[string]any{"group": "", "children": []any{}}, false, false},
		{map[string]any{"group": "or", "children": "x"}, false, false},
		{filter.Eq("a", 1), true, false},
		{filter.And(filter.Eq("a", 1)), false, true},
		{"string", false, false},
	}
	for _, tt := range tests {
		if got := filter.IsFilter(tt.v); got != tt.filter {
			t.Errorf("IsFilter(%v) = %v, want %v", tt.v, got, tt.filter)
		}
		if got := filter.IsGroup(tt.v); got != tt.isGroup {
			t.Errorf("IsGroup(%v) = %v, want %v", tt.v, got, tt.isGroup)
		}
	}
}

func TestParse(t *testing.T) {
	var fs filter.Filters
	data := `[
		{"key": "typeId", "operator": "==", "value": "Page"},
		{"group": "or", "children": [
			{"key": "status", "operator": "==", "value": 1},
			{"key": "status", "operator": "==", "value": 2}
		]}
	]`
	if err := json.Unmarshal([]byte(data), &fs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("len(fs) = %d, want 2", len(fs))
	}
	g, ok := fs[1].(filter.Group)
	if !ok || g.Group != filter.GroupOr || len(g.Children) != 2 {
		t.Errorf("fs[1] = %#v", fs[1])
	}

	out, err := json.Marshal(fs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var again filter.Filters
	if err := json.Unmarshal(out, &again); err != nil || len(again) != 2 {
		t.Errorf("re-decode = %v, %v", again, err)
	}

	single, err := filter.Parse(map[string]any{"key": "a", "operator": "in", "value": []any{1}})
	if err != nil || len(single) != 1 {
		t.Errorf("Parse(single) = %v, %v", single, err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want error
	}{
		{"nested group", map[string]any{"group": "and", "children": []any{
			map[string]any{"group": "or", "children": []any{}},
		}}, filter.ErrNestedGroup},
		{"unknown group", map[string]any{"group": "xor", "children": []any{}}, filter.ErrUnknownGroup},
		{"unknown operator", []any{map[string]any{"key": "a", "operator": "like", "value": 1}}, filter.ErrUnknownOperator},
		{"not an object", []any{"a"}, filter.ErrInvalidFilter},
		{"extra key", map[string]any{"key": "a", "operator": "==", "value": 1, "x": 1}, filter.ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := filter.Parse(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandler_EnsureTypeFilter(t *testing.T) {
	h := filter.NewHandler(nil, zerolog.Nop())
	h.EnsureTypeFilter("Field")
	h.EnsureTypeFilter("Field")
	if got := len(h.Filters()); got != 1 {
		t.Fatalf("len(filters) = %d, want 1", got)
	}
	h.EnsureTypeFilter("")
	if got := len(h.Filters()); got != 1 {
		t.Errorf("empty type added a filter, len = %d", got)
	}
	h.EnsureTypeFilter("Page")
	if got := len(h.Filters()); got != 2 {
		t.Errorf("len(filters) = %d, want 2", got)
	}
}

func TestHandler_Upsert(t *testing.T) {
	h := filter.NewHandler(filter.Filters{filter.Eq("a", 1), filter.Eq("b", 2)}, zerolog.Nop())
	h.Upsert(filter.Filter{Key: "a", Operator: filter.OpGreater, Value: 5})
	h.Upsert(filter.Eq("c", 3))
	h.Upsert(filter.Or(filter.Eq("a", 1)))

	fs := h.Filters()
	if len(fs) != 4 {
		t.Fatalf("len(filters) = %d, want 4", len(fs))
	}
	if f := fs[0].(filter.Filter); f.Operator != filter.OpGreater {
		t.Errorf("fs[0] = %+v, want replaced filter", f)
	}

	h.UpsertAll(nil)
	if len(h.Filters()) != 0 {
		t.Error("UpsertAll(nil) should clear the list")
	}
}

func TestHandler_MatchesAndApply(t *testing.T) {
	h := filter.NewHandler(filter.Filters{filter.Eq("typeId", "Page")}, zerolog.Nop())
	var outcomes []bool
	h.Observe(func(matched bool) { outcomes = append(outcomes, matched) })

	recs := []item.Record{
		{"id": "1", "typeId": "Page"},
		{"id": "2", "typeId": "Block"},
		{"id": "3", "typeId": "Page"},
	}
	got := h.Apply(recs)
	if len(got) != 2 || got[0]["id"] != "1" || got[1]["id"] != "3" {
		t.Errorf("Apply() = %v", got)
	}
	if len(outcomes) != 3 {
		t.Errorf("observed %d outcomes, want 3", len(outcomes))
	}

	bad := filter.NewHandler(filter.Filters{filter.Filter{Key: "a", Operator: "??", Value: 1}}, zerolog.Nop())
	if bad.Matches(item.Record{"a": 1}) {
		t.Error("unknown operator matched")
	}
}

func TestMerge(t *testing.T) {
	g := filter.And(filter.Eq("x", 1))
	got := filter.Merge(
		filter.Filters{filter.Eq("a", 1), g},
		nil,
		filter.Filters{filter.Eq("a", 2), filter.In("a", 1), g},
	)
	if len(got) != 4 {
		t.Fatalf("len(Merge()) = %d, want 4: %v", len(got), got)
	}
	if f := got[0].(filter.Filter); f.Value != 1 {
		t.Errorf("Merge kept %v, want first a== filter", f.Value)
	}
}
