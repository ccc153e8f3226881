package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/ident"
)

// keyName is the shape of a catalog field key. Keys become JSON paths in
// the relational store, so they are limited to word characters.
var keyName = regexp.MustCompile(`^[A-Za-z0-9_]{1,50}$`)

// Catalog is a list of field definitions plus named sets of field ids.
type Catalog struct {
	Fields []field.Field       `yaml:"fields" json:"fields"`
	Sets   map[string][]string `yaml:"sets,omitempty" json:"sets,omitempty"`
}

// Field returns the field with the given id.
func (c Catalog) Field(id string) (field.Field, bool) {
	for _, f := range c.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return field.Field{}, false
}

// Set returns the fields of a named set in declaration order.
func (c Catalog) Set(name string) []field.Field {
	ids := c.Sets[name]
	out := make([]field.Field, 0, len(ids))
	for _, id := range ids {
		if f, ok := c.Field(id); ok {
			out = append(out, f)
		}
	}
	return out
}

// SetNames returns the set names, sorted.
func (c Catalog) SetNames() []string {
	names := make([]string, 0, len(c.Sets))
	for name := range c.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge combines catalogs. Later sets with the same name extend earlier ones.
func Merge(cs ...Catalog) Catalog {
	var out Catalog
	for _, c := range cs {
		out.Fields = append(out.Fields, c.Fields...)
		for name, ids := range c.Sets {
			if out.Sets == nil {
				out.Sets = make(map[string][]string)
			}
			out.Sets[name] = append(out.Sets[name], ids...)
		}
	}
	return out
}

// Check validates a catalog and reports every problem found.
func Check(c Catalog) error {
	var errs []string

	byID := make(map[string]field.Field, len(c.Fields))
	for i, f := range c.Fields {
		label := fmt.Sprintf("field %d (%s)", i, f.Key)
		if !ident.IsIdentifier(f.ID) {
			errs = append(errs, fmt.Sprintf("%s: id %q is not an identifier", label, f.ID))
			continue
		}
		if _, dup := byID[f.ID]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %s", label, f.ID))
			continue
		}
		byID[f.ID] = f

		if !keyName.MatchString(f.Key) {
			errs = append(errs, fmt.Sprintf("%s: key %q is not a valid key", label, f.Key))
		}
		if !f.FieldType.IsKnown() {
			errs = append(errs, fmt.Sprintf("%s: unknown field type %q", label, f.FieldType))
		}
		if len(f.Children) > 0 && !f.IsRepeater() {
			errs = append(errs, fmt.Sprintf("%s: only repeaters have children", label))
		}
	}

	for _, f := range c.Fields {
		seen := make(map[string]bool)
		for _, child := range f.Children {
			if seen[child] {
				errs = append(errs, fmt.Sprintf("field %s: child %s listed twice", f.Key, child))
			}
			seen[child] = true
			if _, ok := byID[child]; !ok {
				errs = append(errs, fmt.Sprintf("field %s: child %s not in catalog", f.Key, child))
			}
		}
	}

	for _, cycle := range findCycles(byID) {
		errs = append(errs, "cyclic children: "+strings.Join(cycle, " -> "))
	}

	for _, name := range c.SetNames() {
		for _, id := range c.Sets[name] {
			if _, ok := byID[id]; !ok {
				errs = append(errs, fmt.Sprintf("set %s: field %s not in catalog", name, id))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// findCycles walks repeater children depth first and returns each cycle
// as the list of keys along it.
func findCycles(byID map[string]field.Field) [][]string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(byID))
	var cycles [][]string
	var path []string

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var visit func(id string)
	visit = func(id string) {
		state[id] = active
		path = append(path, id)
		for _, child := range byID[id].Children {
			if _, ok := byID[child]; !ok {
				continue
			}
			switch state[child] {
			case unvisited:
				visit(child)
			case active:
				var keys []string
				start := len(path) - 1
				for start > 0 && path[start] != child {
					start--
				}
				for _, p := range path[start:] {
					keys = append(keys, byID[p].Key)
				}
				cycles = append(cycles, append(keys, byID[child].Key))
			}
		}
		path = path[:len(path)-1]
		state[id] = done
	}

	for _, id := range ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}
