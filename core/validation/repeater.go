package validation

import (
	"fmt"
	"sort"

	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/value"
)

// ValidateRepeater validates every element of a repeater value against the
// field's children, matched by child key. nil is valid. The coerced
// elements are returned in Result.Value.
func (v *Validator) ValidateRepeater(val any, f field.Field) Result {
	return v.validateRepeater(val, f, nil)
}

func (v *Validator) validateRepeater(val any, f field.Field, chain []string) Result {
	if val == nil {
		return pass(nil)
	}
	list, ok := value.AsSlice(val)
	if !ok {
		return fail("Must be an array of values")
	}

	for _, id := range chain {
		if id == f.ID {
			return fail("Cyclic field reference")
		}
	}
	if len(chain) >= v.maxDepth {
		return fail("Field nesting too deep")
	}

	if len(f.Children) == 0 {
		return fail("No fields to compare")
	}
	byKey := make(map[string]field.Field, len(f.Children))
	for _, id := range f.Children {
		child, ok := v.Field(id)
		if !ok {
			return fail("No fields to compare")
		}
		byKey[child.Key] = child
	}

	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, f.ID)

	out := make([]any, len(list))
	for i, el := range list {
		entry, ok := value.AsMap(el)
		if !ok {
			return fail("Must be an array of objects")
		}

		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		coerced := make(map[string]any, len(entry))
		for _, k := range keys {
			child, ok := byKey[k]
			if !ok {
				if v.lenient {
					coerced[k] = entry[k]
					continue
				}
				return fail(fmt.Sprintf("Unknown field key %q", k))
			}
			res := v.validate(Input{Value: entry[k], Field: &child}, next)
			if !res.Success {
				return res
			}
			coerced[k] = res.Value
		}
		out[i] = coerced
	}
	return pass(out)
}
