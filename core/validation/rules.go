package validation

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/value"
)

// RuleFunc checks an already coerced value. It returns "" on success and a
// display message on failure.
type RuleFunc func(val any, f field.Field) string

var ruleFuncs = map[field.Rule]RuleFunc{
	field.RuleRequired:          ruleRequired,
	field.RuleBetween:           ruleBetween,
	field.RuleOptions:           ruleOptions,
	field.RuleIsBoolean:         isBoolean,
	field.RuleIsString:          isString,
	field.RuleIsNumber:          isNumber,
	field.RuleIsArray:           isArray,
	field.RuleIsObject:          isObject,
	field.RuleIsTimestamp:       isTimestamp,
	field.RuleIsUUID:            isUUID,
	field.RuleIsUUIDArray:       isUUIDArray,
	field.RuleIsItemFilterArray: isItemFilterArray,
}

// RuleFor returns the function implementing r.
func RuleFor(r field.Rule) (RuleFunc, bool) {
	fn, ok := ruleFuncs[r]
	return fn, ok
}

// ruleRequired treats every falsy value as missing, including 0 and false.
func ruleRequired(val any, _ field.Field) string {
	if !value.Truthy(val) {
		return "You must enter a value"
	}
	return ""
}

func ruleOptions(val any, f field.Field) string {
	if len(f.Options) == 0 {
		return "No options to validate"
	}
	if list, ok := value.AsSlice(val); ok {
		for _, el := range list {
			if !hasOption(f.Options, el) {
				return "Values mismatch"
			}
		}
		return ""
	}
	_, isStr := val.(string)
	if (isStr || value.IsNumber(val)) && hasOption(f.Options, val) {
		return ""
	}
	return "Invalid selection"
}

func hasOption(opts []any, v any) bool {
	for _, o := range opts {
		if value.LooseEqual(o, v) {
			return true
		}
	}
	return false
}

// ruleBetween bounds the length of arrays, the value of number and
// timestamp fields, and the length of anything else as a string.
func ruleBetween(val any, f field.Field) string {
	b := f.Validation.Between
	if b == nil {
		return ""
	}
	if list, ok := value.AsSlice(val); ok {
		return numberBetween(float64(len(list)), b)
	}
	if f.FieldType == field.TypeNumber || f.FieldType == field.TypeTimestamp {
		if !value.IsNumber(val) {
			return "Invalid value"
		}
		n, _ := value.ToNumber(val)
		return numberBetween(n, b)
	}
	s, ok := val.(string)
	if !ok {
		return "Invalid value"
	}
	n := utf8.RuneCountInString(s)
	if b.Min != 0 && float64(n) < b.Min {
		return fmt.Sprintf("Must be greater than %s characters.", formatBound(b.Min))
	}
	if b.Max != 0 && float64(n) > b.Max {
		return fmt.Sprintf("Must be fewer than %s characters.", formatBound(b.Max))
	}
	return ""
}

// numberBetween treats a zero bound as absent.
func numberBetween(n float64, b *field.Between) string {
	if b.Min != 0 && n < b.Min {
		return fmt.Sprintf("Must be greater than %s.", formatBound(b.Min))
	}
	if b.Max != 0 && n > b.Max {
		return fmt.Sprintf("Must be less than %s.", formatBound(b.Max))
	}
	return ""
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
