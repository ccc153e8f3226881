package validation

import (
	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/domain/value"
)

// TransformByFieldType coerces val for number and timestamp fields. Values
// that do not coerce, and values of every other type, are returned as is.
func (v *Validator) TransformByFieldType(val any, f field.Field) any {
	switch f.FieldType {
	case field.TypeNumber, field.TypeTimestamp:
		if n, ok := value.ToNumber(val); ok {
			return n
		}
	}
	return val
}

// ValidateByFieldType runs the single type check selected by the field type.
func (v *Validator) ValidateByFieldType(val any, f field.Field) Result {
	var msg string
	switch f.FieldType {
	case field.TypeText, field.TypeTextarea:
		msg = isString(val, f)
	case field.TypeNumber:
		msg = isNumber(val, f)
	case field.TypeTimestamp:
		msg = isTimestamp(val, f)
	case field.TypeUUID, field.TypeItem:
		msg = isUUID(val, f)
	case field.TypeUUIDArray, field.TypeItemArray:
		msg = isUUIDArray(val, f)
	case field.TypeDropdown:
		if isPrimitive(val) != "" && isPrimitiveArray(val) != "" {
			msg = "Must be a valid dropdown"
		}
	case field.TypeCheckbox:
		msg = isArray(val, f)
	case field.TypeRadio:
		msg = isPrimitive(val)
	case field.TypeToggle:
		msg = isBoolean(val, f)
	case field.TypeRepeater:
		if _, ok := value.AsSlice(val); val != nil && !ok {
			msg = "Must be an array of values"
		}
	case field.TypeItemFilters:
		msg = isItemFilterArray(val, f)
	case field.TypeFieldType:
		if s, ok := val.(string); !ok || !field.Type(s).IsKnown() {
			msg = "Must be a known field type"
		}
	case field.TypeItemFieldKey:
		if s, ok := val.(string); !ok || !field.IsValidKey(s) {
			msg = "Must be a valid field key"
		}
	case field.TypeItemType:
		// Item types are registered at runtime, so only the shape is checked.
		if s, ok := val.(string); !ok || s == "" {
			msg = "Must be a known item type"
		}
	case field.TypeReadonly:
		msg = "Field is readonly"
	default:
		return failf("Unknown field type %s", f.FieldType)
	}
	if msg != "" {
		return fail(msg)
	}
	return pass(val)
}

// ValidateForKey is the older per-type dispatcher. Checkbox and radio have
// no check here and are reported as unhandled.
//
// Deprecated: use ValidateField.
func (v *Validator) ValidateForKey(val any, f field.Field) Result {
	var msg string
	switch f.FieldType {
	case field.TypeCheckbox, field.TypeRadio:
		return failf("Unhandled field type %s", f.FieldType)
	case field.TypeDropdown:
		msg = ruleOptions(val, f)
	case field.TypeNumber:
		msg = isNumber(val, f)
	case field.TypeText, field.TypeTextarea:
		msg = isString(val, f)
	case field.TypeTimestamp:
		msg = isTimestamp(val, f)
	case field.TypeItem, field.TypeUUID:
		msg = isUUID(val, f)
	case field.TypeItemArray, field.TypeUUIDArray:
		msg = isUUIDArray(val, f)
	case field.TypeRepeater:
		msg = isArray(val, f)
	case field.TypeReadonly:
		msg = "Field is readonly"
	default:
		return failf("Unknown field type %s", f.FieldType)
	}
	if msg != "" {
		return fail(msg)
	}
	return pass(val)
}

func isBoolean(val any, _ field.Field) string {
	if _, ok := val.(bool); !ok {
		return "Must be a boolean"
	}
	return ""
}

func isString(val any, _ field.Field) string {
	if _, ok := val.(string); !ok {
		return "Must be a string"
	}
	return ""
}

func isNumber(val any, _ field.Field) string {
	if _, ok := value.ToNumber(val); !ok {
		return "Must be a number"
	}
	return ""
}

func isArray(val any, _ field.Field) string {
	if _, ok := value.AsSlice(val); !ok {
		return "Must be an array"
	}
	return ""
}

func isObject(val any, _ field.Field) string {
	if _, ok := value.AsMap(val); !ok {
		return "Must be an object"
	}
	return ""
}

func isTimestamp(val any, _ field.Field) string {
	n, ok := value.ToNumber(val)
	if !ok || !value.IsInteger(n) || n <= 1e9 {
		return "Must be a timestamp"
	}
	return ""
}

func isUUID(val any, _ field.Field) string {
	if !ident.IsIdentifier(val) {
		return "Must be an ID"
	}
	return ""
}

func isUUIDArray(val any, _ field.Field) string {
	list, ok := value.AsSlice(val)
	if !ok {
		return "Must be a list of IDs"
	}
	for _, id := range list {
		if !ident.IsIdentifier(id) {
			return "Must be a list of IDs"
		}
	}
	return ""
}

// isItemFilterArray accepts a single filter or group. Lists are rejected
// despite the message.
func isItemFilterArray(val any, _ field.Field) string {
	if filter.IsFilter(val) || filter.IsGroup(val) {
		return ""
	}
	return "Must be a valid array of filters or filter groups"
}

func isPrimitive(val any) string {
	if !value.IsPrimitive(val) {
		return "Must be a primitive"
	}
	return ""
}

func isPrimitiveArray(val any) string {
	list, ok := value.AsSlice(val)
	if !ok {
		return "Must be a primitive array"
	}
	for _, el := range list {
		if !value.IsPrimitive(el) {
			return "Must be a primitive array"
		}
	}
	return ""
}
