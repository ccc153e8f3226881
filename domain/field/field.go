// Package field defines Field, the schema node describing one attribute of
// an item type.
package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/value"
	"gopkg.in/yaml.v3"
)

// Type is the category of a field. It selects both the value coercion and
// the type check applied during validation.
type Type string

// Field types.
const (
	TypeText         Type = "text"
	TypeTextarea     Type = "textarea"
	TypeNumber       Type = "number"
	TypeTimestamp    Type = "timestamp"
	TypeDropdown     Type = "dropdown"
	TypeToggle       Type = "toggle"
	TypeCheckbox     Type = "checkbox"
	TypeRadio        Type = "radio"
	TypeReadonly     Type = "readonly"
	TypeUUID         Type = "uuid"
	TypeUUIDArray    Type = "uuidArray"
	TypeItem         Type = "item"
	TypeItemArray    Type = "itemArray"
	TypeItemFilters  Type = "itemFilters"
	TypeRepeater     Type = "repeater"
	TypeFieldType    Type = "fieldType"
	TypeItemType     Type = "itemType"
	TypeItemFieldKey Type = "itemFieldKey"
)

var types = []Type{
	TypeText, TypeTextarea, TypeNumber, TypeTimestamp, TypeDropdown,
	TypeToggle, TypeCheckbox, TypeRadio, TypeReadonly, TypeUUID,
	TypeUUIDArray, TypeItem, TypeItemArray, TypeItemFilters, TypeRepeater,
	TypeFieldType, TypeItemType, TypeItemFieldKey,
}

// Types returns every known field type.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

// IsKnown reports whether t is a known field type.
func (t Type) IsKnown() bool {
	for _, k := range types {
		if k == t {
			return true
		}
	}
	return false
}

// KeyPattern is the shape of a field key.
var KeyPattern = regexp.MustCompile(`^[a-z0-9_]{0,50}$`)

// IsValidKey reports whether k may be used as a field key.
func IsValidKey(k string) bool {
	return KeyPattern.MatchString(k)
}

// Errors.
var (
	ErrUnknownRule     = errors.New("unknown validation rule")
	ErrInvalidChild    = errors.New("field children must be identifiers")
	ErrInvalidField    = errors.New("invalid field")
	ErrInvalidMaxItems = errors.New("maximumItems must be an integer")
)

// Field describes a single attribute of an item type.
type Field struct {
	item.Item `yaml:",inline"`

	Key                  string     `json:"key" yaml:"key"`
	Label                string     `json:"label,omitempty" yaml:"label,omitempty"`
	Icon                 string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	FieldType            Type       `json:"fieldType" yaml:"fieldType"`
	ItemType             string     `json:"itemType,omitempty" yaml:"itemType,omitempty"`
	ItemTypeFrom         string     `json:"itemTypeFrom,omitempty" yaml:"itemTypeFrom,omitempty"`
	IsPrimarySearchField bool       `json:"isPrimarySearchField,omitempty" yaml:"isPrimarySearchField,omitempty"`
	IsSearchable         bool       `json:"isSearchable,omitempty" yaml:"isSearchable,omitempty"`
	IsDefaultSortField   bool       `json:"isDefaultSortField,omitempty" yaml:"isDefaultSortField,omitempty"`
	MultiSelect          bool       `json:"multiSelect,omitempty" yaml:"multiSelect,omitempty"`
	Children             []string   `json:"children,omitempty" yaml:"children,omitempty"`
	MaximumItems         int        `json:"maximumItems,omitempty" yaml:"maximumItems,omitempty"`
	Validation           Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options              []any      `json:"options,omitempty" yaml:"options,omitempty"`
}

// IsRepeater reports whether f holds a list of sub-records.
func (f Field) IsRepeater() bool {
	return f.FieldType == TypeRepeater
}

// plain has Field's layout without its decoding methods.
type plain Field

// FromRecord decodes a store or catalog record into a Field, normalizing
// the legacy shapes older records carry.
func FromRecord(rec item.Record) (Field, error) {
	base, err := item.FromRecord(rec)
	if err != nil {
		return Field{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	body := item.WithoutBase(rec)
	if err := normalize(body); err != nil {
		return Field{}, err
	}

	var p plain
	if err := item.Decode(body, &p); err != nil {
		return Field{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	f := Field(p)
	f.Item = base
	if f.TypeID == "" {
		f.TypeID = item.TypeField
	}
	return f, nil
}

// Record encodes f into its record form.
func (f Field) Record() item.Record {
	rec, err := item.Encode(plain(f))
	if err != nil {
		// Options may hold values JSON cannot encode.
		rec = item.Record{}
	}
	for k, v := range f.Item.Record() {
		rec[k] = v
	}
	return rec
}

// UnmarshalJSON decodes and normalizes a field.
func (f *Field) UnmarshalJSON(data []byte) error {
	var rec item.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	parsed, err := FromRecord(rec)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalYAML decodes and normalizes a field from a YAML catalog.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	var rec item.Record
	if err := node.Decode(&rec); err != nil {
		return err
	}
	parsed, err := FromRecord(rec)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = parsed
	return nil
}

func normalize(body item.Record) error {
	switch c := body["children"].(type) {
	case nil:
	case string:
		body["children"] = []any{c}
	default:
		list, ok := value.AsSlice(c)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrInvalidChild, c)
		}
		body["children"] = list
	}
	if list, ok := body["children"].([]any); ok {
		for _, id := range list {
			if !ident.IsIdentifier(id) {
				return fmt.Errorf("%w: %v", ErrInvalidChild, id)
			}
		}
	}

	switch m := body["maximumItems"].(type) {
	case nil:
	case string:
		n, err := strconv.Atoi(m)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMaxItems, m)
		}
		body["maximumItems"] = n
	default:
		if !value.IsInteger(m) {
			return fmt.Errorf("%w: %v", ErrInvalidMaxItems, m)
		}
	}

	if v, ok := body["validation"]; ok && v != nil {
		rules, ok := value.AsMap(v)
		if !ok {
			return fmt.Errorf("%w: validation must be an object", ErrInvalidField)
		}
		for name := range rules {
			if !Rule(name).IsKnown() {
				return fmt.Errorf("%w: %q", ErrUnknownRule, name)
			}
		}
		// Older records list dropdown options under validation.options.
		if opts, isList := value.AsSlice(rules["options"]); isList {
			if _, has := body["options"]; !has {
				body["options"] = opts
			}
			rules = item.Clone(rules)
			rules["options"] = len(opts) > 0
			body["validation"] = rules
		}
	}
	return nil
}
