// Package validation checks item data against Field definitions.
//
// A Validator owns an id-indexed snapshot of fields. Each value passes
// through three stages: a coercion chosen by field type, a type check, and
// the field's declared rules. Failures are returned as values carrying a
// human-readable message; nothing in the validation path returns an error.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds repeater nesting.
const DefaultMaxDepth = 16

// Errors.
var (
	ErrNoFields     = errors.New("must provide fields")
	ErrNoSelector   = errors.New("no field selector")
	ErrInvalidField = errors.New("invalid field definition")
)

// Recorder receives validation outcomes. adapters/metrics implements it.
type Recorder interface {
	RecordValidation(fieldType string, success bool)
	RecordFieldLoad(result string, loaded int)
}

// Options configures a Validator. At least one of Fields, FieldMap and
// FieldIDs must yield an identifier.
type Options struct {
	// Fields are caller-held definitions. A field without an id contributes
	// its children instead.
	Fields []field.Field
	// FieldMap is keyed by field id.
	FieldMap map[string]field.Field
	// FieldIDs are loaded from the store.
	FieldIDs []string

	Logger   zerolog.Logger
	Recorder Recorder

	// LenientRepeaterKeys skips repeater element keys that match no child
	// field instead of failing them.
	LenientRepeaterKeys bool
	// MaxDepth bounds repeater nesting; 0 means DefaultMaxDepth.
	MaxDepth int
}

// Input is one value to validate against a field given directly or by id.
type Input struct {
	Value   any
	Field   *field.Field
	FieldID string
}

// Result is the outcome of validating one value. Value holds the coerced
// value when Success is true.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Value   any    `json:"-"`
}

func pass(v any) Result      { return Result{Success: true, Value: v} }
func fail(msg string) Result { return Result{Message: msg} }

func failf(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// Validator validates values against a snapshot of fields.
type Validator struct {
	mu     sync.RWMutex
	fields map[string]field.Field

	roots []string
	ids   []string
	local map[string]field.Field

	logger   zerolog.Logger
	recorder Recorder
	lenient  bool
	maxDepth int
}

// New creates a validator over the fields named by opts. Caller-held
// definitions are usable immediately; ids alone need Load.
func New(opts Options) (*Validator, error) {
	v := &Validator{
		fields:   make(map[string]field.Field),
		local:    make(map[string]field.Field),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		lenient:  opts.LenientRepeaterKeys,
		maxDepth: opts.MaxDepth,
	}
	if v.maxDepth <= 0 {
		v.maxDepth = DefaultMaxDepth
	}

	seen := make(map[string]bool)
	addRoot := func(id string) {
		if ident.IsIdentifier(id) && !seen[id] {
			seen[id] = true
			v.roots = append(v.roots, id)
		}
	}

	var collect func(fs []field.Field) error
	collect = func(fs []field.Field) error {
		for _, f := range fs {
			for _, c := range f.Children {
				if !ident.IsIdentifier(c) {
					return fmt.Errorf("%w: field %q child %q is not an identifier", ErrInvalidField, f.Key, c)
				}
			}
			if !ident.IsIdentifier(f.ID) {
				for _, c := range f.Children {
					addRoot(c)
				}
				continue
			}
			if f.TypeID == "" {
				f.TypeID = item.TypeField
			}
			addRoot(f.ID)
			v.local[f.ID] = f
		}
		return nil
	}

	if err := collect(opts.Fields); err != nil {
		return nil, err
	}
	mapIDs := make([]string, 0, len(opts.FieldMap))
	for id := range opts.FieldMap {
		mapIDs = append(mapIDs, id)
	}
	sort.Strings(mapIDs)
	for _, id := range mapIDs {
		f := opts.FieldMap[id]
		if f.ID == "" {
			f.ID = id
		}
		if err := collect([]field.Field{f}); err != nil {
			return nil, err
		}
	}
	for _, id := range opts.FieldIDs {
		addRoot(id)
	}

	if len(v.roots) == 0 {
		return nil, ErrNoFields
	}

	v.ids = append(v.ids, v.roots...)
	for _, id := range v.roots {
		for _, c := range v.local[id].Children {
			if !seen[c] {
				seen[c] = true
				v.ids = append(v.ids, c)
			}
		}
	}
	for id, f := range v.local {
		v.fields[id] = f
	}
	return v, nil
}

// NewLoaded creates a validator and loads its fields from sel.
func NewLoaded(ctx context.Context, sel ports.ItemSelector, opts Options) (*Validator, error) {
	v, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := v.Load(ctx, sel); err != nil {
		return nil, err
	}
	return v, nil
}

// FieldIDs returns the ids the validator was constructed over.
func (v *Validator) FieldIDs() []string {
	out := make([]string, len(v.roots))
	copy(out, v.roots)
	return out
}

// Field returns a field from the snapshot.
func (v *Validator) Field(id string) (field.Field, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, ok := v.fields[id]
	return f, ok
}

// Fields returns the root fields present in the snapshot, in construction
// order.
func (v *Validator) Fields() []field.Field {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]field.Field, 0, len(v.roots))
	for _, id := range v.roots {
		if f, ok := v.fields[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// FieldByKey returns the first root field with the given key.
func (v *Validator) FieldByKey(key string) (field.Field, bool) {
	for _, f := range v.Fields() {
		if f.Key == key {
			return f, true
		}
	}
	return field.Field{}, false
}

// Load replaces the snapshot with the fields sel returns for the validator's
// ids, following repeater children until every reachable child is resolved
// or missing. Fields the store does not have fall back to caller-held
// copies. Store failures are logged and leave whatever was resolved; only
// a cancelled context is returned as an error.
func (v *Validator) Load(ctx context.Context, sel ports.ItemSelector) error {
	if sel == nil {
		return ErrNoSelector
	}

	loaded := make(map[string]field.Field)
	queried := make(map[string]bool)
	pending := append([]string(nil), v.ids...)
	failed := false

	for round := 0; len(pending) > 0 && round <= v.maxDepth; round++ {
		batch := make([]string, 0, len(pending))
		for _, id := range pending {
			if !queried[id] {
				queried[id] = true
				batch = append(batch, id)
			}
		}
		pending = nil
		if len(batch) == 0 {
			break
		}

		res, err := sel.SelectMultiple(ctx, ports.SelectOptions{
			ItemType: item.TypeField,
			ItemIDs:  batch,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			v.logger.Warn().Err(err).Strs("field_ids", batch).Msg("field load failed")
			failed = true
			break
		}

		for _, rec := range res.Results {
			f, err := field.FromRecord(rec)
			if err != nil {
				v.logger.Error().Err(err).Interface("id", rec[item.KeyID]).Msg("skipping undecodable field record")
				continue
			}
			loaded[f.ID] = f
		}

		for _, id := range batch {
			f, ok := loaded[id]
			if !ok {
				f, ok = v.local[id]
			}
			if !ok {
				continue
			}
			for _, c := range f.Children {
				if !queried[c] {
					pending = append(pending, c)
				}
			}
		}
	}

	fromStore := len(loaded)
	for id, f := range v.local {
		if _, ok := loaded[id]; !ok {
			loaded[id] = f
		}
	}

	var missing []string
	for id := range queried {
		if _, ok := loaded[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	result := "ok"
	switch {
	case failed:
		result = "error"
	case len(loaded) == 0:
		result = "empty"
		v.logger.Warn().Strs("field_ids", v.roots).Msg("no fields loaded")
	case len(missing) > 0:
		result = "partial"
		v.logger.Warn().Strs("missing", missing).Msg("some fields could not be loaded")
	}
	if v.recorder != nil {
		v.recorder.RecordFieldLoad(result, len(loaded))
	}
	v.logger.Debug().Int("from_store", fromStore).Int("total", len(loaded)).Msg("fields loaded")

	v.mu.Lock()
	v.fields = loaded
	v.mu.Unlock()
	return nil
}

// ValidateField resolves the field for in, coerces the value, type-checks
// it, validates repeater elements, and applies the field's rules. The first
// failure is returned.
func (v *Validator) ValidateField(in Input) Result {
	return v.validate(in, nil)
}

func (v *Validator) validate(in Input, chain []string) Result {
	if in.Field == nil && in.FieldID == "" {
		return fail("No field data available")
	}

	var f field.Field
	if in.Field != nil {
		f = *in.Field
	} else {
		var ok bool
		if f, ok = v.Field(in.FieldID); !ok {
			return fail("Unknown field type")
		}
	}
	if f.FieldType == "" {
		return fail("Unknown field type")
	}

	res := v.check(in.Value, f, chain)
	if v.recorder != nil {
		v.recorder.RecordValidation(string(f.FieldType), res.Success)
	}
	return res
}

func (v *Validator) check(raw any, f field.Field, chain []string) Result {
	val := v.TransformByFieldType(raw, f)

	if res := v.ValidateByFieldType(val, f); !res.Success {
		return res
	}

	if f.IsRepeater() {
		res := v.validateRepeater(val, f, chain)
		if !res.Success {
			return res
		}
		val = res.Value
	}

	for _, r := range f.Validation.Rules() {
		fn, ok := ruleFuncs[r]
		if !ok {
			v.logger.Error().Str("rule", string(r)).Str("field", f.Key).Msg("no function for validation rule")
			continue
		}
		if msg := fn(val, f); msg != "" {
			return fail(msg)
		}
	}
	return pass(val)
}

// FieldError is a failed key with its message.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Error implements error.
func (e FieldError) Error() string {
	return e.Key + ": " + e.Message
}

// Report is the outcome of validating a whole record.
type Report struct {
	Valid  bool
	Errors []FieldError
	// Data holds the coerced values of the keys that passed.
	Data item.Record
}

// ValidateData validates every key of data against the root field with the
// same key. Keys are visited in sorted order; unknown keys fail.
func (v *Validator) ValidateData(data item.Record) Report {
	rep := Report{Valid: true, Data: make(item.Record, len(data))}

	byKey := make(map[string]field.Field)
	for _, f := range v.Fields() {
		if _, dup := byKey[f.Key]; !dup {
			byKey[f.Key] = f
		}
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, ok := byKey[k]
		if !ok {
			rep.Valid = false
			rep.Errors = append(rep.Errors, FieldError{Key: k, Message: fmt.Sprintf("Unknown field key %q", k)})
			continue
		}
		res := v.ValidateField(Input{Value: data[k], Field: &f})
		if !res.Success {
			rep.Valid = false
			rep.Errors = append(rep.Errors, FieldError{Key: k, Message: res.Message})
			continue
		}
		rep.Data[k] = res.Value
	}
	return rep
}
