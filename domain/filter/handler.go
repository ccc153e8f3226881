package filter

import (
	"github.com/artpar/contentcore/domain/item"
	"github.com/rs/zerolog"
)

// Handler owns a working filter list for one query. It is not safe for
// concurrent mutation.
type Handler struct {
	filters Filters
	logger  zerolog.Logger
	observe func(matched bool)
}

// NewHandler creates a handler over a copy of fs.
func NewHandler(fs Filters, logger zerolog.Logger) *Handler {
	h := &Handler{logger: logger}
	h.filters = append(h.filters, fs...)
	return h
}

// Observe registers fn to be called with the outcome of every Matches call.
func (h *Handler) Observe(fn func(matched bool)) {
	h.observe = fn
}

// Filters returns a copy of the current filter list.
func (h *Handler) Filters() Filters {
	out := make(Filters, len(h.filters))
	copy(out, h.filters)
	return out
}

// EnsureTypeFilter appends a typeId == itemType filter unless a typeId
// filter restricting to that type is already present. An empty itemType is
// satisfied by any typeId filter.
func (h *Handler) EnsureTypeFilter(itemType string) {
	for _, n := range h.filters {
		f, ok := n.(Filter)
		if !ok || f.Key != item.KeyTypeID {
			continue
		}
		if itemType == "" || f.Value == itemType {
			return
		}
	}
	h.filters = append(h.filters, Eq(item.KeyTypeID, itemType))
}

// Upsert replaces the first filter with the same key, or appends n.
// Groups are always appended.
func (h *Handler) Upsert(n Node) {
	if f, ok := n.(Filter); ok {
		for i, existing := range h.filters {
			if ef, ok := existing.(Filter); ok && ef.Key == f.Key {
				h.filters[i] = f
				return
			}
		}
	}
	h.filters = append(h.filters, n)
}

// UpsertAll upserts every node of fs. An empty fs clears the list.
func (h *Handler) UpsertAll(fs Filters) {
	if len(fs) == 0 {
		h.filters = nil
		return
	}
	for _, n := range fs {
		h.Upsert(n)
	}
}

// Matches reports whether rec passes every filter. Unknown operators are
// logged and fail the record.
func (h *Handler) Matches(rec any) bool {
	matched := h.matches(rec)
	if h.observe != nil {
		h.observe(matched)
	}
	return matched
}

func (h *Handler) matches(rec any) bool {
	ok, err := Match(h.filters, rec)
	if err != nil {
		h.logger.Warn().Err(err).Msg("filter evaluation failed")
	}
	return ok
}

// Apply returns the records passing every filter, in order.
func (h *Handler) Apply(recs []item.Record) []item.Record {
	out := make([]item.Record, 0, len(recs))
	for _, rec := range recs {
		if h.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Merge concatenates lists, keeping the first filter per key and operator
// pair and every group.
func Merge(lists ...Filters) Filters {
	seen := make(map[string]bool)
	var out Filters
	for _, list := range lists {
		for _, n := range list {
			switch t := n.(type) {
			case Group:
				out = append(out, t)
			case Filter:
				hash := t.Key + "_" + string(t.Operator)
				if seen[hash] {
					continue
				}
				seen[hash] = true
				out = append(out, t)
			}
		}
	}
	return out
}
