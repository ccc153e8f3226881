package memory

import (
	"fmt"
	"sort"

	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/artpar/contentcore/domain/page"
	"github.com/artpar/contentcore/domain/value"
	"github.com/artpar/contentcore/ports"
	"github.com/rs/zerolog"
)

// Query evaluates opts against candidate records in memory: it forces the
// item type and id filters, applies the caller's filters, sorts, and cuts
// the requested page. Stores without a native query language share it.
func Query(recs []item.Record, opts ports.SelectOptions, logger zerolog.Logger) page.Result {
	h := filter.NewHandler(opts.Filters, logger)
	h.EnsureTypeFilter(opts.ItemType)
	if len(opts.ItemIDs) > 0 {
		ids := make([]any, len(opts.ItemIDs))
		for i, id := range opts.ItemIDs {
			ids[i] = id
		}
		h.Upsert(filter.In(item.KeyItemID, ids...))
	}

	matched := h.Apply(recs)
	Sort(matched, opts.Pagination)
	return page.Slice(matched, opts.Pagination)
}

// Sort orders records by the pagination sort key, falling back to id.
func Sort(recs []item.Record, o *page.Options) {
	key := item.KeyID
	desc := false
	if o != nil {
		if o.SortBy != "" {
			key = o.SortBy
		}
		desc = o.SortOrder == page.Desc
	}

	sort.SliceStable(recs, func(i, j int) bool {
		c := compare(recs[i][key], recs[j][key])
		if c == 0 {
			c = compare(recs[i][item.KeyID], recs[j][item.KeyID])
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compare orders nil first, then numbers, then everything else by its
// string form.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	an, aNum := value.ToNumber(a)
	bn, bNum := value.ToNumber(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	if aNum != bNum {
		if aNum {
			return -1
		}
		return 1
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
