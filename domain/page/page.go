// Package page provides pagination options and the paginated result shape
// returned by item stores.
package page

import (
	"context"
	"math"

	"github.com/artpar/contentcore/domain/item"
)

// SortOrder is asc or desc.
type SortOrder string

// Sort orders.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Options selects one page of results. Page is 1-based.
type Options struct {
	Page      int       `json:"page,omitempty" yaml:"page,omitempty"`
	PageSize  int       `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	SortBy    string    `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty" yaml:"sortOrder,omitempty"`
	TotalRows int       `json:"totalRows,omitempty" yaml:"totalRows,omitempty"`
}

// Default returns the first page of ten.
func Default() Options {
	return Options{Page: 1, PageSize: 10, TotalRows: 20}
}

// LimitOffset converts o into SQL-style bounds. A zero limit means no limit.
func LimitOffset(o *Options) (limit, offset int) {
	if o == nil || o.PageSize <= 0 {
		return 0, 0
	}
	limit = o.PageSize
	if o.Page > 0 {
		offset = (o.Page - 1) * o.PageSize
	}
	return limit, offset
}

// Result is one page of records.
type Result struct {
	Results    []item.Record `json:"results"`
	Pagination *Options      `json:"pagination,omitempty"`
	TotalItems int           `json:"totalItems"`
	HasMore    bool          `json:"hasMore"`
}

// Slice cuts the page described by o out of the full matching set.
func Slice(recs []item.Record, o *Options) Result {
	total := len(recs)
	limit, offset := LimitOffset(o)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	res := Result{
		Results:    recs[offset:end],
		TotalItems: total,
		HasMore:    end < total,
	}
	if o != nil {
		p := *o
		res.Pagination = &p
	}
	if res.Results == nil {
		res.Results = []item.Record{}
	}
	return res
}

// Handler steps through pages of a query.
type Handler struct {
	opts Options
}

// NewHandler starts from initial, or from Default when nil.
func NewHandler(initial *Options) *Handler {
	if initial == nil {
		return &Handler{opts: Default()}
	}
	return &Handler{opts: *initial}
}

// Options returns the current page options.
func (h *Handler) Options() *Options {
	o := h.opts
	return &o
}

// TotalPages is the page count implied by TotalRows, or 0 when unknown.
func (h *Handler) TotalPages() int {
	if h.opts.PageSize <= 0 || h.opts.TotalRows <= 0 {
		return 0
	}
	return int(math.Ceil(float64(h.opts.TotalRows) / float64(h.opts.PageSize)))
}

// IsDone reports whether the current page is the last one.
func (h *Handler) IsDone() bool {
	if h.opts.Page <= 0 || h.opts.PageSize <= 0 || h.opts.TotalRows <= 0 {
		return false
	}
	return h.opts.Page >= h.TotalPages()
}

// IncrementPage moves to the next page unless done.
func (h *Handler) IncrementPage() {
	if !h.IsDone() {
		h.opts.Page++
	}
}

// SetTotal records the total row count.
func (h *Handler) SetTotal(n int) { h.opts.TotalRows = n }

// SetPage moves to page n when it is within range.
func (h *Handler) SetPage(n int) {
	if n <= h.TotalPages() {
		h.opts.Page = n
	}
}

// SetPageSize sets the page size.
func (h *Handler) SetPageSize(n int) { h.opts.PageSize = n }

// SetSort sets the sort key.
func (h *Handler) SetSort(key string) { h.opts.SortBy = key }

// SetSortDirection sets the sort order.
func (h *Handler) SetSortDirection(o SortOrder) { h.opts.SortOrder = o }

// Fetch loads the page described by o.
type Fetch func(ctx context.Context, o *Options) (Result, error)

// ForEachPage calls fn with every page until the results run out, the total
// is reached, or maxPages pages were visited. maxPages <= 0 means no cap.
func ForEachPage(ctx context.Context, h *Handler, maxPages int, fetch Fetch, fn func(Result) error) error {
	for visited := 1; ; visited++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := fetch(ctx, h.Options())
		if err != nil {
			return err
		}
		if err := fn(res); err != nil {
			return err
		}
		h.SetTotal(res.TotalItems)
		if !res.HasMore || h.IsDone() || (maxPages > 0 && visited >= maxPages) {
			return nil
		}
		h.IncrementPage()
	}
}
