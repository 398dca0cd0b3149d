// Package models holds the records exchanged between the store, the services and their callers.
package models

// DefaultPageSize is the page size used when callers pass none.
const DefaultPageSize = 30

// PageRequest selects one page of an ordered listing. Pages are 1-based.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to a valid page and size.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Size < 1 {
		r.Size = DefaultPageSize
	}
	return r
}

// Offset is the number of rows skipped before the page.
func (r PageRequest) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.Size
}

// Page is one slice of an ordered listing. Requests past the end yield no items.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasNext  bool `json:"has_next"`
}

// NewPage assembles a page from the rows of req and the total row count.
func NewPage[T any](req PageRequest, items []T, total int) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     req.Page,
		PageSize: req.Size,
		Total:    total,
		HasNext:  req.Page*req.Size < total,
	}
}

// Paginate slices an already ordered in-memory listing.
func Paginate[T any](req PageRequest, all []T) Page[T] {
	req = req.Normalize()
	start := req.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(req, items, len(all))
}
