package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Options selects a page. Page is 1-based.
type Options struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps page and limit into their valid ranges.
func (o Options) Normalize() Options {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	return o
}

// Skip returns the number of items before the page.
func (o Options) Skip() int {
	o = o.Normalize()
	return (o.Page - 1) * o.Limit
}

// Page is one page of results plus totals.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage builds a Page from items and the total count.
func NewPage[T any](items []T, total int64, o Options) Page[T] {
	o = o.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(o.Limit) - 1) / int64(o.Limit))
	return Page[T]{Items: items, Total: total, Page: o.Page, Limit: o.Limit, TotalPages: pages}
}

// Slice pages an in-memory slice.
func Slice[T any](all []T, o Options) Page[T] {
	o = o.Normalize()
	start := o.Skip()
	if start > len(all) {
		start = len(all)
	}
	end := start + o.Limit
	if end > len(all) {
		end = len(all)
	}
	return NewPage(append([]T(nil), all[start:end]...), int64(len(all)), o)
}
