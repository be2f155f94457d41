package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is a window over an already ordered result set.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
	Offset  int   `json:"-"`
}

// New clamps page and limit and computes the window for total items.
func New(page, limit int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages < 1 {
		pages = 1
	}

	return &Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
		Offset:  (page - 1) * limit,
	}
}

// FromQuery parses ?page and ?limit. ok is false when neither is present,
// meaning the caller should return everything.
func FromQuery(pageStr, limitStr string) (page, limit int, ok bool) {
	if pageStr == "" && limitStr == "" {
		return 0, 0, false
	}
	page, _ = strconv.Atoi(pageStr)
	limit, _ = strconv.Atoi(limitStr)
	return page, limit, true
}

// SetHeaders exposes the window on the response so list bodies can stay
// plain arrays.
func (p *Pagination) SetHeaders(h http.Header) {
	h.Set("X-Total-Count", strconv.FormatInt(p.Total, 10))
	h.Set("X-Page", strconv.Itoa(p.Page))
	h.Set("X-Per-Page", strconv.Itoa(p.Limit))
	h.Set("X-Total-Pages", strconv.Itoa(p.Pages))
}

// Slice returns the items that fall inside p.
func Slice[T any](items []T, p *Pagination) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
