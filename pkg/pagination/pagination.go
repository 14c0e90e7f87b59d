package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultSize is the page size used when the caller does not specify one.
	DefaultSize = 20

	// MaxSize caps the page size to keep result payloads bounded.
	MaxSize = 100
)

// Params holds pagination parameters extracted from query strings.
// Pages are 0-indexed: page 0 is the first page.
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:   0,
		Size:   DefaultSize,
		Offset: 0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v >= 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= MaxSize {
			p.Size = v
		}
	}

	p.Offset = p.Page * p.Size
	return p
}

// Normalize clamps the params into their valid ranges and recomputes Offset.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	p.Offset = p.Page * p.Size
	return p
}

// TotalPages returns the number of pages needed to hold totalElements items.
func (p Params) TotalPages(totalElements int64) int {
	if totalElements <= 0 {
		return 0
	}
	pages := int(totalElements) / p.Size
	if int(totalElements)%p.Size > 0 {
		pages++
	}
	return pages
}
