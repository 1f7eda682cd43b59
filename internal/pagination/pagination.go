// Package pagination parses paging and sorting parameters from query
// strings for the message listing API, applying bounds and defaults.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// Params holds validated paging and sorting values. Page is 0-based.
type Params struct {
	Page      int
	Size      int
	SortField string
	Desc      bool
}

const (
	// MaxSize caps the number of items returned per page.
	MaxSize = 100
	// DefaultSize is used when the size parameter is absent or invalid.
	DefaultSize = 25
	// DefaultSortField orders message listings by their timestamp.
	DefaultSortField = "messageDate"
)

// FromQuery extracts paging parameters from URL query values.
// Unknown or out-of-range values fall back to defaults rather than failing:
// the listing API always answers with some sensible page.
func FromQuery(values url.Values) Params {
	p := Params{
		Page:      0,
		Size:      DefaultSize,
		SortField: DefaultSortField,
		Desc:      true,
	}
	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 0 {
			p.Page = page
		}
	}
	if raw := values.Get("size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			if size > MaxSize {
				size = MaxSize
			}
			p.Size = size
		}
	}
	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		p.SortField = raw
	}
	if raw := values.Get("sortDirection"); strings.EqualFold(raw, "ASC") {
		p.Desc = false
	}
	return p
}

// Offset computes the row offset for the current page.
func (p Params) Offset() int {
	if p.Page < 0 {
		return 0
	}
	return p.Page * p.Size
}
