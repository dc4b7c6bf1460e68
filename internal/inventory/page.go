package inventory

import (
	"fmt"
	"math"
)

// PageMeta describes progress through a paginated listing.
type PageMeta struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
	HasNext    bool
}

// NewPageMeta builds metadata for the 0-based page that just returned
// received items. TotalPages is derived from totalItems when the service did
// not report it; zero means unknown. HasNext is false after a short page or
// once the last known page has been returned.
func NewPageMeta(page, pageSize, totalItems, totalPages, received int) PageMeta {
	if totalPages == 0 && totalItems > 0 && pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}

	return PageMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: totalItems,
		HasNext:    received >= pageSize && (totalPages == 0 || page+1 < totalPages),
	}
}

// Label returns "n/total" (1-based), or "n/?" when the total is unknown.
func (m PageMeta) Label() string {
	if m.TotalPages > 0 {
		return fmt.Sprintf("%d/%d", m.Page+1, m.TotalPages)
	}
	return fmt.Sprintf("%d/?", m.Page+1)
}
