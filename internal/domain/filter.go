package domain

import "strings"

// SortField selects the ordering column of a product listing.
type SortField string

const (
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
	// SortByDate orders by id: productos has no creation timestamp, so this
	// is a deterministic proxy and not a chronological sort.
	SortByDate SortField = "date"
)

// SortOrder is the direction of a product listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortField maps user input to a known field, defaulting to name.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortByPrice:
		return SortByPrice
	case SortByDate:
		return SortByDate
	default:
		return SortByName
	}
}

// ParseSortOrder maps user input to a direction, defaulting to ascending.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == SortDesc {
		return SortDesc
	}
	return SortAsc
}

// ProductFilter is the storefront listing request.
type ProductFilter struct {
	CategoryID *int64
	SearchTerm string
	SortBy     SortField
	SortOrder  SortOrder
	Page       int
	Limit      int
}

// Offset is the number of rows skipped before the page starts.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ProductQuery is what the store executes. A nil CategoryIDs means no
// category restriction.
type ProductQuery struct {
	CategoryIDs []int64
	Search      string
	SortBy      SortField
	SortOrder   SortOrder
	Limit       int
	Offset      int
}
