package domain

import (
	"math"
	"time"

	perr "marketfeed/internal/platform/errors"
	pstrings "marketfeed/internal/platform/strings"
)

// Sort is a feed ordering key
type Sort string

// Feed orderings
const (
	SortRandom     Sort = "random"
	SortNewest     Sort = "newest"
	SortPriceAsc   Sort = "price_asc"
	SortPriceDesc  Sort = "price_desc"
	SortPopularity Sort = "popularity"
	SortDistance   Sort = "distance"
)

// ParseSort accepts the canonical keys plus the hyphenated spellings
func ParseSort(s string) (Sort, bool) {
	switch s {
	case "":
		return SortNewest, true
	case "random":
		return SortRandom, true
	case "newest":
		return SortNewest, true
	case "price_asc", "price-asc", "price-ascending":
		return SortPriceAsc, true
	case "price_desc", "price-desc", "price-descending":
		return SortPriceDesc, true
	case "popularity", "popular":
		return SortPopularity, true
	case "distance":
		return SortDistance, true
	}
	return "", false
}

// Scope picks which listings a feed may show
type Scope string

// Feed scopes
const (
	ScopePublic  Scope = "public"
	ScopeArchive Scope = "archive"
)

// Page size bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FilterSortSpec describes one feed page request
type FilterSortSpec struct {
	Category    string
	Condition   string
	Query       string
	PostalCode  string
	RadiusMiles float64
	MinPrice    *float64
	MaxPrice    *float64
	SellerID    string
	Sort        Sort
	Page        int
	PageSize    int
	Seed        string
	Scope       Scope
	Actor       string

	// Origin and Now are resolved by the service before the store sees the spec
	Origin *GeoPoint
	Now    time.Time
}

// Normalize fills defaults and rejects combinations the store cannot serve
func (f FilterSortSpec) Normalize(maxPageSize int) (FilterSortSpec, error) {
	if maxPageSize <= 0 || maxPageSize > MaxPageSize {
		maxPageSize = MaxPageSize
	}
	f.Category = pstrings.Clean(f.Category)
	f.Condition = pstrings.Clean(f.Condition)
	f.Query = pstrings.Clean(f.Query)
	f.PostalCode = pstrings.Clean(f.PostalCode)
	f.SellerID = pstrings.Clean(f.SellerID)

	if f.Scope == "" {
		f.Scope = ScopePublic
	}
	if f.Scope == ScopeArchive && f.Actor == "" {
		return f, perr.Unauthorizedf("archived listings require a signed in seller")
	}
	sort, ok := ParseSort(string(f.Sort))
	if !ok {
		return f, perr.WithField(perr.InvalidArgf("unknown sort %q", f.Sort), "sort")
	}
	f.Sort = sort
	if f.Sort == SortDistance && f.PostalCode == "" {
		return f, perr.WithField(perr.InvalidArgf("distance sort requires a postal code"), "sort")
	}
	if f.PostalCode == "" {
		f.RadiusMiles = 0
	}
	if f.RadiusMiles < 0 {
		return f, perr.WithField(perr.InvalidArgf("radius must not be negative"), "radius")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, perr.WithField(perr.InvalidArgf("minPrice must not exceed maxPrice"), "minPrice")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = min(DefaultPageSize, maxPageSize)
	case f.PageSize > maxPageSize:
		f.PageSize = maxPageSize
	}
	// keeps Offset inside a postgres OFFSET and away from int overflow
	if f.Page > math.MaxInt32/f.PageSize {
		return f, perr.WithField(perr.InvalidArgf("page is out of range"), "page")
	}
	return f, nil
}

// Offset is the row offset of the requested page
func (f FilterSortSpec) Offset() int { return max(0, (f.Page-1)*f.PageSize) }

// Eligible reports whether l may appear in a feed of this scope at now.
// The store applies the same rule in SQL
func (f FilterSortSpec) Eligible(l Listing, now time.Time) bool {
	switch f.Scope {
	case ScopeArchive:
		return l.Status == StatusArchived && l.SellerID == f.Actor
	default:
		return l.Status == StatusActive && !l.ExpiresAt.Before(now)
	}
}

// ExpiredCursor resumes an expired-listings scan after the last row seen.
// The zero value starts from the oldest row
type ExpiredCursor struct {
	ExpiresAt time.Time
	ID        string
}

// CursorAfter positions a scan past l
func CursorAfter(l Listing) ExpiredCursor { return ExpiredCursor{ExpiresAt: l.ExpiresAt, ID: l.ID} }

// Start reports whether c is the zero cursor
func (c ExpiredCursor) Start() bool { return c.ID == "" }

// Before reports whether l sorts after the cursor in (expires_at, id) order
func (c ExpiredCursor) Before(l Listing) bool {
	if c.Start() {
		return true
	}
	if d := l.ExpiresAt.Compare(c.ExpiresAt); d != 0 {
		return d > 0
	}
	return l.ID > c.ID
}
