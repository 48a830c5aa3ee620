package domain

import (
	"context"
	"time"
)

// StorageRepo is the listing store contract
type StorageRepo interface {
	// Get returns NotFound when the id does not exist
	Get(ctx context.Context, id string) (Listing, error)
	// GetForUpdate is Get with a row lock when run inside a transaction
	GetForUpdate(ctx context.Context, id string) (Listing, error)
	// UpdateStatus applies c only when its predicate holds; ok is false otherwise
	UpdateStatus(ctx context.Context, c StatusChange) (l Listing, ok bool, err error)
	// Query returns one feed page and whether another row exists past it
	Query(ctx context.Context, f FilterSortSpec) (items []Listing, hasMore bool, err error)
	// QueryExpiredActive lists active listings whose expires_at < now that sort
	// after the cursor, oldest first
	QueryExpiredActive(ctx context.Context, now time.Time, after ExpiredCursor, limit int) ([]Listing, error)
	Insert(ctx context.Context, l Listing) (Listing, error)
	UpdateContent(ctx context.Context, l Listing) (Listing, error)
	// IncrementViews bumps the view counter of a non-deleted listing
	IncrementViews(ctx context.Context, id string) (Listing, error)
}

// Geocoder resolves a postal code; ok is false for unknown codes
type Geocoder interface {
	Locate(ctx context.Context, postalCode string) (p GeoPoint, ok bool, err error)
}

// EventSink receives lifecycle events; failures never change the operation result
type EventSink interface {
	Name() string
	Emit(ctx context.Context, e Event) error
}

// ServicePort is the listings service contract used by transports and other modules
type ServicePort interface {
	Create(ctx context.Context, actor Actor, in NewListing) (Listing, error)
	Update(ctx context.Context, id string, actor Actor, p ListingPatch) (Listing, error)
	Get(ctx context.Context, id string) (Listing, error)
	View(ctx context.Context, id string) (Listing, error)

	Archive(ctx context.Context, id string, actor Actor) (Listing, error)
	Relist(ctx context.Context, id string, actor Actor) (Listing, error)
	Delete(ctx context.Context, id string, actor Actor) (Listing, error)
	AutoExpire(ctx context.Context, id string) (Listing, error)

	ApplyBulk(ctx context.Context, ids []string, t Transition, actor Actor) (BulkResult, error)
	ApplySelection(ctx context.Context, sel Selection, t Transition, actor Actor) (BulkResult, error)
	Feed(ctx context.Context, f FilterSortSpec) (Page, error)

	QueryExpiredActive(ctx context.Context, now time.Time, after ExpiredCursor, limit int) ([]Listing, error)
}
