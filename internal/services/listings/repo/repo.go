// Package repo provides postgres access for listings
package repo

import (
	"context"
	_ "embed"
	"time"

	"marketfeed/internal/modkit/repokit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/store"
	pstrings "marketfeed/internal/platform/strings"
	"marketfeed/internal/services/listings/domain"
)

// Schema is the listings DDL, applied by migrations and integration tests
//
//go:embed schema.sql
var Schema string

// Repo is the listing store; it is exactly the domain storage port
type Repo interface {
	domain.StorageRepo
}

type (
	// PG implements Repo using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

var _ Repo = (*queries)(nil)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Migrate applies the listings schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(store.WithStatement(ctx, "apply listings schema"), Schema)
	return perr.FromPostgres(err, "apply listings schema")
}

const cols = `
	l.id::text, l.seller_id, l.title, l.description, l.price::float8, l.category, l.condition,
	l.location, l.postal_code, l.latitude, l.longitude, l.images,
	l.vehicle_year, l.vehicle_make, l.vehicle_model, l.key_type, l.transponder_type,
	l.views, l.status, l.created_at, l.listed_at, l.expires_at, l.archived_at, l.updated_at`

func scanListing(r repokit.Row) (domain.Listing, error) {
	return scanListingExtra(r)
}

// scanListingExtra scans the listing columns followed by extra destinations
func scanListingExtra(r repokit.Row, extra ...any) (domain.Listing, error) {
	var (
		l      domain.Listing
		status string
	)
	dst := []any{
		&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Category, &l.Condition,
		&l.Location, &l.PostalCode, &l.Latitude, &l.Longitude, &l.Images,
		&l.Vehicle.Year, &l.Vehicle.Make, &l.Vehicle.Model, &l.KeyType, &l.TransponderType,
		&l.Views, &status, &l.CreatedAt, &l.ListedAt, &l.ExpiresAt, &l.ArchivedAt, &l.UpdatedAt,
	}
	if err := r.Scan(append(dst, extra...)...); err != nil {
		return domain.Listing{}, err
	}
	l.Status = domain.Status(status)
	if l.Images == nil {
		l.Images = []string{}
	}
	return l, nil
}

func (r *queries) one(ctx context.Context, op, sql string, args ...any) (domain.Listing, error) {
	l, err := store.One(store.WithStatement(ctx, op), r.q, scanListing, sql, args...)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Listing{}, err
		}
		return domain.Listing{}, perr.FromPostgres(err, op)
	}
	return l, nil
}

func (r *queries) Get(ctx context.Context, id string) (domain.Listing, error) {
	return r.one(ctx, "get listing", `SELECT `+cols+` FROM listings l WHERE l.id = $1`, id)
}

func (r *queries) GetForUpdate(ctx context.Context, id string) (domain.Listing, error) {
	return r.one(ctx, "lock listing", `SELECT `+cols+` FROM listings l WHERE l.id = $1 FOR UPDATE`, id)
}

func (r *queries) UpdateStatus(ctx context.Context, c domain.StatusChange) (domain.Listing, bool, error) {
	l, err := r.one(ctx, "conditional status update", `
		UPDATE listings l
		   SET status      = $3,
		       archived_at = $4,
		       listed_at   = COALESCE($5, l.listed_at),
		       expires_at  = COALESCE($6, l.expires_at),
		       updated_at  = $7
		 WHERE l.id = $1
		   AND l.status = $2
		   AND ($8::timestamptz IS NULL OR l.expires_at < $8::timestamptz)
		RETURNING `+cols,
		c.ID, string(c.From), string(c.To), c.ArchivedAt, c.ListedAt, c.ExpiresAt, c.At, c.ExpiredBefore,
	)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Listing{}, false, nil
	}
	if err != nil {
		return domain.Listing{}, false, err
	}
	return l, true, nil
}

// QueryExpiredActive pages by (expires_at, id) starting after the cursor
func (r *queries) QueryExpiredActive(ctx context.Context, now time.Time, after domain.ExpiredCursor, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 200
	}
	out, err := store.Many(store.WithStatement(ctx, "query expired listings"), r.q, scanListing, `
		SELECT `+cols+`
		  FROM listings l
		 WHERE l.status = 'active' AND l.expires_at < $1
		   AND ($3::uuid IS NULL OR (l.expires_at, l.id) > ($2::timestamptz, $3::uuid))
		 ORDER BY l.expires_at, l.id
		 LIMIT $4`, now, after.ExpiresAt, pstrings.Ptr(after.ID), limit)
	return out, perr.FromPostgres(err, "query expired listings")
}

func (r *queries) Insert(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	return r.one(ctx, "insert listing", `
		INSERT INTO listings AS l (
			id, seller_id, title, description, price, category, condition, location, postal_code,
			latitude, longitude, images, vehicle_year, vehicle_make, vehicle_model, key_type,
			transponder_type, status, created_at, listed_at, expires_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING `+cols,
		l.ID, l.SellerID, l.Title, l.Description, l.Price, l.Category, l.Condition, l.Location, l.PostalCode,
		l.Latitude, l.Longitude, pstrings.IfEmpty(l.Images, []string{}), l.Vehicle.Year, l.Vehicle.Make,
		l.Vehicle.Model, l.KeyType, l.TransponderType, string(l.Status), l.CreatedAt, l.ListedAt,
		l.ExpiresAt, l.UpdatedAt,
	)
}

func (r *queries) UpdateContent(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	return r.one(ctx, "update listing", `
		UPDATE listings l
		   SET title = $2, description = $3, price = $4, category = $5, condition = $6,
		       location = $7, postal_code = $8, latitude = $9, longitude = $10, images = $11,
		       vehicle_year = $12, vehicle_make = $13, vehicle_model = $14, key_type = $15,
		       transponder_type = $16, updated_at = $17
		 WHERE l.id = $1 AND l.status <> 'deleted'
		RETURNING `+cols,
		l.ID, l.Title, l.Description, l.Price, l.Category, l.Condition, l.Location, l.PostalCode,
		l.Latitude, l.Longitude, pstrings.IfEmpty(l.Images, []string{}), l.Vehicle.Year, l.Vehicle.Make,
		l.Vehicle.Model, l.KeyType, l.TransponderType, l.UpdatedAt,
	)
}

func (r *queries) IncrementViews(ctx context.Context, id string) (domain.Listing, error) {
	return r.one(ctx, "increment views", `
		UPDATE listings l SET views = l.views + 1
		 WHERE l.id = $1 AND l.status <> 'deleted'
		RETURNING `+cols, id)
}
