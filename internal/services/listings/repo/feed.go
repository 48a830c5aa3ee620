package repo

import (
	"context"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/store"
	pstrings "marketfeed/internal/platform/strings"
	"marketfeed/internal/services/listings/domain"
)

// feedSQL is shared by every scope and sort. Parameters:
//
//	$1 scope  $2 now  $3 actor  $4 category  $5 condition  $6 ILIKE pattern
//	$7 seller  $8 min price  $9 max price  $10 origin lat  $11 origin lon
//	$12 radius  $13 seed  $14 limit  $15 offset
//
// Empty strings and NULLs disable their filter. The ORDER BY is appended from a whitelist
const feedSQL = `
SELECT x.* FROM (
	SELECT ` + cols + `,
	       -- haversine over a 3959 mile sphere, matching domain.DistanceMiles
	       CASE WHEN $10::float8 IS NULL OR l.latitude IS NULL OR l.longitude IS NULL THEN NULL
	            ELSE 3959.0 * 2 * asin(sqrt(
	                 power(sin(radians(l.latitude - $10::float8) / 2), 2) +
	                 cos(radians($10::float8)) * cos(radians(l.latitude)) *
	                 power(sin(radians(l.longitude - $11::float8) / 2), 2)))
	       END AS distance,
	       md5(l.id::text || $13::text) AS shuffle_key
	  FROM listings l
	 WHERE (($1::text = 'public'  AND l.status = 'active' AND l.expires_at >= $2::timestamptz)
	     OR ($1::text = 'archive' AND l.status = 'archived' AND l.seller_id = $3::text))
	   AND ($4::text = '' OR lower(l.category) = lower($4::text))
	   AND ($5::text = '' OR lower(l.condition) = lower($5::text))
	   AND ($6::text = '' OR l.title ILIKE $6::text OR l.description ILIKE $6::text)
	   AND ($7::text = '' OR l.seller_id = $7::text)
	   AND ($8::float8 IS NULL OR l.price >= $8::float8)
	   AND ($9::float8 IS NULL OR l.price <= $9::float8)
) x
WHERE ($12::float8 = 0 OR (x.distance IS NOT NULL AND x.distance <= $12::float8))
ORDER BY `

func orderBy(f domain.FilterSortSpec) string {
	switch f.Sort {
	case domain.SortRandom:
		return "x.shuffle_key, x.id"
	case domain.SortPriceAsc:
		return "x.price ASC, x.id ASC"
	case domain.SortPriceDesc:
		return "x.price DESC, x.id DESC"
	case domain.SortPopularity:
		return "x.views DESC, x.id DESC"
	case domain.SortDistance:
		return "x.distance ASC NULLS LAST, x.id ASC"
	}
	if f.Scope == domain.ScopeArchive {
		return "x.archived_at DESC NULLS LAST, x.id DESC"
	}
	return "x.created_at DESC, x.id DESC"
}

// Query fetches one page plus a lookahead row to learn whether more exist
func (r *queries) Query(ctx context.Context, f domain.FilterSortSpec) ([]domain.Listing, bool, error) {
	var lat, lon any
	if f.Origin != nil {
		lat, lon = f.Origin.Lat, f.Origin.Lon
	}
	pattern := ""
	if f.Query != "" {
		pattern = pstrings.Contains(f.Query)
	}
	limit := f.PageSize + 1

	rows, err := r.q.Query(store.WithStatement(ctx, "query feed"), feedSQL+orderBy(f)+` LIMIT $14 OFFSET $15`,
		string(f.Scope), f.Now, f.Actor, f.Category, f.Condition, pattern, f.SellerID,
		f.MinPrice, f.MaxPrice, lat, lon, f.RadiusMiles, f.Seed, limit, f.Offset(),
	)
	if err != nil {
		return nil, false, perr.FromPostgres(err, "query feed")
	}
	defer rows.Close()

	out := make([]domain.Listing, 0, limit)
	for rows.Next() {
		var (
			dist    *float64
			shuffle string
		)
		l, err := scanListingExtra(rows, &dist, &shuffle)
		if err != nil {
			return nil, false, perr.FromPostgres(err, "scan feed row")
		}
		l.Distance = dist
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, perr.FromPostgres(err, "iterate feed rows")
	}
	if len(out) > f.PageSize {
		return out[:f.PageSize], true, nil
	}
	return out, false, nil
}
