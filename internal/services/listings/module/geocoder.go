package module

import (
	"context"

	"marketfeed/internal/adapters/geocode"
	"marketfeed/internal/services/listings/domain"
)

// Geocoder adapts the zippopotam client to the domain port
type Geocoder struct{ c *geocode.Client }

var _ domain.Geocoder = Geocoder{}

// Locate resolves zip to a point
func (g Geocoder) Locate(ctx context.Context, zip string) (domain.GeoPoint, bool, error) {
	p, ok, err := g.c.Lookup(ctx, zip)
	if err != nil || !ok {
		return domain.GeoPoint{}, ok, err
	}
	return domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}, true, nil
}
