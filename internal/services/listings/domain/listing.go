// Package domain holds the listing model, lifecycle rules and service contracts
package domain

import (
	"math"
	"time"
)

// Status is the lifecycle state of a listing
type Status string

// Listing statuses
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// Vehicle is the optional fitment block a key listing carries
type Vehicle struct {
	Year  *int   `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Make  string `json:"make,omitempty" validate:"max=80"`
	Model string `json:"model,omitempty" validate:"max=80"`
}

// Listing is a seller's offer to sell one item
type Listing struct {
	ID              string     `json:"id"`
	SellerID        string     `json:"seller_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	Category        string     `json:"category"`
	Condition       string     `json:"condition"`
	Location        string     `json:"location"`
	PostalCode      string     `json:"postal_code,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Images          []string   `json:"images"`
	Vehicle         Vehicle    `json:"vehicle"`
	KeyType         string     `json:"key_type,omitempty"`
	TransponderType string     `json:"transponder_type,omitempty"`
	Views           int64      `json:"views"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ListedAt        time.Time  `json:"listed_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Distance        *float64   `json:"distance,omitempty"`
}

// Expired reports whether the retention window has passed at now
func (l Listing) Expired(now time.Time) bool { return l.ExpiresAt.Before(now) }

// OwnedBy reports whether actor may manage the listing
func (l Listing) OwnedBy(a Actor) bool { return a.Admin || (a.UserID != "" && a.UserID == l.SellerID) }

// Actor is the caller of a lifecycle operation
type Actor struct {
	UserID string
	Admin  bool
}

// NewListing is the create payload
type NewListing struct {
	Title           string   `json:"title" validate:"required,min=3,max=200" example:"Toyota H chip smart key"`
	Description     string   `json:"description" validate:"max=5000"`
	Price           float64  `json:"price" validate:"gte=0" example:"45"`
	Category        string   `json:"category" validate:"required,max=80" example:"keys"`
	Condition       string   `json:"condition" validate:"required,max=40" example:"used"`
	Location        string   `json:"location" validate:"required,max=200" example:"Austin, TX 78701"`
	PostalCode      string   `json:"postal_code" validate:"omitempty,zip5"`
	Images          []string `json:"images" validate:"max=20,dive,url"`
	Vehicle         Vehicle  `json:"vehicle"`
	KeyType         string   `json:"key_type" validate:"max=80"`
	TransponderType string   `json:"transponder_type" validate:"max=80"`
}

// ListingPatch edits content fields; nil fields are left alone.
// Status is not part of the patch: state changes go through the lifecycle
type ListingPatch struct {
	Title           *string   `json:"title" validate:"omitempty,min=3,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=5000"`
	Price           *float64  `json:"price" validate:"omitempty,gte=0"`
	Category        *string   `json:"category" validate:"omitempty,min=1,max=80"`
	Condition       *string   `json:"condition" validate:"omitempty,min=1,max=40"`
	Location        *string   `json:"location" validate:"omitempty,min=1,max=200"`
	PostalCode      *string   `json:"postal_code" validate:"omitempty,zip5"`
	Images          *[]string `json:"images" validate:"omitempty,max=20,dive,url"`
	Vehicle         *Vehicle  `json:"vehicle"`
	KeyType         *string   `json:"key_type" validate:"omitempty,max=80"`
	TransponderType *string   `json:"transponder_type" validate:"omitempty,max=80"`
}

// Apply writes the non-nil patch fields onto l
func (p ListingPatch) Apply(l *Listing) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.Title, p.Title)
	set(&l.Description, p.Description)
	set(&l.Category, p.Category)
	set(&l.Condition, p.Condition)
	set(&l.Location, p.Location)
	set(&l.PostalCode, p.PostalCode)
	set(&l.KeyType, p.KeyType)
	set(&l.TransponderType, p.TransponderType)
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Images != nil {
		l.Images = append([]string(nil), (*p.Images)...)
	}
	if p.Vehicle != nil {
		l.Vehicle = *p.Vehicle
	}
}

// GeoPoint is a resolved coordinate pair
type GeoPoint struct {
	Lat float64
	Lon float64
}

// EarthRadiusMiles is the sphere radius used for distances
const EarthRadiusMiles = 3959.0

// DistanceMiles is the haversine distance between a and b
func DistanceMiles(a, b GeoPoint) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLon := rad(b.Lon - a.Lon)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusMiles * 2 * math.Asin(math.Sqrt(h))
}
