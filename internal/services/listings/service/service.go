// Package service contains the listing lifecycle, bulk and feed workflows
package service

import (
	"context"
	"time"

	"marketfeed/internal/modkit/repokit"
	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	ptime "marketfeed/internal/platform/time"
	"marketfeed/internal/services/listings/domain"
	"marketfeed/internal/services/listings/repo"

	"github.com/google/uuid"
)

// Service defines the service contract for listings
type Service interface{ domain.ServicePort }

var _ Service = (*Svc)(nil)

// Config holds the listing knobs (LISTINGS_*)
type Config struct {
	Retention       time.Duration
	BulkConcurrency int
	BulkItemTimeout time.Duration
	BulkMaxIDs      int
	MaxPageSize     int
	StoreTimeout    time.Duration
	EventTimeout    time.Duration
}

// DefaultConfig is the production baseline
func DefaultConfig() Config {
	return Config{
		Retention:       7 * 24 * time.Hour,
		BulkConcurrency: 8,
		BulkItemTimeout: 10 * time.Second,
		BulkMaxIDs:      500,
		MaxPageSize:     domain.MaxPageSize,
		StoreTimeout:    5 * time.Second,
		EventTimeout:    2 * time.Second,
	}
}

// ConfigFromEnv reads LISTINGS_* over the defaults. RETENTION accepts "7" (days) or a duration
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("LISTINGS_")
	d := DefaultConfig()
	return Config{
		Retention:       c.MayDuration("RETENTION", d.Retention),
		BulkConcurrency: max(1, c.MayInt("BULK_CONCURRENCY", d.BulkConcurrency)),
		BulkItemTimeout: c.MayDuration("BULK_ITEM_TIMEOUT", d.BulkItemTimeout),
		BulkMaxIDs:      c.MayInt("BULK_MAX_IDS", d.BulkMaxIDs),
		MaxPageSize:     c.MayInt("MAX_PAGE_SIZE", d.MaxPageSize),
		StoreTimeout:    c.MayDuration("STORE_TIMEOUT", d.StoreTimeout),
		EventTimeout:    c.MayDuration("EVENT_TIMEOUT", d.EventTimeout),
	}
}

// Svc implements Service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	cfg   Config
	geo   domain.Geocoder
	sinks []domain.EventSink
	clock ptime.Clock
	newID func() string
	log   *logger.Logger
}

// Option customizes Svc
type Option func(*Svc)

// WithGeocoder sets the postal code resolver; without one postal filters are rejected
func WithGeocoder(g domain.Geocoder) Option { return func(s *Svc) { s.geo = g } }

// WithSinks appends lifecycle event sinks
func WithSinks(sinks ...domain.EventSink) Option {
	return func(s *Svc) {
		for _, k := range sinks {
			if k != nil {
				s.sinks = append(s.sinks, k)
			}
		}
	}
}

// WithClock replaces the wall clock
func WithClock(c ptime.Clock) Option { return func(s *Svc) { s.clock = c } }

// WithIDs replaces the id generator
func WithIDs(fn func() string) Option { return func(s *Svc) { s.newID = fn } }

// New creates a new listings service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config, opts ...Option) *Svc {
	if db == nil {
		panic("listings.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("listings.Service requires a non nil Repo binder")
	}
	d := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = d.Retention
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = d.BulkConcurrency
	}
	if cfg.BulkItemTimeout <= 0 {
		cfg.BulkItemTimeout = d.BulkItemTimeout
	}
	if cfg.BulkMaxIDs <= 0 {
		cfg.BulkMaxIDs = d.BulkMaxIDs
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = d.StoreTimeout
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = d.EventTimeout
	}
	s := &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		cfg:    cfg,
		clock:  ptime.System{},
		newID:  uuid.NewString,
		log:    logger.Named("listings"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the effective configuration
func (s *Svc) Config() Config { return s.cfg }

func (s *Svc) now() time.Time { return s.clock.Now().UTC() }

// storeCtx bounds one store round trip; an earlier caller deadline wins
func (s *Svc) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}
