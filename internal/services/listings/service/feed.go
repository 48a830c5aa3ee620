package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/services/listings/domain"

	"github.com/google/uuid"
)

const feedUnavailable = "could not load listings, try again"

// Feed returns one page of eligible listings
func (s *Svc) Feed(ctx context.Context, f domain.FilterSortSpec) (domain.Page, error) {
	f, err := f.Normalize(s.cfg.MaxPageSize)
	if err != nil {
		return domain.Page{}, err
	}
	f.Now = s.now()
	if f.Sort == domain.SortRandom && f.Seed == "" {
		f.Seed = newSeed()
	}
	if f.PostalCode != "" {
		origin, err := s.origin(ctx, f.PostalCode)
		if err != nil {
			return domain.Page{}, err
		}
		f.Origin = &origin
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, more, err := s.Repo.Query(sctx, f)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("scope", string(f.Scope)).Str("sort", string(f.Sort)).Msg("feed query failed")
		return domain.Page{}, domain.Transport(err, feedUnavailable)
	}
	if items == nil {
		items = []domain.Listing{}
	}
	return domain.Page{Items: items, HasMore: more, Page: f.Page, PageSize: f.PageSize, Seed: f.Seed}, nil
}

func (s *Svc) origin(ctx context.Context, zip string) (domain.GeoPoint, error) {
	if s.geo == nil {
		return domain.GeoPoint{}, perr.Unavailablef("location search is not available")
	}
	p, ok, err := s.geo.Locate(ctx, zip)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			return domain.GeoPoint{}, perr.WithField(err, "postalCode")
		}
		return domain.GeoPoint{}, domain.Transport(err, "could not resolve postal code, try again")
	}
	if !ok {
		return domain.GeoPoint{}, perr.WithField(perr.InvalidArgf("unknown postal code %s", zip), "postalCode")
	}
	return p, nil
}

func newSeed() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] }

// Fetcher loads one feed page; *Svc is the production one
type Fetcher interface {
	Feed(ctx context.Context, f domain.FilterSortSpec) (domain.Page, error)
}

// Mode picks how a controller query combines with what is already shown
type Mode int

// Query modes
const (
	// Reset starts over at page one with the given filters
	Reset Mode = iota
	// Append loads the page after the last accepted one with the accepted filters
	Append
)

// FeedController accumulates feed pages for one viewer. Only the response to
// the newest query is accepted; older responses return ErrSuperseded
type FeedController struct {
	fetch Fetcher

	mu      sync.Mutex
	latest  uint64
	spec    domain.FilterSortSpec
	items   []domain.Listing
	page    int
	hasMore bool
}

// NewFeedController returns an empty controller
func NewFeedController(fetch Fetcher) *FeedController {
	if fetch == nil {
		panic("listings.FeedController requires a non nil Fetcher")
	}
	return &FeedController{fetch: fetch}
}

// Query fetches and merges a page. f is ignored for Append once a page was accepted
func (c *FeedController) Query(ctx context.Context, f domain.FilterSortSpec, mode Mode) (domain.Page, error) {
	c.mu.Lock()
	if mode == Append && c.page == 0 {
		mode = Reset
	}
	if mode == Append && !c.hasMore {
		out := c.snapshot(c.latest)
		c.mu.Unlock()
		return out, nil
	}
	c.latest++
	seq := c.latest
	if mode == Reset {
		f.Page = 1
	} else {
		f = c.spec
		f.Page = c.page + 1
	}
	c.mu.Unlock()

	p, err := c.fetch.Feed(ctx, f)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.latest {
		return domain.Page{}, domain.ErrSuperseded
	}
	if err != nil {
		return domain.Page{}, err
	}
	if mode == Reset {
		c.items = nil
	}
	c.items = append(c.items, p.Items...)
	c.page, c.hasMore = p.Page, p.HasMore
	f.Seed, f.PageSize = p.Seed, p.PageSize
	c.spec = f
	return c.snapshot(seq), nil
}

// Items returns a copy of every accepted listing in order
func (c *FeedController) Items() []domain.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// HasMore reports whether Append can load another page
func (c *FeedController) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *FeedController) snapshot(seq uint64) domain.Page {
	items := slices.Clone(c.items)
	if items == nil {
		items = []domain.Listing{}
	}
	return domain.Page{
		Items:    items,
		HasMore:  c.hasMore,
		Page:     c.page,
		PageSize: c.spec.PageSize,
		Seed:     c.spec.Seed,
		Seq:      seq,
	}
}

// QueryExpiredActive lists active listings past their retention window at now,
// resuming after the cursor
func (s *Svc) QueryExpiredActive(ctx context.Context, now time.Time, after domain.ExpiredCursor, limit int) ([]domain.Listing, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.Repo.QueryExpiredActive(sctx, now, after, limit)
	if err != nil {
		return nil, storeErr(err, "query expired listings")
	}
	return out, nil
}
