package repo

import (
	"cmp"
	"context"
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"

	"marketfeed/internal/modkit/repokit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/services/listings/domain"
)

// Memory is a process-local Repo with the same semantics as the Postgres one.
// It is test support for the service, http and sweeper packages
type Memory struct {
	mu   sync.Mutex
	rows map[string]domain.Listing
}

var _ Repo = (*Memory)(nil)

// NewMemory returns an empty store
func NewMemory() *Memory { return &Memory{rows: map[string]domain.Listing{}} }

// Bind ignores q; every binding shares the same rows
func (m *Memory) Bind(repokit.Queryer) Repo { return m }

// Put stores l as is, bypassing every check
func (m *Memory) Put(l domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = clone(l)
}

func (m *Memory) Get(_ context.Context, id string) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return domain.Listing{}, perr.ErrNotFound
	}
	return clone(l), nil
}

func (m *Memory) GetForUpdate(ctx context.Context, id string) (domain.Listing, error) {
	return m.Get(ctx, id)
}

func (m *Memory) UpdateStatus(_ context.Context, c domain.StatusChange) (domain.Listing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[c.ID]
	if !ok || !c.Matches(l) {
		return domain.Listing{}, false, nil
	}
	c.ApplyTo(&l)
	m.rows[l.ID] = l
	return clone(l), true, nil
}

func (m *Memory) QueryExpiredActive(_ context.Context, now time.Time, after domain.ExpiredCursor, limit int) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Listing
	for _, l := range m.rows {
		if l.Status == domain.StatusActive && l.ExpiresAt.Before(now) && after.Before(l) {
			out = append(out, clone(l))
		}
	}
	slices.SortFunc(out, func(a, b domain.Listing) int {
		if c := a.ExpiresAt.Compare(b.ExpiresAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, l domain.Listing) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[l.ID]; ok {
		return domain.Listing{}, perr.Conflictf("listing %s already exists", l.ID)
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	m.rows[l.ID] = clone(l)
	return clone(l), nil
}

func (m *Memory) UpdateContent(_ context.Context, l domain.Listing) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[l.ID]
	if !ok || cur.Status == domain.StatusDeleted {
		return domain.Listing{}, perr.ErrNotFound
	}
	// lifecycle columns are owned by UpdateStatus
	l.Status, l.ArchivedAt, l.ListedAt, l.ExpiresAt = cur.Status, cur.ArchivedAt, cur.ListedAt, cur.ExpiresAt
	l.Views, l.CreatedAt, l.SellerID = cur.Views, cur.CreatedAt, cur.SellerID
	m.rows[l.ID] = clone(l)
	return clone(l), nil
}

func (m *Memory) IncrementViews(_ context.Context, id string) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || l.Status == domain.StatusDeleted {
		return domain.Listing{}, perr.ErrNotFound
	}
	l.Views++
	m.rows[id] = l
	return clone(l), nil
}

// Query mirrors feedSQL and orderBy
func (m *Memory) Query(_ context.Context, f domain.FilterSortSpec) ([]domain.Listing, bool, error) {
	m.mu.Lock()
	var out []domain.Listing
	for _, l := range m.rows {
		if !f.Eligible(l, f.Now) || !matches(f, l) {
			continue
		}
		l = clone(l)
		if f.Origin != nil && l.Latitude != nil && l.Longitude != nil {
			d := domain.DistanceMiles(*f.Origin, domain.GeoPoint{Lat: *l.Latitude, Lon: *l.Longitude})
			l.Distance = &d
		}
		if f.RadiusMiles > 0 && (l.Distance == nil || *l.Distance > f.RadiusMiles) {
			continue
		}
		out = append(out, l)
	}
	m.mu.Unlock()

	slices.SortFunc(out, order(f))
	start := min(max(f.Offset(), 0), len(out))
	out = out[start:]
	if len(out) > f.PageSize {
		return out[:f.PageSize], true, nil
	}
	return out, false, nil
}

func matches(f domain.FilterSortSpec, l domain.Listing) bool {
	switch {
	case f.Category != "" && !strings.EqualFold(f.Category, l.Category):
		return false
	case f.Condition != "" && !strings.EqualFold(f.Condition, l.Condition):
		return false
	case f.SellerID != "" && f.SellerID != l.SellerID:
		return false
	case f.MinPrice != nil && l.Price < *f.MinPrice:
		return false
	case f.MaxPrice != nil && l.Price > *f.MaxPrice:
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		return strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Description), q)
	}
	return true
}

func order(f domain.FilterSortSpec) func(a, b domain.Listing) int {
	byID := func(a, b domain.Listing) int { return cmp.Compare(a.ID, b.ID) }
	desc := func(c int) int { return -c }
	switch f.Sort {
	case domain.SortRandom:
		return func(a, b domain.Listing) int {
			return cmp.Or(cmp.Compare(shuffleKey(a.ID, f.Seed), shuffleKey(b.ID, f.Seed)), byID(a, b))
		}
	case domain.SortPriceAsc:
		return func(a, b domain.Listing) int { return cmp.Or(cmp.Compare(a.Price, b.Price), byID(a, b)) }
	case domain.SortPriceDesc:
		return func(a, b domain.Listing) int { return desc(cmp.Or(cmp.Compare(a.Price, b.Price), byID(a, b))) }
	case domain.SortPopularity:
		return func(a, b domain.Listing) int { return desc(cmp.Or(cmp.Compare(a.Views, b.Views), byID(a, b))) }
	case domain.SortDistance:
		return func(a, b domain.Listing) int {
			switch {
			case a.Distance == nil && b.Distance == nil:
				return byID(a, b)
			case a.Distance == nil:
				return 1
			case b.Distance == nil:
				return -1
			}
			return cmp.Or(cmp.Compare(*a.Distance, *b.Distance), byID(a, b))
		}
	}
	if f.Scope == domain.ScopeArchive {
		return func(a, b domain.Listing) int {
			at := func(l domain.Listing) time.Time {
				if l.ArchivedAt == nil {
					return time.Time{}
				}
				return *l.ArchivedAt
			}
			return desc(cmp.Or(at(a).Compare(at(b)), byID(a, b)))
		}
	}
	return func(a, b domain.Listing) int { return desc(cmp.Or(a.CreatedAt.Compare(b.CreatedAt), byID(a, b))) }
}

func shuffleKey(id, seed string) string {
	sum := md5.Sum([]byte(id + seed))
	return hex.EncodeToString(sum[:])
}

func clone(l domain.Listing) domain.Listing {
	l.Images = slices.Clone(l.Images)
	return l
}
