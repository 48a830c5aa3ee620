package service

import (
	"context"
	"strings"

	"marketfeed/internal/adapters/geocode"
	"marketfeed/internal/modkit/repokit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	pstrings "marketfeed/internal/platform/strings"
	"marketfeed/internal/services/listings/domain"
	"marketfeed/internal/services/listings/repo"

	"github.com/google/uuid"
)

// Archive moves an Active listing to Archived
func (s *Svc) Archive(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.transition(ctx, id, domain.TransitionArchive, &actor)
}

// Relist moves an Archived listing back to Active and restarts its retention window
func (s *Svc) Relist(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.transition(ctx, id, domain.TransitionRelist, &actor)
}

// Delete tombstones an Active or Archived listing
func (s *Svc) Delete(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.transition(ctx, id, domain.TransitionDelete, &actor)
}

// AutoExpire archives an Active listing whose retention window has passed.
// It is system initiated, so ownership is not checked
func (s *Svc) AutoExpire(ctx context.Context, id string) (domain.Listing, error) {
	return s.transition(ctx, id, domain.TransitionExpire, nil)
}

// transition runs load, ownership, legality, expiry, then the conditional write.
// actor is nil for system transitions
func (s *Svc) transition(ctx context.Context, id string, t domain.Transition, actor *domain.Actor) (out domain.Listing, err error) {
	defer func() { metrics.TransitionsTotal.WithLabelValues(string(t), outcomeLabel(err)).Inc() }()

	l, err := s.load(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if actor != nil && !l.OwnedBy(*actor) {
		return domain.Listing{}, domain.Forbidden()
	}
	if !t.Allowed(l.Status) {
		return domain.Listing{}, domain.InvalidTransition(t, l.Status)
	}
	now := s.now()
	if t == domain.TransitionExpire && !l.Expired(now) {
		return domain.Listing{}, domain.NotExpired(id)
	}

	change := domain.Change(t, l, now, s.cfg.Retention)
	sctx, cancel := s.storeCtx(ctx)
	updated, ok, err := s.Repo.UpdateStatus(sctx, change)
	cancel()
	if err != nil {
		return domain.Listing{}, storeErr(err, "update listing status")
	}
	if !ok {
		return domain.Listing{}, s.classify(ctx, change, t)
	}

	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.emit(ctx, domain.EventFor(t), updated, actorID)
	return updated, nil
}

// classify explains a conditional write that matched no row by reloading it
func (s *Svc) classify(ctx context.Context, c domain.StatusChange, t domain.Transition) error {
	cur, err := s.load(ctx, c.ID)
	if err != nil {
		return err
	}
	if cur.Status != c.From {
		return domain.InvalidTransition(t, cur.Status)
	}
	if c.ExpiredBefore != nil && !cur.ExpiresAt.Before(*c.ExpiredBefore) {
		return domain.NotExpired(c.ID)
	}
	return domain.InvalidTransition(t, cur.Status)
}

// load fetches a listing; malformed ids read as missing
func (s *Svc) load(ctx context.Context, id string) (domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Listing{}, domain.NotFound(id)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	l, err := s.Repo.Get(sctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Listing{}, domain.NotFound(id)
		}
		return domain.Listing{}, storeErr(err, "load listing")
	}
	return l, nil
}

// Get returns a listing unless it is missing or deleted
func (s *Svc) Get(ctx context.Context, id string) (domain.Listing, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if l.Status == domain.StatusDeleted {
		return domain.Listing{}, domain.NotFound(id)
	}
	return l, nil
}

// View returns a listing and counts the view
func (s *Svc) View(ctx context.Context, id string) (domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Listing{}, domain.NotFound(id)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	l, err := s.Repo.IncrementViews(sctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Listing{}, domain.NotFound(id)
		}
		return domain.Listing{}, storeErr(err, "view listing")
	}
	return l, nil
}

// Create publishes a new Active listing owned by actor
func (s *Svc) Create(ctx context.Context, actor domain.Actor, in domain.NewListing) (domain.Listing, error) {
	if actor.UserID == "" {
		return domain.Listing{}, perr.Unauthorizedf("sign in to create listings")
	}
	now := s.now()
	l := domain.Listing{
		ID:              s.newID(),
		SellerID:        actor.UserID,
		Title:           pstrings.Clean(in.Title),
		Description:     pstrings.Clean(in.Description),
		Price:           in.Price,
		Category:        pstrings.Clean(in.Category),
		Condition:       pstrings.Clean(in.Condition),
		Location:        pstrings.Clean(in.Location),
		PostalCode:      pstrings.Clean(in.PostalCode),
		Images:          append([]string{}, in.Images...),
		Vehicle:         in.Vehicle,
		KeyType:         pstrings.Clean(in.KeyType),
		TransponderType: pstrings.Clean(in.TransponderType),
		Status:          domain.StatusActive,
		CreatedAt:       now,
		ListedAt:        now,
		ExpiresAt:       now.Add(s.cfg.Retention),
		UpdatedAt:       now,
	}
	if err := checkContent(l); err != nil {
		return domain.Listing{}, err
	}
	if l.PostalCode == "" {
		l.PostalCode = geocode.ExtractZip(l.Location)
	}
	s.locate(ctx, &l)

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.Repo.Insert(sctx, l)
	if err != nil {
		return domain.Listing{}, storeErr(err, "insert listing")
	}
	s.emit(ctx, domain.EventCreated, out, actor.UserID)
	return out, nil
}

// Update edits content fields of a non-deleted listing owned by actor
func (s *Svc) Update(ctx context.Context, id string, actor domain.Actor, p domain.ListingPatch) (domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Listing{}, domain.NotFound(id)
	}

	// resolve a changed postal code outside the transaction
	var relocated *domain.Listing
	switch {
	case p.PostalCode != nil:
		relocated = &domain.Listing{PostalCode: pstrings.Clean(*p.PostalCode)}
	case p.Location != nil:
		relocated = &domain.Listing{PostalCode: geocode.ExtractZip(*p.Location)}
	}
	if relocated != nil {
		s.locate(ctx, relocated)
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	var out domain.Listing
	err := repokit.WithTx(sctx, s.db, s.binder, func(r repo.Repo) error {
		cur, err := r.GetForUpdate(sctx, id)
		if err != nil {
			return err
		}
		if !cur.OwnedBy(actor) {
			return domain.Forbidden()
		}
		if cur.Status == domain.StatusDeleted {
			return domain.InvalidTransition("update", cur.Status)
		}
		p.Apply(&cur)
		cleanContent(&cur)
		if relocated != nil {
			cur.PostalCode, cur.Latitude, cur.Longitude = relocated.PostalCode, relocated.Latitude, relocated.Longitude
		}
		if err := checkContent(cur); err != nil {
			return err
		}
		cur.UpdatedAt = s.now()
		out, err = r.UpdateContent(sctx, cur)
		return err
	})
	if err == nil {
		return out, nil
	}
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Listing{}, domain.NotFound(id)
	}
	return domain.Listing{}, storeErr(err, "update listing")
}

// locate fills coordinates from the postal code; failures leave them empty
func (s *Svc) locate(ctx context.Context, l *domain.Listing) {
	l.Latitude, l.Longitude = nil, nil
	if s.geo == nil || l.PostalCode == "" {
		return
	}
	p, ok, err := s.geo.Locate(ctx, l.PostalCode)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("postal_code", l.PostalCode).Msg("geocode failed; listing saved without coordinates")
		return
	}
	if !ok {
		return
	}
	l.Latitude, l.Longitude = &p.Lat, &p.Lon
}

func cleanContent(l *domain.Listing) {
	l.Title = pstrings.Clean(l.Title)
	l.Description = pstrings.Clean(l.Description)
	l.Category = pstrings.Clean(l.Category)
	l.Condition = pstrings.Clean(l.Condition)
	l.Location = pstrings.Clean(l.Location)
}

// checkContent re-validates after normalization, since trimming can empty a field
func checkContent(l domain.Listing) error {
	required := []struct{ field, val string }{
		{"title", l.Title}, {"category", l.Category}, {"condition", l.Condition}, {"location", l.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s is required", r.field), r.field)
		}
	}
	if l.Price < 0 {
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "price must not be negative"), "price")
	}
	return nil
}

// storeErr keeps classified errors and marks the rest as transport failures
func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if domain.ReasonOf(err) == domain.ReasonTransport || perr.CodeOf(err) == perr.ErrorCodeUnknown {
		return domain.Transport(err, op)
	}
	return err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.ReasonOf(err))
}
