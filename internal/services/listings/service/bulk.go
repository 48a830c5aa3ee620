package service

import (
	"context"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	pstrings "marketfeed/internal/platform/strings"
	"marketfeed/internal/services/listings/domain"

	"golang.org/x/sync/errgroup"
)

// ApplyBulk runs one manual transition over many listings. Every distinct id
// yields exactly one outcome; item failures never fail the request
func (s *Svc) ApplyBulk(ctx context.Context, ids []string, t domain.Transition, actor domain.Actor) (domain.BulkResult, error) {
	if !t.Bulkable() {
		return domain.BulkResult{}, perr.WithField(perr.InvalidArgf("transition %q cannot be applied in bulk", t), "transition")
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return domain.BulkResult{}, domain.ErrEmptySelection
	}
	if len(ids) > s.cfg.BulkMaxIDs {
		return domain.BulkResult{}, perr.WithField(perr.InvalidArgf("at most %d listings per request", s.cfg.BulkMaxIDs), "ids")
	}

	op := s.opFor(t)
	outcomes := make([]domain.Outcome, len(ids))
	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(ctx, s.cfg.BulkItemTimeout)
			defer cancel()
			_, err := op(ictx, id, actor)
			outcomes[i] = domain.OutcomeOf(id, err)
			metrics.BulkItemsTotal.WithLabelValues(string(t), outcomeLabel(err)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	res := domain.Summarize(t, outcomes)
	logger.C(ctx).Info().
		Str("transition", string(t)).
		Int("total", res.Total).
		Int("failed", res.Failed).
		Msg(res.Summary)
	return res, nil
}

// ApplySelection runs t over the ticked ids in sorted order
func (s *Svc) ApplySelection(ctx context.Context, sel domain.Selection, t domain.Transition, actor domain.Actor) (domain.BulkResult, error) {
	return s.ApplyBulk(ctx, sel.IDs(), t, actor)
}

func (s *Svc) opFor(t domain.Transition) func(context.Context, string, domain.Actor) (domain.Listing, error) {
	switch t {
	case domain.TransitionRelist:
		return s.Relist
	case domain.TransitionDelete:
		return s.Delete
	}
	return s.Archive
}

// dedupe trims ids and drops blanks and repeats, keeping first appearance order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = pstrings.Clean(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
