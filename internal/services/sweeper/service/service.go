// Package service runs the listing expiration sweep
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	"marketfeed/internal/platform/store"
	ptime "marketfeed/internal/platform/time"
	ldom "marketfeed/internal/services/listings/domain"
	"marketfeed/internal/services/sweeper/domain"
	"marketfeed/internal/services/sweeper/guardrails"

	"github.com/google/uuid"
)

// Config controls batching and cadence
type Config struct {
	Interval    time.Duration
	Batch       int
	MaxBatches  int
	ItemTimeout time.Duration
	RunOnStart  bool
}

// Service sweeps Active listings past their retention window into Archived
type Service struct {
	listings domain.ListingsPort
	cfg      Config

	// Lease guards against other replicas; nil runs unguarded
	Lease guardrails.Lease
	// Ledger receives one sweep_runs row per run; nil disables it
	Ledger store.Clickhouse

	clock   ptime.Clock
	running atomic.Bool
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the sweep service
func New(listings domain.ListingsPort, cfg Config) *Service {
	if listings == nil {
		panic("sweeper.Service requires a non nil ListingsPort")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 200
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = 50
	}
	return &Service{listings: listings, cfg: cfg, clock: ptime.System{}}
}

// WithClock replaces the wall clock
func (s *Service) WithClock(c ptime.Clock) *Service {
	s.clock = c
	return s
}

// Run sweeps on every interval tick until ctx is done. A tick that finds a run
// in flight is skipped
func (s *Service) Run(ctx context.Context) error {
	log := logger.Named("sweeper")
	log.Info().Dur("interval", s.cfg.Interval).Bool("run_on_start", s.cfg.RunOnStart).Msg("sweeper started")
	if s.cfg.RunOnStart {
		s.RunSweepOnce(ctx)
	}

	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopped")
			return nil
		case <-t.C:
			s.RunSweepOnce(ctx)
		}
	}
}

// RunSweepOnce archives every expired Active listing it can reach and reports
// per listing failures without aborting
func (s *Service) RunSweepOnce(ctx context.Context) domain.SweepReport {
	rep := domain.SweepReport{RunID: uuid.NewString(), StartedAt: s.clock.Now().UTC(), Failures: []ldom.Outcome{}}
	if !s.running.CompareAndSwap(false, true) {
		rep.Skipped = true
		rep.FinishedAt = rep.StartedAt
		s.record(ctx, rep)
		return rep
	}
	defer s.running.Store(false)

	run := func(ctx context.Context) error {
		s.sweep(ctx, &rep)
		return nil
	}
	if s.Lease == nil {
		_ = run(ctx)
	} else if err := s.Lease(ctx, run); err != nil {
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			rep.Skipped = true
		} else {
			rep.Errors++
			rep.Failures = append(rep.Failures, ldom.Outcome{Reason: ldom.ReasonTransport, Message: err.Error()})
		}
	}

	rep.FinishedAt = s.clock.Now().UTC()
	s.record(ctx, rep)
	return rep
}

func (s *Service) sweep(ctx context.Context, rep *domain.SweepReport) {
	log := logger.C(ctx).With().Str("mod", "sweeper").Str("run_id", rep.RunID).Logger()
	attempted := map[string]struct{}{}
	var cursor ldom.ExpiredCursor

	for batch := 0; batch < s.cfg.MaxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			rep.Errors++
			rep.Failures = append(rep.Failures, ldom.Outcome{Reason: ldom.ReasonTransport, Message: err.Error()})
			return
		}
		items, err := s.listings.QueryExpiredActive(ctx, s.clock.Now().UTC(), cursor, s.cfg.Batch)
		if err != nil {
			log.Warn().Err(err).Int("batch", batch).Msg("expired query failed; ending run")
			rep.Errors++
			rep.Failures = append(rep.Failures, ldom.Outcome{Reason: ldom.ReasonTransport, Message: err.Error()})
			return
		}

		if len(items) > 0 {
			cursor = ldom.CursorAfter(items[len(items)-1])
		}

		fresh := 0
		for _, l := range items {
			if _, seen := attempted[l.ID]; seen {
				continue
			}
			attempted[l.ID] = struct{}{}
			fresh++
			rep.Scanned++

			ictx, cancel := guardrails.ForItem(ctx, s.cfg.ItemTimeout)
			_, err := s.listings.AutoExpire(ictx, l.ID)
			cancel()
			if err != nil {
				o := ldom.OutcomeOf(l.ID, err)
				rep.Errors++
				rep.Failures = append(rep.Failures, o)
				log.Warn().Err(err).Str("listing_id", l.ID).Str("reason", string(o.Reason)).Msg("auto-expire failed")
				continue
			}
			rep.Archived++
		}
		// the cursor moves past failures, so an empty batch (or a repeat) means nothing is left
		if fresh == 0 {
			return
		}
	}
	log.Warn().Int("max_batches", s.cfg.MaxBatches).Msg("batch cap reached; remaining listings wait for the next run")
}

func (s *Service) record(ctx context.Context, rep domain.SweepReport) {
	metrics.SweepRunsTotal.WithLabelValues(rep.Result()).Inc()
	if rep.Skipped {
		logger.C(ctx).Debug().Str("run_id", rep.RunID).Msg("sweep skipped; another run holds the lock")
		return
	}
	metrics.SweepArchivedTotal.Add(float64(rep.Archived))
	metrics.SweepDuration.Observe(rep.Duration().Seconds())

	ev := logger.C(ctx).Info()
	if rep.Errors > 0 {
		ev = logger.C(ctx).Warn()
	}
	ev.Str("run_id", rep.RunID).
		Int("scanned", rep.Scanned).
		Int("archived", rep.Archived).
		Int("errors", rep.Errors).
		Dur("took", rep.Duration()).
		Msg("sweep finished")

	if s.Ledger == nil {
		return
	}
	row := []any{rep.RunID, rep.StartedAt, rep.FinishedAt, uint32(rep.Scanned), uint32(rep.Archived), uint32(rep.Errors), rep.Result()}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Ledger.Insert(lctx, "sweep_runs", [][]any{row}); err != nil {
		logger.C(ctx).Warn().Err(err).Str("run_id", rep.RunID).Msg("sweep ledger insert failed")
	}
}
