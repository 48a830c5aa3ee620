// Package domain holds the expiration sweep contracts
package domain

import (
	"context"
	"time"

	ldom "marketfeed/internal/services/listings/domain"
)

// ListingsPort is the slice of the listings service the sweep drives
type ListingsPort interface {
	QueryExpiredActive(ctx context.Context, now time.Time, after ldom.ExpiredCursor, limit int) ([]ldom.Listing, error)
	AutoExpire(ctx context.Context, id string) (ldom.Listing, error)
}

// RunnerPort runs one sweep on demand
type RunnerPort interface {
	RunSweepOnce(ctx context.Context) SweepReport
}

// SweepReport summarizes one run. It is returned even when the run ends early
type SweepReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Scanned    int            `json:"scanned"`
	Archived   int            `json:"archived"`
	Errors     int            `json:"errors"`
	Failures   []ldom.Outcome `json:"failures"`
	Skipped    bool           `json:"skipped"`
}

// Result is the metrics label for the run
func (r SweepReport) Result() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Errors > 0:
		return "partial"
	}
	return "ok"
}

// Duration is the wall time of the run
func (r SweepReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
