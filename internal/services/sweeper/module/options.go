package module

import (
	"time"

	"marketfeed/internal/platform/config"
)

// Options for the sweeper module
type Options struct {
	Interval    time.Duration
	Batch       int
	MaxBatches  int
	ItemTimeout time.Duration
	RunOnStart  bool

	// Lease is "none", "redis" or "pg"
	Lease    string
	LeaseTTL time.Duration
	LeaseKey string
}

// FromConfig fills options from environment
// SWEEPER_INTERVAL (default 24h) is the time between runs
// SWEEPER_BATCH (default 200) is the expired listings fetched per query
// SWEEPER_MAX_BATCHES (default 50) caps the queries per run
// SWEEPER_ITEM_TIMEOUT (default 10s) bounds one auto-expire
// SWEEPER_RUN_ON_START (default true) sweeps once when the loop starts
// SWEEPER_LEASE (default "none") picks the cross replica lock
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("SWEEPER_")
	return Options{
		Interval:    s.MayDuration("INTERVAL", 24*time.Hour),
		Batch:       s.MayInt("BATCH", 200),
		MaxBatches:  s.MayInt("MAX_BATCHES", 50),
		ItemTimeout: s.MayDuration("ITEM_TIMEOUT", 10*time.Second),
		RunOnStart:  s.MayBool("RUN_ON_START", true),
		Lease:       s.MayEnum("LEASE", "none", "none", "redis", "pg"),
		LeaseTTL:    s.MayDuration("LEASE_TTL", 30*time.Minute),
		LeaseKey:    s.MayString("LEASE_KEY", "marketfeed:sweeper"),
	}
}
