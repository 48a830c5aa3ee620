// Package pg opens the listings postgres pool with optional query tracing
package pg

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool for pg
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int

	// AppName shows up as application_name in pg_stat_activity, e.g. "marketfeed-sweeper"
	AppName string
	// StatementTimeout caps one statement server side; a stuck conditional
	// update then fails fast and the sweep records it as a transport failure
	StatementTimeout time.Duration
}

// PG is a postgres client with pool and optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg, applies the session settings and opens the pool.
// poolCfgMut runs last and may override anything
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	sessionParams(pcfg.ConnConfig.RuntimeParams, cfg)
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{
		Pool:   pool,
		Tracer: tracer,
		SlowMs: cfg.SlowMs,
	}, nil
}

// sessionParams pins every session to UTC so expires_at comparisons and
// rendered timestamps agree with the service clock
func sessionParams(rp map[string]string, cfg Config) {
	rp["timezone"] = "UTC"
	if cfg.AppName != "" {
		rp["application_name"] = cfg.AppName
	}
	if cfg.StatementTimeout > 0 {
		rp["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
