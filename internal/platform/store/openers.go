package store

import (
	"context"
	"fmt"
	"time"

	chx "marketfeed/internal/platform/store/ch"
	"marketfeed/internal/platform/store/pg"
	"marketfeed/internal/platform/store/rds"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:              cfg.PG.URL,
		MaxConns:         cfg.PG.MaxConns,
		SlowMs:           cfg.PG.SlowQueryMs,
		AppName:          cfg.AppName,
		StatementTimeout: cfg.PG.StatementTimeout,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)
	maxAttempts := cfg.PG.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx) // pool ping skips the adapter so boot leaves no SQL trace line
		cancel()

		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")

		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

func openCH(_ context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	return newCHAdapter(c), nil
}

func openRDS(ctx context.Context, cfg Config, _ *Store) (*redis.Client, error) {
	return rds.Open(ctx, rds.Config{
		Addr:     cfg.RDS.Addr,
		DB:       cfg.RDS.DB,
		Password: cfg.RDS.Password,
	})
}

func openNATS(cfg Config, s *Store) (*nats.Conn, error) {
	log := s.Log
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name(cfg.AppName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
