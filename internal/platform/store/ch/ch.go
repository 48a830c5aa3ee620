// Package ch provides a clickhouse client over clickhouse-go
package ch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL         string
	ClientName  string
	ClientTag   string
	DialTimeout time.Duration
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

var open = clickhouse.Open

// Options parses the DSN and applies client info and timeouts
func Options(cfg Config) (*clickhouse.Options, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("ch: empty dsn")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return opts, nil
}

// Open dials lazily; the first query or Ping establishes the connection
func Open(cfg Config) (*CH, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := open(opts)
	if err != nil {
		return nil, err
	}
	return &CH{conn: conn}, nil
}

// Insert appends rows to table through a native batch
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			return err
		}
	}
	return batch.Send()
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Ping checks server reachability
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes resources
func (c *CH) Close() error { return c.conn.Close() }
