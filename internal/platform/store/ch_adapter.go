package store

import (
	"context"
	"errors"

	"marketfeed/internal/platform/store/ch"
)

// newCHAdapter wraps an existing *ch.CH as the store.Clickhouse seam
func newCHAdapter(c *ch.CH) Clickhouse {
	return &clickhouseAdapter{inner: c}
}

type clickhouseAdapter struct {
	inner *ch.CH
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, rows [][]any) error {
	return a.inner.Insert(ctx, table, rows)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r: r}, nil
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// chRows narrows ch.Rows (Close returns error) to store.Rows
type chRows struct{ r ch.Rows }

func (x chRows) Next() bool             { return x.r.Next() }
func (x chRows) Scan(dest ...any) error { return x.r.Scan(dest...) }
func (x chRows) Err() error             { return x.r.Err() }
func (x chRows) Close()                 { _ = x.r.Close() }
