package store

import (
	"context"
	"errors"
	"time"

	"marketfeed/internal/platform/metrics"
	"marketfeed/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type statementKey struct{}

// WithStatement names the statements run under ctx. The name labels the
// pg_query_duration_seconds histogram and the SQL trace line, e.g. "conditional status update"
func WithStatement(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, statementKey{}, name)
}

// StatementOf returns the name set by WithStatement or "unnamed"
func StatementOf(ctx context.Context) string {
	if s, ok := ctx.Value(statementKey{}).(string); ok && s != "" {
		return s
	}
	return "unnamed"
}

// observer is shared by the pool adapter and the tx querier so statements
// inside a transaction are timed and traced the same way
type observer struct {
	tracer pg.QueryTracer
	slowUS int64
}

// queryOutcome folds pgx.ErrNoRows into its own label; a lost conditional
// update reports no_rows rather than error
func queryOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pgx.ErrNoRows):
		return "no_rows"
	}
	return "error"
}

func (o observer) observe(ctx context.Context, sql string, args []any, start time.Time, err error) {
	elapsed := time.Since(start)
	name := StatementOf(ctx)
	metrics.PGQueryDuration.WithLabelValues(name, queryOutcome(err)).Observe(elapsed.Seconds())
	if o.tracer == nil {
		return
	}
	us := elapsed.Microseconds()
	o.tracer.OnQuery(ctx, pg.QueryEvent{
		Statement: name,
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      o.slowUS >= 0 && us >= o.slowUS,
	})
}

// pgAdapter wraps pg.PG and implements RowQuerier and TxRunner
type pgAdapter struct {
	p   *pg.PG
	obs observer
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{p: p, obs: observer{tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000}}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(WithStatement(ctx, "ping"), "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	a.obs.observe(ctx, sql, args, start, err)
	return tag{ct}, err
}

// Query times the round trip to the first row; the feed scan loop is not included
func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	a.obs.observe(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := a.p.Pool.QueryRow(ctx, sql, args...)
	// observed after Scan so no_rows from a RETURNING update is counted
	return row{r: r, after: func(err error) { a.obs.observe(ctx, sql, args, start, err) }}
}

// Tx runs fn in one transaction. Listing edits lock their row FOR UPDATE
// here and the sweep lease claims its row, both held until Commit
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after Commit
	if err := fn(txQuerier{tx: tx, obs: a.obs}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

// rows has no Columns; listing scanners bind by position against a fixed column list
type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }

// txQuerier satisfies RowQuerier inside a Tx
type txQuerier struct {
	tx  pgx.Tx
	obs observer
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.tx.Exec(ctx, sql, args...)
	t.obs.observe(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.tx.Query(ctx, sql, args...)
	t.obs.observe(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.tx.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(err error) { t.obs.observe(ctx, sql, args, start, err) }}
}
