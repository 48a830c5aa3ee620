package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketfeed/internal/platform/metrics"
	"marketfeed/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingTracer struct{ got []pg.QueryEvent }

func (r *recordingTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.got = append(r.got, ev) }

func TestStatementOf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if got := StatementOf(ctx); got != "unnamed" {
		t.Fatalf("bare ctx = %q", got)
	}
	if got := StatementOf(WithStatement(ctx, "")); got != "unnamed" {
		t.Fatalf("blank name = %q", got)
	}
	if got := StatementOf(WithStatement(ctx, "query expired listings")); got != "query expired listings" {
		t.Fatalf("named = %q", got)
	}
}

func TestQueryOutcome(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{pgx.ErrNoRows, "no_rows"},
		{fmt.Errorf("scan: %w", pgx.ErrNoRows), "no_rows"},
		{errors.New("conn reset"), "error"},
	}
	for _, c := range cases {
		if got := queryOutcome(c.err); got != c.want {
			t.Fatalf("queryOutcome(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestObserverLabelsByStatement(t *testing.T) {
	t.Parallel()
	tr := &recordingTracer{}
	obs := observer{tracer: tr, slowUS: 0}
	// unique name so parallel tests never share the series
	name := "conditional status update " + t.Name()
	ctx := WithStatement(context.Background(), name)

	obs.observe(ctx, "UPDATE listings SET status = $2 WHERE id = $1", []any{"id", "archived"}, time.Now(), pgx.ErrNoRows)

	if n := testutil.CollectAndCount(metrics.PGQueryDuration, "marketfeed_pg_query_duration_seconds"); n == 0 {
		t.Fatal("histogram has no series")
	}
	if len(tr.got) != 1 {
		t.Fatalf("events = %d", len(tr.got))
	}
	ev := tr.got[0]
	if ev.Statement != name || !ev.Slow || !errors.Is(ev.Err, pgx.ErrNoRows) {
		t.Fatalf("event = %+v", ev)
	}

	// negative threshold turns slow marking off
	tr.got = nil
	observer{tracer: tr, slowUS: -1000}.observe(ctx, "SELECT 1", nil, time.Now().Add(-time.Second), nil)
	if tr.got[0].Slow {
		t.Fatal("slow marked with threshold disabled")
	}
}

func TestObserverWithoutTracer(t *testing.T) {
	t.Parallel()
	var obs observer
	obs.observe(WithStatement(context.Background(), "ping"), "SELECT 1", nil, time.Now(), nil)
}
