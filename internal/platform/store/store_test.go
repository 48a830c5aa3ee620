package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketfeed/internal/platform/config"
)

type fakePG struct {
	fakeQuerier
	pingErr error
	closed  bool
}

func (f *fakePG) Tx(_ context.Context, fn func(q RowQuerier) error) error { return fn(f) }
func (f *fakePG) Ping(context.Context) error                              { return f.pingErr }
func (f *fakePG) Close() error                                            { f.closed = true; return nil }

type fakeCH struct {
	pingErr  error
	closeErr error
	inserted map[string][][]any
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.inserted == nil {
		f.inserted = map[string][][]any{}
	}
	f.inserted[table] = append(f.inserted[table], rows...)
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (Rows, error) { return &fakeRows{}, nil }
func (f *fakeCH) Ping(context.Context) error                          { return f.pingErr }
func (f *fakeCH) Close() error                                        { return f.closeErr }

func TestOpenNothingEnabled(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.CH != nil || s.RDS != nil || s.NATS != nil {
		t.Fatalf("unexpected seams: %+v", s)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard with no seams: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenPGBadURL(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenCHEmptyDSN(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{CH: CHConfig{Enabled: true}})
	if err == nil || !strings.Contains(err.Error(), "clickhouse open") {
		t.Fatalf("err = %v", err)
	}
}

func TestOptionRunsAndFails(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, err := Open(context.Background(), Config{}, func(*Store) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestGuard(t *testing.T) {
	t.Parallel()

	var nilStore *Store
	if err := nilStore.Guard(context.Background()); err == nil {
		t.Fatal("nil store should error")
	}

	s := &Store{PG: &fakePG{}, CH: &fakeCH{}}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("healthy guard: %v", err)
	}

	s = &Store{
		PG: &fakePG{pingErr: errors.New("pg down")},
		CH: &fakeCH{pingErr: errors.New("ch down")},
	}
	err := s.Guard(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	for _, want := range []string{"pg: pg down", "ch: ch down"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %q", want, err)
		}
	}
}

func TestCloseJoinsErrors(t *testing.T) {
	t.Parallel()
	pg := &fakePG{}
	s := &Store{PG: pg, CH: &fakeCH{closeErr: errors.New("ch close")}}
	err := s.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ch close") {
		t.Fatalf("err = %v", err)
	}
	if !pg.closed {
		t.Fatal("pg not closed")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://x")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "4")
	t.Setenv("SERVICE_REDIS_ENABLED", "true")
	t.Setenv("SERVICE_REDIS_ADDR", "cache:6379")
	t.Setenv("SERVICE_CLICKHOUSE_ENABLED", "yes-please")

	cfg := ConfigFromEnv(config.New(), "sweeper")
	if !cfg.PG.Enabled || cfg.PG.URL != "postgres://x" || cfg.PG.MaxConns != 4 || cfg.PG.StatementTimeout != 10*time.Second {
		t.Fatalf("pg = %+v", cfg.PG)
	}
	if !cfg.RDS.Enabled || cfg.RDS.Addr != "cache:6379" {
		t.Fatalf("redis = %+v", cfg.RDS)
	}
	// invalid bools fall back to the default
	if cfg.CH.Enabled {
		t.Fatal("clickhouse should stay disabled")
	}
	if cfg.CH.ClientName != "sweeper" || cfg.AppName != "marketfeed-sweeper" {
		t.Fatalf("names = %q %q", cfg.CH.ClientName, cfg.AppName)
	}
	if cfg.NATS.Enabled || cfg.NATS.URL != "nats://localhost:4222" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
}
