package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "marketfeed/internal/platform/errors"

	"github.com/redis/go-redis/v9"
)

func upstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/us/78701":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"post code":"78701","places":[{"place name":"Austin","latitude":"30.2713","longitude":"-97.7426"}]}`))
		case "/us/50000":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := upstream(t, &calls)
	c := New(Config{BaseURL: srv.URL + "/us"}, nil)
	ctx := context.Background()

	p, ok, err := c.Lookup(ctx, "78701")
	if err != nil || !ok {
		t.Fatalf("Lookup = %v %v", ok, err)
	}
	if p.Lat != 30.2713 || p.Lon != -97.7426 {
		t.Fatalf("point = %+v", p)
	}

	// second hit is served from cache
	if _, _, err := c.Lookup(ctx, "78701"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}

	// unknown codes are cached negatively
	for range 2 {
		_, ok, err = c.Lookup(ctx, "00000")
		if err != nil || ok {
			t.Fatalf("unknown zip = %v %v", ok, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("calls after negative = %d", calls.Load())
	}
}

func TestLookupErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := upstream(t, &calls)
	c := New(Config{BaseURL: srv.URL + "/us"}, nil)

	_, _, err := c.Lookup(context.Background(), "7870")
	if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("bad zip code = %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("malformed zip must not reach upstream")
	}

	_, _, err = c.Lookup(context.Background(), "50000")
	if perr.CodeOf(err) != perr.ErrorCodeUnavailable {
		t.Fatalf("upstream 502 = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := c.Lookup(ctx, "11111"); err == nil {
		t.Fatal("cancelled ctx should fail")
	}
}

func TestExtractZip(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Austin, TX 78701":      "78701",
		"78701-1234":            "78701",
		"Dallas 75001 or 75002": "75002",
		"somewhere":             "",
		"123456":                "",
	}
	for in, want := range cases {
		if got := ExtractZip(in); got != want {
			t.Errorf("ExtractZip(%q) = %q want %q", in, got, want)
		}
	}
}

func TestMemCacheExpiry(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemCache()
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "78701", Entry{Found: true}, time.Minute)
	if _, ok := c.Get(context.Background(), "78701"); !ok {
		t.Fatal("expected hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(context.Background(), "78701"); ok {
		t.Fatal("expected expiry")
	}
}

type fakeKV struct {
	vals map[string]string
	err  error
	ttl  time.Duration
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.vals[key] = string(value.([]byte))
	f.ttl = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCache(t *testing.T) {
	t.Parallel()
	kv := &fakeKV{vals: map[string]string{}}
	c := NewRedisCache(kv)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "78701"); ok {
		t.Fatal("empty cache hit")
	}
	c.Set(ctx, "78701", Entry{Point: Point{Lat: 1, Lon: 2}, Found: true}, time.Hour)
	if _, ok := kv.vals["geo:zip:78701"]; !ok || kv.ttl != time.Hour {
		t.Fatalf("stored = %v ttl=%v", kv.vals, kv.ttl)
	}
	e, ok := c.Get(ctx, "78701")
	if !ok || !e.Found || e.Point.Lon != 2 {
		t.Fatalf("entry = %+v %v", e, ok)
	}

	kv.err = errors.New("conn refused")
	if _, ok := c.Get(ctx, "78701"); ok {
		t.Fatal("redis failure must read as miss")
	}
	c.Set(ctx, "78701", Entry{}, time.Hour)
}
