package module

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"marketfeed/internal/modkit"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/store"
	ptime "marketfeed/internal/platform/time"

	"github.com/go-chi/chi/v5"
)

type pgStub struct {
	store.TxRunner
	err error
}

func (p pgStub) Ping(context.Context) error { return p.err }

type chStub struct {
	store.Clickhouse
	err error
}

func (c chStub) Ping(context.Context) error { return c.err }

func serve(t *testing.T, deps modkit.Deps, path string) map[string]any {
	t.Helper()
	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	m := New(deps, modkit.WithPorts(Ports{Clock: ptime.Fixed(t0)}))
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	if w.Code != 200 {
		t.Fatalf("GET %s = %d %s", path, w.Code, w.Body.String())
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func statuses(data map[string]any) map[string]string {
	out := map[string]string{}
	for _, c := range data["checks"].([]any) {
		m := c.(map[string]any)
		out[m["name"].(string)] = m["status"].(string)
	}
	return out
}

func TestReady(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		deps    modkit.Deps
		overall string
		checks  map[string]string
	}{
		{
			name:    "pg only",
			deps:    modkit.Deps{PG: pgStub{}},
			overall: "ok",
			checks:  map[string]string{"pg": "ok", "ch": "skipped", "redis": "skipped", "nats": "skipped"},
		},
		{
			name:    "optional backend down",
			deps:    modkit.Deps{PG: pgStub{}, CH: chStub{err: errors.New("refused")}},
			overall: "degraded",
			checks:  map[string]string{"pg": "ok", "ch": "fail"},
		},
		{
			name:    "pg down",
			deps:    modkit.Deps{PG: pgStub{err: errors.New("refused")}},
			overall: "fail",
			checks:  map[string]string{"pg": "fail"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			data := serve(t, c.deps, "/meta/ready")
			if data["status"] != c.overall {
				t.Fatalf("status = %v, want %s", data["status"], c.overall)
			}
			got := statuses(data)
			for k, want := range c.checks {
				if got[k] != want {
					t.Fatalf("%s = %s, want %s", k, got[k], want)
				}
			}
		})
	}
}

func TestVersionAndService(t *testing.T) {
	t.Parallel()
	v := serve(t, modkit.Deps{}, "/meta/version")
	if v["service"] != "marketfeed-api" || v["version"] != "dev" {
		t.Fatalf("version = %+v", v)
	}
	s := serve(t, modkit.Deps{}, "/meta/service")
	if s["started"] != "2026-03-02T12:00:00Z" || s["uptime"] != float64(0) {
		t.Fatalf("service = %+v", s)
	}
}
