package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"marketfeed/internal/platform/config"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

// idleDB satisfies the postgres seam; routing tests never reach it
type idleDB struct{ store.TxRunner }

func (idleDB) Tx(context.Context, func(store.RowQuerier) error) error { return nil }

func TestMountWiresModules(t *testing.T) {
	testkit.Serial(t)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	mux := chi.NewRouter()
	out := Mount(phttp.AdaptChi(mux), Options{
		Root:          config.New(),
		Config:        config.New().Prefix("CORE_API_"),
		Store:         &store.Store{PG: idleDB{}},
		EnableMetrics: true,
	})
	if out.Sweeper == nil {
		t.Fatal("sweeper runner not returned")
	}

	cases := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", 200},
		{"GET", "/api/v1/meta/ready", 200},
		{"GET", "/api/v1/meta/version", 200},
		{"GET", "/metrics", 200},
		{"POST", "/api/v1/listings/archive-expired", 401},
		{"POST", "/api/v1/listings/bulk", 401},
		{"GET", "/api/v1/listings/not-a-uuid", 404},
		{"GET", "/api/docs/doc.json", 404},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(c.method, c.path, nil))
		if w.Code != c.want {
			t.Fatalf("%s %s = %d, want %d (%s)", c.method, c.path, w.Code, c.want, w.Body.String())
		}
	}
}

func TestDepsFromStoreSkipsBusWithoutNATS(t *testing.T) {
	t.Parallel()
	deps := DepsFromStore(config.New(), &store.Store{})
	if deps.Bus != nil || deps.PG != nil || deps.CH != nil || deps.RDS != nil {
		t.Fatalf("deps = %+v", deps)
	}
}
