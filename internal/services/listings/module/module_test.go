package module

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"marketfeed/internal/adapters/geocode"
	modkit "marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/modkit/repokit"
	pnet "marketfeed/internal/platform/net"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/testkit"
	"marketfeed/internal/services/listings/domain"

	"github.com/go-chi/chi/v5"
)

type fakeTx struct{ repokit.Queryer }

func (fakeTx) Tx(_ context.Context, fn func(repokit.Queryer) error) error { return fn(nil) }

func TestNewRequiresPostgres(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { New(modkit.Deps{}) })
}

func TestMountsUnderPrefix(t *testing.T) {
	t.Parallel()
	deny := httpkit.NewPortFunc(func(string) (pnet.Principal, error) { return pnet.Principal{}, errors.New("no") })
	m := New(modkit.Deps{PG: fakeTx{}}, modkit.WithPorts(Ports{
		Auth:     deny,
		Geocoder: Geocoder{c: geocode.New(geocode.Config{BaseURL: "http://127.0.0.1:1"}, nil)},
		Sinks:    []domain.EventSink{},
	}))
	if m.Name() != "listings" {
		t.Fatalf("name = %q", m.Name())
	}
	if _, ok := m.Ports().(domain.ServicePort); !ok {
		t.Fatalf("ports = %T", m.Ports())
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/listings/bulk", nil))
	if w.Code != 401 {
		t.Fatalf("bulk without token = %d", w.Code)
	}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/listings/not-a-uuid", nil))
	if w.Code != 404 {
		t.Fatalf("view malformed id = %d", w.Code)
	}
}
