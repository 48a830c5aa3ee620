package module

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	pnet "marketfeed/internal/platform/net"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/testkit"
	ldom "marketfeed/internal/services/listings/domain"
	"marketfeed/internal/services/sweeper/domain"

	"github.com/go-chi/chi/v5"
)

type noExpired struct{}

func (noExpired) QueryExpiredActive(context.Context, time.Time, ldom.ExpiredCursor, int) ([]ldom.Listing, error) {
	return nil, nil
}

func (noExpired) AutoExpire(context.Context, string) (ldom.Listing, error) {
	return ldom.Listing{}, errors.New("unexpected")
}

func tokens(tok string) (pnet.Principal, error) {
	switch tok {
	case "admin":
		return pnet.Principal{UserID: "ops", Admin: true}, nil
	case "seller":
		return pnet.Principal{UserID: "u1"}, nil
	}
	return pnet.Principal{}, errors.New("bad token")
}

func TestRequiresListingsPort(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { New(modkit.Deps{}) })
}

func TestAdminTrigger(t *testing.T) {
	t.Parallel()
	m := New(modkit.Deps{}, modkit.WithPorts(Ports{Listings: noExpired{}, Auth: httpkit.NewPortFunc(tokens)}))
	if _, ok := m.Ports().(domain.RunnerPort); !ok {
		t.Fatalf("ports = %T", m.Ports())
	}
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	for tok, want := range map[string]int{"": 401, "seller": 403, "admin": 200} {
		r := httptest.NewRequest("POST", "/listings/archive-expired", nil)
		if tok != "" {
			r.Header.Set("Authorization", "Bearer "+tok)
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != want {
			t.Fatalf("%q: status = %d, want %d", tok, w.Code, want)
		}
		if tok == "admin" {
			testkit.MustContain(t, w.Body.String(), `"run_id"`)
		}
	}
}
