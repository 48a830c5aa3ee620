package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "marketfeed/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestHandleEnvelopes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		resp     Response
		wantCode int
		wantKind string
	}{
		{"ok", OK(map[string]int{"n": 1}), stdhttp.StatusOK, ""},
		{"created", Created("x"), stdhttp.StatusCreated, ""},
		{"project error", Error(perr.Kinded(perr.ErrorCodeForbidden, "forbidden", "not your listing")), stdhttp.StatusForbidden, "forbidden"},
		{"foreign error", Error(errors.New("boom")), stdhttp.StatusInternalServerError, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			Handle(func(*stdhttp.Request) Response { return c.resp })(rr, httptest.NewRequest("GET", "/", nil))
			if rr.Code != c.wantCode {
				t.Fatalf("code = %d", rr.Code)
			}
			env := decode(t, rr)
			if env.StatusCode != c.wantCode || env.Kind != c.wantKind {
				t.Fatalf("env = %+v", env)
			}
		})
	}
}

func TestListCarriesPage(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	Handle(func(*stdhttp.Request) Response { return List([]string{"a"}, 2, 20, true) })(rr, httptest.NewRequest("GET", "/", nil))
	env := decode(t, rr)
	if env.Page == nil || env.Page.Page != 2 || !env.Page.HasMore {
		t.Fatalf("page = %+v", env.Page)
	}
}

func TestNoContent(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	Handle(func(*stdhttp.Request) Response { return NoContent() })(rr, httptest.NewRequest("DELETE", "/", nil))
	if rr.Code != stdhttp.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("code=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestRouterAdapterAndSugar(t *testing.T) {
	t.Parallel()
	m := chi.NewRouter()
	r := AdaptChi(m)
	r.Route("/listings", func(sub Router) {
		GetJSON(sub, "/{id}", func(req *stdhttp.Request) (any, error) {
			return URLParam(req, "id"), nil
		})
		type in struct {
			IDs []string `json:"ids" validate:"required,min=1"`
		}
		PostJSON(sub, "/bulk", func(_ *stdhttp.Request, body in) (any, error) {
			return Created(len(body.IDs)), nil
		})
		sub.With(func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				w.Header().Set("X-Guard", "1")
				next.ServeHTTP(w, req)
			})
		}).Post("/guarded", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusAccepted) })
	})

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest("GET", "/listings/abc", nil))
	if env := decode(t, rr); env.Data != "abc" {
		t.Fatalf("data = %v", env.Data)
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest("POST", "/listings/bulk", strings.NewReader(`{"ids":["a","b"]}`)))
	if rr.Code != stdhttp.StatusCreated {
		t.Fatalf("bulk code = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest("POST", "/listings/bulk", strings.NewReader(`{"ids":[]}`)))
	if rr.Code != stdhttp.StatusBadRequest {
		t.Fatalf("invalid bulk code = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest("POST", "/listings/guarded", nil))
	if rr.Code != stdhttp.StatusAccepted || rr.Header().Get("X-Guard") != "1" {
		t.Fatalf("guarded code=%d", rr.Code)
	}
}
