package swaggerkit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"marketfeed/internal/platform/config"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func fetchSpec(t *testing.T) map[string]any {
	t.Helper()
	rr := httptest.NewRecorder()
	serveDocJSON("/api/v1", "(dev)")(rr, httptest.NewRequest("GET", "/api/docs/doc.json", nil))
	if rr.Code != 200 {
		t.Fatalf("code = %d", rr.Code)
	}
	var spec map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return spec
}

func TestEmbeddedSpecServed(t *testing.T) {
	testkit.Serial(t)
	spec := fetchSpec(t)

	if spec["openapi"] != "3.0.3" {
		t.Fatalf("openapi = %v", spec["openapi"])
	}
	info := spec["info"].(map[string]any)
	if info["title"] != "marketfeed API (dev)" {
		t.Fatalf("title = %v", info["title"])
	}
	paths := spec["paths"].(map[string]any)
	for _, p := range []string{"/listings", "/listings/{id}/archive", "/listings/bulk", "/listings/archive-expired"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
	get := paths["/listings"].(map[string]any)["get"].(map[string]any)
	if _, ok := get["responses"].(map[string]any)["500"]; !ok {
		t.Fatal("default 500 not injected")
	}
	schemas := spec["components"].(map[string]any)["schemas"].(map[string]any)
	if _, ok := schemas["ErrorResponse"]; !ok {
		t.Fatal("ErrorResponse missing")
	}
}

func TestMutatorsAndBadDoc(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &mutators, nil)

	Register(func(spec map[string]any) { spec["x-env"] = "test" })
	Register(nil)
	if spec := fetchSpec(t); spec["x-env"] != "test" {
		t.Fatalf("mutator not applied: %v", spec["x-env"])
	}

	testkit.Swap(t, &docReader, func() []byte { return []byte("{") })
	rr := httptest.NewRecorder()
	serveDocJSON("/api/v1", "")(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != 500 {
		t.Fatalf("code = %d", rr.Code)
	}
}

func TestMountDisabled(t *testing.T) {
	t.Parallel()
	m := chi.NewRouter()
	Mount(phttp.AdaptChi(m), config.New(), false)
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest("GET", "/api/docs/doc.json", nil))
	if rr.Code != 404 {
		t.Fatalf("code = %d", rr.Code)
	}
}
