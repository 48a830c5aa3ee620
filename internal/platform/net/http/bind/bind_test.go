package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "marketfeed/internal/platform/errors"
)

type createIn struct {
	Title      string  `json:"title" validate:"required,min=3"`
	Price      float64 `json:"price" validate:"gte=0"`
	PostalCode string  `json:"postal_code,omitempty" validate:"omitempty,zip5"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(body))
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		body      string
		wantCode  perr.ErrorCode
		wantField string
		wantMsg   string
	}{
		{name: "ok", body: `{"title":"Key fob","price":20,"postal_code":"78701"}`},
		{name: "empty", body: ``, wantCode: perr.ErrorCodeJSON},
		{name: "unknown field", body: `{"title":"abc","colour":"red"}`, wantCode: perr.ErrorCodeJSON},
		{name: "trailing", body: `{"title":"abc"} {}`, wantCode: perr.ErrorCodeJSON},
		{name: "short title", body: `{"title":"ab"}`, wantCode: perr.ErrorCodeValidation, wantField: "title", wantMsg: "title must be at least 3"},
		{name: "bad zip", body: `{"title":"abc","postal_code":"7870"}`, wantCode: perr.ErrorCodeValidation, wantField: "postal_code", wantMsg: "postal_code must be a 5 digit postal code"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseJSON[createIn](req(c.body))
			if c.wantCode == 0 && c.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Title != "Key fob" || got.PostalCode != "78701" {
					t.Fatalf("decoded = %+v", got)
				}
				return
			}
			if perr.CodeOf(err) != c.wantCode {
				t.Fatalf("code = %v (%v), want %v", perr.CodeOf(err), err, c.wantCode)
			}
			e, _ := perr.As(err)
			if c.wantField != "" && e.Field() != c.wantField {
				t.Fatalf("field = %q", e.Field())
			}
			if c.wantMsg != "" && e.Message() != c.wantMsg {
				t.Fatalf("message = %q", e.Message())
			}
		})
	}
}

func TestParseJSONAllowEmpty(t *testing.T) {
	t.Parallel()
	type opt struct {
		Note string `json:"note"`
	}
	got, err := ParseJSON[opt](req(""), JSONOptions{AllowEmptyBody: true, DisallowUnknown: true})
	if err != nil || got.Note != "" {
		t.Fatalf("got %+v err %v", got, err)
	}
}
