package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeForbidden, http.StatusForbidden},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeDB, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	t.Parallel()
	base := Kinded(ErrorCodeConflict, "not_expired", "listing has not expired yet")
	wrapped := fmt.Errorf("sweep item: %w", base)

	if got := KindOf(wrapped); got != "not_expired" {
		t.Fatalf("KindOf = %q", got)
	}
	if got := CodeOf(wrapped); got != ErrorCodeConflict {
		t.Fatalf("CodeOf = %v", got)
	}
	w := WireFrom(wrapped)
	if w.Kind != "not_expired" || w.Message != "listing has not expired yet" {
		t.Fatalf("wire = %+v", w)
	}

	outer := Wrap(base, ErrorCodeUnavailable, "outer")
	if got := KindOf(outer); got != "not_expired" {
		t.Fatalf("KindOf through unlabeled outer = %q", got)
	}
	if KindOf(stderrs.New("plain")) != "" {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestMutatorsCopyOnWrite(t *testing.T) {
	t.Parallel()
	base := New(ErrorCodeValidation, "bad")
	withField := WithField(base, "title")
	withOp := WithOp(withField, "listings.create")
	withKind := WithKind(withOp, "transport_error")

	e, _ := As(withKind)
	if e.Field() != "title" || e.Op() != "listings.create" || e.Kind() != "transport_error" {
		t.Fatalf("got field=%q op=%q kind=%q", e.Field(), e.Op(), e.Kind())
	}
	orig, _ := As(base)
	if orig.Field() != "" || orig.Op() != "" || orig.Kind() != "" {
		t.Fatalf("base mutated: %+v", orig)
	}
	plain := stderrs.New("x")
	if WithField(plain, "f") != plain {
		t.Fatalf("foreign errors must pass through")
	}
}

func TestWrapIfAndRoot(t *testing.T) {
	t.Parallel()
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}
	root := stderrs.New("root")
	err := Wrapf(Wrap(root, ErrorCodeDB, "inner"), ErrorCodeUnavailable, "outer %d", 1)
	if Root(err) != root {
		t.Fatalf("Root = %v", Root(err))
	}
	if got := err.Error(); got != "outer 1: inner: root" {
		t.Fatalf("Error() = %q", got)
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil *Error render")
	}
}

func TestTransient(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("q: %w", context.DeadlineExceeded), true},
		{"unavailable", Unavailablef("down"), true},
		{"db", DBf("boom"), true},
		{"forbidden", Forbiddenf("nope"), false},
		{"plain", stderrs.New("plain"), false},
	}
	for _, c := range cases {
		if got := Transient(c.err); got != c.want {
			t.Fatalf("%s: Transient = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCodeString(t *testing.T) {
	t.Parallel()
	if ErrorCodeNotFound.String() != "not_found" || ErrorCode(9999).String() != "unknown" {
		t.Fatalf("unexpected names")
	}
}
