package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBErrorCodeMappings(t *testing.T) {
	t.Parallel()
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23514", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"40001", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
		{"57014", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: c.code}))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v,%v want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("plain error must not be classified as pg")
	}
}

func TestFromPostgres(t *testing.T) {
	t.Parallel()
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil stays nil")
	}
	err := FromPostgres(&pgconn.PgError{Code: "23514"}, "update listing")
	if CodeOf(err) != ErrorCodeValidation {
		t.Fatalf("check violation code = %v", CodeOf(err))
	}
	if !IsCheckViolation(err) {
		t.Fatalf("IsCheckViolation should see through the wrap")
	}
	timeout := FromPostgresf(context.DeadlineExceeded, "query %s", "listings")
	if CodeOf(timeout) != ErrorCodeUnavailable {
		t.Fatalf("deadline code = %v", CodeOf(timeout))
	}
	ours := NotFoundf("listing x")
	if FromPostgres(ours, "again") != ours {
		t.Fatalf("project errors pass through untouched")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	if !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Fatalf("deadlock should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation is not retryable")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Fatalf("cancellation is the caller's call")
	}
}
