package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pg(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v,%v want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("non pg error should report ok=false")
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil, "x") != nil {
		t.Fatalf("FromDB(nil) should be nil")
	}
	err := FromDB(fmt.Errorf("exec: %w", pg("23505")), "insert package")
	if !IsCode(err, ErrorCodeDuplicateKey) || !IsDuplicateKey(err) {
		t.Fatalf("unique violation not mapped: %v", err)
	}
	if !IsCode(FromDB(stderrs.New("conn reset"), "q"), ErrorCodeDB) {
		t.Fatalf("generic errors should map to DB")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("nil is not retryable")
	}
	if !IsRetryable(pg("40001")) || !IsRetryable(pg("40P01")) {
		t.Fatalf("contention codes should retry")
	}
	if IsRetryable(pg("23505")) {
		t.Fatalf("unique violation should not retry")
	}
	if IsRetryable(context.Canceled) {
		t.Fatalf("cancellation should not retry")
	}
	if !IsRetryable(stderrs.New("ERROR: deadlock detected")) {
		t.Fatalf("text fallback should retry")
	}
	if !Retryable(pg("55P03")) {
		t.Fatalf("Retryable should consult pg helpers")
	}
}
