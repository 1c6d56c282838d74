package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantConcurrent bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, wantConcurrent: true},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, wantConcurrent: true},
		{name: "lock timeout wrapped", err: fmt.Errorf("lock players: %w", &pq.Error{Code: "55P03"}), wantConcurrent: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			if errors.Is(got, usecase.ErrConcurrentModification) != tc.wantConcurrent {
				t.Fatalf("mapError(%v) = %v, want concurrent=%t", tc.err, got, tc.wantConcurrent)
			}
		})
	}

	if mapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: constraintActiveSlot})
	constraint, ok := uniqueViolation(err)
	if !ok || constraint != constraintActiveSlot {
		t.Fatalf("unexpected result %q %t", constraint, ok)
	}

	if _, ok := uniqueViolation(&pq.Error{Code: "23503"}); ok {
		t.Fatalf("foreign key violation must not count as unique violation")
	}
}

func TestNullTimeRoundTrip(t *testing.T) {
	if nullTime(nil).Valid {
		t.Fatalf("expected invalid for nil time")
	}
	if timePtr(nullTime(nil)) != nil {
		t.Fatalf("expected nil pointer for invalid time")
	}

	loc := time.FixedZone("WIB", 7*60*60)
	at := time.Date(2026, 3, 1, 19, 0, 0, 0, loc)
	got := timePtr(nullTime(&at))
	if got == nil || !got.Equal(at) || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Fatalf("empty string must map to NULL")
	}
	if v := nullString("team-fnc"); !v.Valid || v.String != "team-fnc" {
		t.Fatalf("unexpected value %+v", v)
	}
}

func TestConn_PrefersTransactionFromContext(t *testing.T) {
	db := &sqlx.DB{}
	tx := &sqlx.Tx{}

	if got := conn(context.Background(), db); got != dbtx(db) {
		t.Fatalf("expected db without transaction")
	}
	ctx := context.WithValue(context.Background(), txKey{}, tx)
	if got := conn(ctx, db); got != dbtx(tx) {
		t.Fatalf("expected transaction from context")
	}
}
