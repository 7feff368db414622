package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestNullableString(t *testing.T) {
	if got := nullableString(""); got != nil {
		t.Fatalf("expected nil for empty string, got %v", got)
	}
	got := nullableString("QB")
	if got == nil || *got != "QB" {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestNullString(t *testing.T) {
	if got := nullString(""); got.Valid {
		t.Fatalf("expected invalid null for empty string, got %+v", got)
	}
	got := nullString("sub-nfl-01")
	if !got.Valid || got.String != "sub-nfl-01" {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestNullStringToString(t *testing.T) {
	if got := nullStringToString(sql.NullString{}); got != "" {
		t.Fatalf("expected empty string for invalid null, got %q", got)
	}
	if got := nullStringToString(sql.NullString{String: "WR", Valid: true}); got != "WR" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert entity: %w", &pq.Error{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped pq 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("expected foreign key violation to not match")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Fatalf("expected plain error to not match")
	}
}
