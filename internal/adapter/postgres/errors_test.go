package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daxida/kty/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "spill save", uuid.New()); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_ContextPassesThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		got := MapError(fmt.Errorf("query: %w", ctxErr), "spill load", uuid.New())
		if !errors.Is(got, ctxErr) {
			t.Errorf("MapError(%v) does not wrap the context error: %v", ctxErr, got)
		}
		if errors.Is(got, domain.ErrIO) {
			t.Errorf("MapError(%v) should not be an I/O error", ctxErr)
		}
	}
}

func TestMapError_UndefinedTable(t *testing.T) {
	t.Parallel()

	got := MapError(&pgconn.PgError{Code: "42P01"}, "spill save", uuid.New())
	if !errors.Is(got, domain.ErrConfiguration) {
		t.Errorf("MapError(42P01) does not wrap ErrConfiguration: %v", got)
	}
}

func TestMapError_Other(t *testing.T) {
	t.Parallel()

	run := uuid.New()
	pgErr := &pgconn.PgError{Code: "53100", Message: "could not extend file"}
	got := MapError(pgErr, "spill save", run)

	if !errors.Is(got, domain.ErrIO) {
		t.Errorf("MapError(53100) does not wrap ErrIO: %v", got)
	}
	var target *pgconn.PgError
	if !errors.As(got, &target) || target.Code != "53100" {
		t.Errorf("MapError lost the original error: %v", got)
	}
}
