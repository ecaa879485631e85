package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daxida/kty/internal/domain"
)

// MapError converts a pgx failure of op on run into a domain error. Context
// errors pass through unchanged apart from the op prefix.
func MapError(err error, op string, run uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, run, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "42P01" { // undefined_table
			return fmt.Errorf("%s %s: %w: spill schema missing, run migrations", op, run, domain.ErrConfiguration)
		}
	}

	return &domain.IOError{Path: fmt.Sprintf("postgres %s %s", op, run), Err: err}
}
