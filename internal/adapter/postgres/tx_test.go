//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/adapter/postgres"
	"github.com/daxida/kty/internal/adapter/postgres/testhelper"
)

func insertRow(ctx context.Context, t *testing.T, q postgres.Querier, run uuid.UUID, term string) {
	t.Helper()
	_, err := q.Exec(ctx,
		`INSERT INTO normalize_spill (run_id, term, lang, pos, first_seen, payload) VALUES ($1, $2, 'de', 'noun', 0, '{}')`,
		run, term)
	require.NoError(t, err)
}

func countRows(ctx context.Context, t *testing.T, q postgres.Querier, run uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRow(ctx, `SELECT count(*) FROM normalize_spill WHERE run_id = $1`, run).Scan(&n))
	return n
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	run := uuid.New()
	tm := postgres.NewTxManager(pool)

	errBoom := errors.New("boom")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		insertRow(ctx, t, postgres.QuerierFromCtx(ctx, pool), run, "Haus")
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, countRows(ctx, t, pool, run))
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	run := uuid.New()
	tm := postgres.NewTxManager(pool)

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, tm.RunInTx(ctx, func(ctx context.Context) error {
			insertRow(ctx, t, postgres.QuerierFromCtx(ctx, pool), run, "Haus")
			return nil
		}))
		assert.Equal(t, 0, countRows(context.Background(), t, pool, run), "not visible before the outer commit")
		return errors.New("abort outer")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(ctx, t, pool, run))
}
