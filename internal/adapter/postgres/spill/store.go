// Package spill stores normalizer builders in PostgreSQL so that large
// language pairs do not have to fit in memory.
package spill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daxida/kty/internal/adapter/postgres"
	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/normalize"
)

const (
	table           = "normalize_spill"
	defaultPageSize = 1000
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements normalize.SpillStore for one run. Rows of other runs
// sharing the table are never touched.
type Store struct {
	pool     *pgxpool.Pool
	tx       *postgres.TxManager
	run      uuid.UUID
	pageSize int
}

var _ normalize.SpillStore = (*Store)(nil)

// New returns a store scoped to run.
func New(pool *pgxpool.Pool, run uuid.UUID) *Store {
	return &Store{
		pool:     pool,
		tx:       postgres.NewTxManager(pool),
		run:      run,
		pageSize: defaultPageSize,
	}
}

// Run is the identifier scoping this store's rows.
func (s *Store) Run() uuid.UUID { return s.run }

// Save upserts builders in one transaction.
func (s *Store) Save(ctx context.Context, builders []*normalize.Builder) error {
	if len(builders) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range builders {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.Key(), err)
		}
		query, args, err := psql.Insert(table).
			Columns("run_id", "term", "lang", "pos", "first_seen", "payload").
			Values(s.run, b.Term, b.Lang, b.POS, b.FirstSeen, payload).
			Suffix("ON CONFLICT (run_id, term, lang, pos) DO UPDATE SET payload = EXCLUDED.payload").
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		batch.Queue(query, args...)
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, s.pool)
		results := q.SendBatch(ctx, batch)
		defer results.Close()

		for range builders {
			if _, err := results.Exec(); err != nil {
				return err
			}
		}
		return results.Close()
	})
	return postgres.MapError(err, "spill save", s.run)
}

// Load returns the stored builder for key.
func (s *Store) Load(ctx context.Context, key domain.EntryKey) (*normalize.Builder, bool, error) {
	query, args, err := psql.Select("payload").
		From(table).
		Where(sq.Eq{"run_id": s.run, "term": key.Term, "lang": key.Lang, "pos": key.POS}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	err = postgres.QuerierFromCtx(ctx, s.pool).QueryRow(ctx, query, args...).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, postgres.MapError(err, "spill load", s.run)
	}

	b, err := decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return b, true, nil
}

// Range pages through the run's builders ordered by first_seen.
func (s *Store) Range(ctx context.Context, fn func(*normalize.Builder) error) error {
	last := -1
	for {
		query, args, err := psql.Select("first_seen", "payload").
			From(table).
			Where(sq.Eq{"run_id": s.run}).
			Where(sq.Gt{"first_seen": last}).
			OrderBy("first_seen").
			Limit(uint64(s.pageSize)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build range: %w", err)
		}

		page, err := s.page(ctx, query, args)
		if err != nil {
			return err
		}
		for _, b := range page {
			if err := fn(b); err != nil {
				return err
			}
			last = b.FirstSeen
		}
		if len(page) < s.pageSize {
			return nil
		}
	}
}

func (s *Store) page(ctx context.Context, query string, args []any) ([]*normalize.Builder, error) {
	rows, err := postgres.QuerierFromCtx(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "spill range", s.run)
	}
	defer rows.Close()

	var page []*normalize.Builder
	for rows.Next() {
		var (
			firstSeen int
			payload   []byte
		)
		if err := rows.Scan(&firstSeen, &payload); err != nil {
			return nil, postgres.MapError(err, "spill range", s.run)
		}
		b, err := decode(payload)
		if err != nil {
			return nil, fmt.Errorf("decode builder %d: %w", firstSeen, err)
		}
		page = append(page, b)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "spill range", s.run)
	}
	return page, nil
}

// Drop deletes the run's rows.
func (s *Store) Drop(ctx context.Context) error {
	query, args, err := psql.Delete(table).Where(sq.Eq{"run_id": s.run}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	_, err = postgres.QuerierFromCtx(ctx, s.pool).Exec(ctx, query, args...)
	return postgres.MapError(err, "spill drop", s.run)
}

func decode(payload []byte) (*normalize.Builder, error) {
	var b normalize.Builder
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
