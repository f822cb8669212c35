package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStorage is the pgx implementation of storage.Storage.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*PostgresStorage)(nil)

// New opens a pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// ratToText stores exact quantities as "num/den" text; NULL for no quantity.
func ratToText(q *big.Rat) *string {
	if q == nil {
		return nil
	}
	s := q.RatString()
	return &s
}

func textToRat(s *string) (*big.Rat, error) {
	if s == nil {
		return nil, nil
	}
	q, ok := new(big.Rat).SetString(*s)
	if !ok {
		return nil, fmt.Errorf("invalid stored quantity %q", *s)
	}
	return q, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
