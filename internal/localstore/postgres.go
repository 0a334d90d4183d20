package localstore

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Store backed by the local_state table.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Store {
	return &postgresStore{pool: pool, logger: logger}
}

func (s *postgresStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	const q = `SELECT value FROM local_state WHERE scope = $1 AND key = $2`
	var value []byte
	if err := s.pool.QueryRow(ctx, q, scope, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *postgresStore) Put(ctx context.Context, scope, key string, value []byte) error {
	const q = `
INSERT INTO local_state (scope, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	_, err := s.pool.Exec(ctx, q, scope, key, value)
	return err
}

func (s *postgresStore) Delete(ctx context.Context, scope, key string) error {
	const q = `DELETE FROM local_state WHERE scope = $1 AND key = $2`
	_, err := s.pool.Exec(ctx, q, scope, key)
	return err
}
