package pg

import (
	"context"
	"errors"

	"bazaar-dashboard/internal/domain"

	"github.com/jackc/pgx/v5"
)

type stateRepository struct {
	db DBTX
}

// NewStateRepository is the postgres client-state backend.
func NewStateRepository(db DBTX) domain.StateBackend {
	return &stateRepository{db: db}
}

func (r *stateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT value FROM client_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return value, err
}

func (r *stateRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
INSERT INTO client_state (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	return err
}

func (r *stateRepository) Delete(ctx context.Context, key string) error {
	_, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM client_state WHERE key = $1`, key)
	return err
}
