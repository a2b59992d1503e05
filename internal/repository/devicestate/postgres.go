package devicestate

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, deviceID, key string) ([]byte, error) {
	const q = `
SELECT value
FROM device_state
WHERE device_id = $1 AND key = $2
`
	var value []byte
	if err := r.pool.QueryRow(ctx, q, deviceID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *postgresRepo) Set(ctx context.Context, deviceID, key string, value []byte) error {
	const q = `
INSERT INTO device_state (device_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (device_id, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, deviceID, key, value)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, deviceID, key string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM device_state
WHERE device_id = $1 AND key = $2
`, deviceID, key)
	return err
}
