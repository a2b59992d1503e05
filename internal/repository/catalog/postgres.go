package catalog

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

func (r *postgresRepo) UpsertStores(ctx context.Context, stores []domain.Store) error {
	const q = `
INSERT INTO catalog_stores (id, mall_id, name, category, image_url, lat, lng, open, min_order_cents, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id) DO UPDATE
SET mall_id = EXCLUDED.mall_id,
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    image_url = EXCLUDED.image_url,
    lat = EXCLUDED.lat,
    lng = EXCLUDED.lng,
    open = EXCLUDED.open,
    min_order_cents = EXCLUDED.min_order_cents,
    updated_at = now()
`
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range stores {
		if _, err := tx.Exec(ctx, q, s.ID, s.MallID, s.Name, s.Category, s.ImageURL, s.Lat, s.Lng, s.Open, s.MinOrderCents); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) ListStores(ctx context.Context) ([]domain.Store, error) {
	const q = `
SELECT id, mall_id, name, category, image_url, lat, lng, open, min_order_cents
FROM catalog_stores
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.MallID, &s.Name, &s.Category, &s.ImageURL, &s.Lat, &s.Lng, &s.Open, &s.MinOrderCents); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *postgresRepo) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	const q = `
SELECT id, mall_id, name, category, image_url, lat, lng, open, min_order_cents
FROM catalog_stores
WHERE id = $1
`
	var s domain.Store
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.MallID, &s.Name, &s.Category, &s.ImageURL, &s.Lat, &s.Lng, &s.Open, &s.MinOrderCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpsertItems replaces the store's menu wholesale; the feed is the source of
// truth, so rows missing from it are removed.
func (r *postgresRepo) UpsertItems(ctx context.Context, storeID string, items []domain.MenuItem) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM catalog_items WHERE store_id = $1`, storeID); err != nil {
		return err
	}
	const q = `
INSERT INTO catalog_items (store_id, id, name, description, category, price_cents, image_url, available)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	for _, it := range items {
		if _, err := tx.Exec(ctx, q, storeID, it.ID, it.Name, it.Description, it.Category, it.PriceCents, it.ImageURL, it.Available); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) ListItems(ctx context.Context, storeID string) ([]domain.MenuItem, error) {
	const q = `
SELECT store_id, id, name, description, category, price_cents, image_url, available
FROM catalog_items
WHERE store_id = $1
ORDER BY category ASC, name ASC
`
	rows, err := r.pool.Query(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.StoreID, &it.ID, &it.Name, &it.Description, &it.Category, &it.PriceCents, &it.ImageURL, &it.Available); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
