package catalog

import (
	"context"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

// Repository caches the normalized upstream catalog so listings survive
// upstream outages and avoid a feed fetch per request.
type Repository interface {
	UpsertStores(ctx context.Context, stores []domain.Store) error
	ListStores(ctx context.Context) ([]domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	UpsertItems(ctx context.Context, storeID string, items []domain.MenuItem) error
	ListItems(ctx context.Context, storeID string) ([]domain.MenuItem, error)
}
