package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	catalogrepo "github.com/mysnackdev/mysnack-storefront/internal/repository/catalog"
)

// Apply fills the catalog cache with a small demo mall for manual testing.
// It is idempotent: stores upsert by ID and menus are replaced wholesale.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	repo := catalogrepo.NewPostgres(pool)

	stores := []domain.Store{
		{
			ID:            "demo-burgers",
			MallID:        "demo-mall",
			Name:          "Demo Burgers",
			Category:      "Lanches",
			Lat:           -23.5614,
			Lng:           -46.6565,
			Open:          true,
			MinOrderCents: 2000,
		},
		{
			ID:       "demo-acai",
			MallID:   "demo-mall",
			Name:     "Demo Açaí",
			Category: "Sobremesas",
			Lat:      -23.5616,
			Lng:      -46.6568,
			Open:     true,
		},
	}
	if err := repo.UpsertStores(ctx, stores); err != nil {
		return fmt.Errorf("upsert stores: %w", err)
	}

	menus := map[string][]domain.MenuItem{
		"demo-burgers": {
			{ID: "x-burger", StoreID: "demo-burgers", Name: "X-Burger", Category: "Lanches", PriceCents: 2550, Available: true},
			{ID: "x-salada", StoreID: "demo-burgers", Name: "X-Salada", Category: "Lanches", PriceCents: 2750, Available: true},
			{ID: "batata", StoreID: "demo-burgers", Name: "Batata Frita", Category: "Acompanhamentos", PriceCents: 1200, Available: true},
		},
		"demo-acai": {
			{ID: "acai-300", StoreID: "demo-acai", Name: "Açaí 300ml", Category: "Sobremesas", PriceCents: 1800, Available: true},
			{ID: "acai-500", StoreID: "demo-acai", Name: "Açaí 500ml", Category: "Sobremesas", PriceCents: 2400, Available: true},
		},
	}
	for storeID, items := range menus {
		if err := repo.UpsertItems(ctx, storeID, items); err != nil {
			return fmt.Errorf("upsert menu for %s: %w", storeID, err)
		}
	}

	return nil
}
