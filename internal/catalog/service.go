package catalog

import (
	"context"
	"encoding/json"
	"log"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type feedClient interface {
	CatalogFeed(ctx context.Context) (json.RawMessage, error)
	MenuFeed(ctx context.Context, storeID string) (json.RawMessage, error)
}

type cacheRepo interface {
	UpsertStores(ctx context.Context, stores []domain.Store) error
	ListStores(ctx context.Context) ([]domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	UpsertItems(ctx context.Context, storeID string, items []domain.MenuItem) error
	ListItems(ctx context.Context, storeID string) ([]domain.MenuItem, error)
}

// Service serves store listings and menus from the local cache, refreshing
// from the upstream feeds when the cache has nothing.
type Service struct {
	feeds  feedClient
	cache  cacheRepo
	logger *log.Logger
}

func NewService(feeds feedClient, cache cacheRepo, logger *log.Logger) *Service {
	return &Service{feeds: feeds, cache: cache, logger: logger}
}

// Stores lists cached stores, pulling the upstream feed on a cold cache.
func (s *Service) Stores(ctx context.Context) ([]domain.Store, error) {
	stores, err := s.cache.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	if len(stores) > 0 {
		return stores, nil
	}
	if err := s.SyncStores(ctx); err != nil {
		return nil, err
	}
	return s.cache.ListStores(ctx)
}

// Nearby lists cached stores within radiusKm of the given point.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]domain.Store, error) {
	stores, err := s.Stores(ctx)
	if err != nil {
		return nil, err
	}
	return Nearby(stores, lat, lng, radiusKm), nil
}

// Menu lists a store's cached menu, pulling the upstream feed on a miss.
func (s *Service) Menu(ctx context.Context, storeID string) ([]domain.MenuItem, error) {
	items, err := s.cache.ListItems(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	if err := s.SyncMenu(ctx, storeID); err != nil {
		return nil, err
	}
	return s.cache.ListItems(ctx, storeID)
}

// SyncStores fetches the store feed, normalizes it and replaces the cache.
func (s *Service) SyncStores(ctx context.Context) error {
	raw, err := s.feeds.CatalogFeed(ctx)
	if err != nil {
		return err
	}
	stores, err := NormalizeStores(raw)
	if err != nil {
		return err
	}
	s.logger.Printf("catalog sync: %d stores", len(stores))
	return s.cache.UpsertStores(ctx, stores)
}

// SyncMenu fetches one store's menu feed and replaces its cached items.
func (s *Service) SyncMenu(ctx context.Context, storeID string) error {
	raw, err := s.feeds.MenuFeed(ctx, storeID)
	if err != nil {
		return err
	}
	items, err := NormalizeMenu(storeID, raw)
	if err != nil {
		return err
	}
	s.logger.Printf("catalog sync: store %s has %d items", storeID, len(items))
	return s.cache.UpsertItems(ctx, storeID, items)
}

// SyncAll refreshes every store and its menu. Used by the importer binary.
func (s *Service) SyncAll(ctx context.Context) error {
	if err := s.SyncStores(ctx); err != nil {
		return err
	}
	stores, err := s.cache.ListStores(ctx)
	if err != nil {
		return err
	}
	for _, st := range stores {
		if err := s.SyncMenu(ctx, st.ID); err != nil {
			s.logger.Printf("catalog sync: store %s menu failed: %v", st.ID, err)
		}
	}
	return nil
}
