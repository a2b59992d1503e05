package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type stubFeeds struct {
	catalog     json.RawMessage
	menus       map[string]json.RawMessage
	catalogErr  error
	menuErr     error
	catalogHits int
}

func (s *stubFeeds) CatalogFeed(_ context.Context) (json.RawMessage, error) {
	s.catalogHits++
	return s.catalog, s.catalogErr
}

func (s *stubFeeds) MenuFeed(_ context.Context, storeID string) (json.RawMessage, error) {
	if s.menuErr != nil {
		return nil, s.menuErr
	}
	return s.menus[storeID], nil
}

type memCache struct {
	stores []domain.Store
	items  map[string][]domain.MenuItem
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]domain.MenuItem)}
}

func (m *memCache) UpsertStores(_ context.Context, stores []domain.Store) error {
	m.stores = stores
	return nil
}

func (m *memCache) ListStores(_ context.Context) ([]domain.Store, error) {
	return m.stores, nil
}

func (m *memCache) GetStore(_ context.Context, id string) (*domain.Store, error) {
	for i := range m.stores {
		if m.stores[i].ID == id {
			return &m.stores[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCache) UpsertItems(_ context.Context, storeID string, items []domain.MenuItem) error {
	m.items[storeID] = items
	return nil
}

func (m *memCache) ListItems(_ context.Context, storeID string) ([]domain.MenuItem, error) {
	return m.items[storeID], nil
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestStoresColdCacheSyncs(t *testing.T) {
	feeds := &stubFeeds{catalog: json.RawMessage(`[{"id":"s1","name":"Burgers"}]`)}
	svc := NewService(feeds, newMemCache(), discard())

	stores, err := svc.Stores(context.Background())
	if err != nil {
		t.Fatalf("stores: %v", err)
	}
	if len(stores) != 1 || stores[0].ID != "s1" {
		t.Fatalf("stores = %+v", stores)
	}
	if feeds.catalogHits != 1 {
		t.Fatalf("catalog feed hits = %d, want 1", feeds.catalogHits)
	}
}

func TestStoresWarmCacheSkipsFeed(t *testing.T) {
	feeds := &stubFeeds{}
	cache := newMemCache()
	cache.stores = []domain.Store{{ID: "s1", Name: "Burgers"}}
	svc := NewService(feeds, cache, discard())

	if _, err := svc.Stores(context.Background()); err != nil {
		t.Fatalf("stores: %v", err)
	}
	if feeds.catalogHits != 0 {
		t.Fatalf("catalog feed hits = %d, want 0", feeds.catalogHits)
	}
}

func TestMenuColdCacheSyncs(t *testing.T) {
	feeds := &stubFeeds{menus: map[string]json.RawMessage{
		"s1": json.RawMessage(`[{"id":"i1","name":"X-Burger","price":25.5}]`),
	}}
	svc := NewService(feeds, newMemCache(), discard())

	items, err := svc.Menu(context.Background(), "s1")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(items) != 1 || items[0].PriceCents != 2550 {
		t.Fatalf("items = %+v", items)
	}
}

func TestStoresFeedErrorSurfaces(t *testing.T) {
	feeds := &stubFeeds{catalogErr: errors.New("upstream down")}
	svc := NewService(feeds, newMemCache(), discard())

	if _, err := svc.Stores(context.Background()); err == nil {
		t.Fatalf("expected error on cold cache with dead feed")
	}
}

func TestSyncAllContinuesPastMenuFailures(t *testing.T) {
	feeds := &stubFeeds{
		catalog: json.RawMessage(`[{"id":"s1","name":"A"},{"id":"s2","name":"B"}]`),
		menuErr: errors.New("menu down"),
	}
	svc := NewService(feeds, newMemCache(), discard())

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("sync all: %v", err)
	}
}
