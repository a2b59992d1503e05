package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

// The upstream catalog feed has shipped in three shapes over time:
//
//  1. flat array:        [ {store}, ... ]
//  2. keyed map:         { "<id>": {store}, ... }
//  3. nested categories: { "categories": [ { "name": ..., "stores": [...] } ] }
//
// NormalizeStores tries them in that order and produces one canonical list.
// Menus use the same three shapes with "items" instead of "stores".

var errUnknownShape = errors.New("unrecognized feed shape")

type rawStore struct {
	ID            string   `json:"id"`
	Key           string   `json:"key"`
	MallID        string   `json:"mallId"`
	Name          string   `json:"name"`
	Nome          string   `json:"nome"`
	Category      string   `json:"category"`
	ImageURL      string   `json:"imageUrl"`
	Image         string   `json:"image"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Open          *bool    `json:"open"`
	Online        *bool    `json:"online"`
	MinOrderCents int64    `json:"minOrderCents"`
	MinOrder      *float64 `json:"minOrder"`
}

func (r rawStore) toDomain(fallbackID, fallbackCategory string) domain.Store {
	s := domain.Store{
		ID:            firstNonEmpty(r.ID, r.Key, fallbackID),
		MallID:        r.MallID,
		Name:          firstNonEmpty(r.Name, r.Nome),
		Category:      firstNonEmpty(r.Category, fallbackCategory),
		ImageURL:      firstNonEmpty(r.ImageURL, r.Image),
		Lat:           r.Lat,
		Lng:           r.Lng,
		MinOrderCents: r.MinOrderCents,
	}
	switch {
	case r.Open != nil:
		s.Open = *r.Open
	case r.Online != nil:
		s.Open = *r.Online
	}
	if s.MinOrderCents == 0 && r.MinOrder != nil {
		s.MinOrderCents = reaisToCents(*r.MinOrder)
	}
	return s
}

// NormalizeStores parses any known feed shape into canonical stores. Entries
// with no resolvable ID or name are dropped, not failed: one bad record must
// not take the listing down.
func NormalizeStores(raw json.RawMessage) ([]domain.Store, error) {
	// Shape 1: flat array.
	var asArray []rawStore
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return collectStores(asArray, nil, ""), nil
	}

	// Shape 3: nested categories. Checked before the keyed map because a
	// categories document also decodes as map[string]json.RawMessage.
	var asNested struct {
		Categories []struct {
			Name   string            `json:"name"`
			Stores []json.RawMessage `json:"stores"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(raw, &asNested); err == nil && len(asNested.Categories) > 0 {
		var out []domain.Store
		for _, cat := range asNested.Categories {
			for _, entry := range cat.Stores {
				var rs rawStore
				if err := json.Unmarshal(entry, &rs); err != nil {
					continue
				}
				out = append(out, collectStores([]rawStore{rs}, nil, cat.Name)...)
			}
		}
		return out, nil
	}

	// Shape 2: map keyed by store ID.
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil && len(asMap) > 0 {
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []domain.Store
		for _, k := range keys {
			var rs rawStore
			if err := json.Unmarshal(asMap[k], &rs); err != nil {
				continue
			}
			out = append(out, collectStores([]rawStore{rs}, &k, "")...)
		}
		return out, nil
	}

	return nil, fmt.Errorf("normalize stores: %w", errUnknownShape)
}

func collectStores(raws []rawStore, key *string, category string) []domain.Store {
	var out []domain.Store
	for _, rs := range raws {
		fallbackID := ""
		if key != nil {
			fallbackID = *key
		}
		s := rs.toDomain(fallbackID, category)
		if s.ID == "" || s.Name == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

type rawItem struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Nome        string   `json:"nome"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int64    `json:"priceCents"`
	Price       *float64 `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Image       string   `json:"image"`
	Available   *bool    `json:"available"`
}

func (r rawItem) toDomain(storeID, fallbackID, fallbackCategory string) domain.MenuItem {
	it := domain.MenuItem{
		ID:          firstNonEmpty(r.ID, r.Key, fallbackID),
		StoreID:     storeID,
		Name:        firstNonEmpty(r.Name, r.Nome),
		Description: r.Description,
		Category:    firstNonEmpty(r.Category, fallbackCategory),
		PriceCents:  r.PriceCents,
		ImageURL:    firstNonEmpty(r.ImageURL, r.Image),
		Available:   true,
	}
	if it.PriceCents == 0 && r.Price != nil {
		it.PriceCents = reaisToCents(*r.Price)
	}
	if r.Available != nil {
		it.Available = *r.Available
	}
	return it
}

// NormalizeMenu parses one store's menu from any known feed shape.
func NormalizeMenu(storeID string, raw json.RawMessage) ([]domain.MenuItem, error) {
	var asArray []rawItem
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return collectItems(storeID, asArray, nil, ""), nil
	}

	var asNested struct {
		Categories []struct {
			Name  string            `json:"name"`
			Items []json.RawMessage `json:"items"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(raw, &asNested); err == nil && len(asNested.Categories) > 0 {
		var out []domain.MenuItem
		for _, cat := range asNested.Categories {
			for _, entry := range cat.Items {
				var ri rawItem
				if err := json.Unmarshal(entry, &ri); err != nil {
					continue
				}
				out = append(out, collectItems(storeID, []rawItem{ri}, nil, cat.Name)...)
			}
		}
		return out, nil
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil && len(asMap) > 0 {
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []domain.MenuItem
		for _, k := range keys {
			var ri rawItem
			if err := json.Unmarshal(asMap[k], &ri); err != nil {
				continue
			}
			out = append(out, collectItems(storeID, []rawItem{ri}, &k, "")...)
		}
		return out, nil
	}

	return nil, fmt.Errorf("normalize menu: %w", errUnknownShape)
}

func collectItems(storeID string, raws []rawItem, key *string, category string) []domain.MenuItem {
	var out []domain.MenuItem
	for _, ri := range raws {
		fallbackID := ""
		if key != nil {
			fallbackID = *key
		}
		it := ri.toDomain(storeID, fallbackID, category)
		if it.ID == "" || it.Name == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func reaisToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
