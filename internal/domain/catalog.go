package domain

// Store is a canonical storefront listing, normalized from whichever legacy
// shape the upstream catalog feed uses.
type Store struct {
	ID            string  `json:"id"`
	MallID        string  `json:"mallId,omitempty"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	Lat           float64 `json:"lat,omitempty"`
	Lng           float64 `json:"lng,omitempty"`
	Open          bool    `json:"open"`
	MinOrderCents int64   `json:"minOrderCents,omitempty"`
}

// MenuItem is one orderable item of a store's catalog.
type MenuItem struct {
	ID          string `json:"id"`
	StoreID     string `json:"storeId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Available   bool   `json:"available"`
}
