package domain

// CartItem is one line of the device-local cart. ID is the caller-defined
// identity key, commonly "storeID::itemID"; adding an item whose ID already
// exists merges by incrementing Qty instead of appending a duplicate line.
type CartItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"priceCents"`
	StoreID    string `json:"storeId,omitempty"`
}

// SubtotalCents is always derived from Qty and PriceCents, never stored.
func (i CartItem) SubtotalCents() int64 {
	return i.PriceCents * int64(i.Qty)
}

// Cart is the full device-local bag, persisted as one JSON blob.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// TotalCents sums the derived line subtotals.
func (c Cart) TotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalCents()
	}
	return total
}

// TotalQty counts units across all lines (header badge count).
func (c Cart) TotalQty() int {
	var n int
	for _, item := range c.Items {
		n += item.Qty
	}
	return n
}

// CartMeta is the small companion record remembering which store the cart
// was built against.
type CartMeta struct {
	StoreID   string `json:"storeId,omitempty"`
	StoreName string `json:"storeName,omitempty"`
}
