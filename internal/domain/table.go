package domain

// Table resolution sources.
const (
	TableSourceQR     = "qr"
	TableSourceBypass = "bypass"
)

// Table identifies the physical venue/table an order is placed at. Both the
// QR scan path and the mock/bypass path produce this same shape, so checkout
// is agnostic to how it was resolved.
type Table struct {
	MallID  string `json:"mallId,omitempty"`
	StoreID string `json:"storeId,omitempty"`
	Number  string `json:"table,omitempty"`
	Label   string `json:"label,omitempty"`
	Source  string `json:"source,omitempty"`
}

func (t Table) Resolved() bool {
	return t.MallID != "" || t.Number != ""
}
