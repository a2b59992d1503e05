package domain

// Payment methods accepted at checkout. Online methods settle through the
// platform's payment provider and report back over the realtime database;
// on-pickup orders are confirmed immediately.
const (
	PaymentPix        = "pix"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
	PaymentOnPickup   = "on_pickup"
)

// Payment confirmation values pushed by the platform on
// orders/<key>/payment/status.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentDeclined = "declined"
)

// IsOnlinePayment reports whether the method requires waiting for the
// platform's payment confirmation.
func IsOnlinePayment(method string) bool {
	switch method {
	case PaymentPix, PaymentCreditCard, PaymentDebitCard:
		return true
	}
	return false
}

type SnackOrderItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"priceCents"`
}

// OrderPayment is the payment branch of an order record.
type OrderPayment struct {
	Method   string `json:"method,omitempty"`
	Status   string `json:"status,omitempty"`
	IntentID string `json:"intentId,omitempty"`
	CardID   string `json:"cardId,omitempty"`
}

// SnackOrder is a platform-persisted purchase record, mirrored from
// orders/<key> and indexed per user under orders_by_user/<uid>. CreatedAt is
// epoch milliseconds, as the realtime database stores it.
type SnackOrder struct {
	Key           string           `json:"key,omitempty"`
	UID           string           `json:"uid"`
	Nome          string           `json:"nome"`
	Items         []SnackOrderItem `json:"items,omitempty"`
	SubtotalCents int64            `json:"subtotalCents"`
	TotalCents    int64            `json:"totalCents"`
	Status        string           `json:"status"`
	CreatedAt     int64            `json:"createdAt"`
	Cancelled     bool             `json:"cancelled,omitempty"`
	Payment       *OrderPayment    `json:"payment,omitempty"`
	Pickup        *Table           `json:"pickup,omitempty"`
}
