package domain

// Notification is one per-user notification record, mirrored from
// notifications/<uid>/<key>. CreatedAt is epoch milliseconds.
type Notification struct {
	Key       string `json:"key,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	OrderKey  string `json:"orderKey,omitempty"`
	Read      bool   `json:"read,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}
