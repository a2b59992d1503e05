package domain

// UserCard is payment card metadata kept by the platform. Never holds the
// full PAN or CVV; read-only from this side.
type UserCard struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
	Holder   string `json:"holder,omitempty"`
}
