package devicestate

import "context"

// State keys used by the storefront. Every value is a JSON blob and every
// reader is expected to fail open on malformed content.
const (
	KeyCart              = "mysnack:cart"
	KeyCartMeta          = "mysnack:cart:meta"
	KeyRegistrationDraft = "mysnack:register:draft"
	KeyTheme             = "mysnack:theme"
	KeyLastSeenStatuses  = "mysnack:orders:last-status"
	KeyOnboardingSeen    = "mysnack:onboarding"
)

// Repository stores per-device key/value state, the server-side analog of
// the browser's local storage.
type Repository interface {
	Get(ctx context.Context, deviceID, key string) ([]byte, error)
	Set(ctx context.Context, deviceID, key string, value []byte) error
	Delete(ctx context.Context, deviceID, key string) error
}
