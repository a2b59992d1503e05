package realtime

import (
	"context"
	"encoding/json"
)

// Event is one push from the realtime database: the current value of the
// watched path, then every subsequent change. Data is the raw JSON value at
// the path (JSON null when the record was removed).
type Event struct {
	Path string
	Data json.RawMessage
}

// Client is the realtime database port. Watch delivers the initial value
// followed by changes until ctx is cancelled or the stream ends; the channel
// is closed either way. Ordering is whatever the push layer provides
// (last-write-wins per key, roughly write order); no sequencing is added here.
type Client interface {
	Get(ctx context.Context, path string, v any) error
	Set(ctx context.Context, path string, v any) error
	Watch(ctx context.Context, path string) (<-chan Event, error)
}
