package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/repository/devicestate"
)

// StatusChange is one order whose status moved since the device last saw it.
type StatusChange struct {
	OrderKey string `json:"orderKey"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Final    bool   `json:"final,omitempty"`
}

// StatusTracker compares an orders snapshot against the statuses the device
// last saw, so the UI can raise "your order moved" notifications.
type StatusTracker struct {
	state  devicestate.Repository
	logger *log.Logger
}

func NewStatusTracker(state devicestate.Repository, logger *log.Logger) *StatusTracker {
	return &StatusTracker{state: state, logger: logger}
}

// Diff returns the status changes since the last call and records the new
// statuses. Persisting the last-seen map is best effort: a write failure is
// logged only, the changes are still returned.
func (t *StatusTracker) Diff(ctx context.Context, deviceID string, orders []domain.SnackOrder) []StatusChange {
	lastSeen := t.load(ctx, deviceID)

	var changes []StatusChange
	next := make(map[string]string, len(orders))
	for _, order := range orders {
		next[order.Key] = order.Status
		prev, seen := lastSeen[order.Key]
		if seen && prev == order.Status {
			continue
		}
		if !seen && order.Status == domain.StatusPlaced {
			// The device placed this order itself; only movement is news.
			continue
		}
		changes = append(changes, StatusChange{
			OrderKey: order.Key,
			From:     prev,
			To:       order.Status,
			Final:    domain.IsFinalStatus(order.Status),
		})
	}

	raw, err := json.Marshal(next)
	if err == nil {
		err = t.state.Set(ctx, deviceID, devicestate.KeyLastSeenStatuses, raw)
	}
	if err != nil && t.logger != nil {
		t.logger.Printf("statuswatch: persist last-seen for %s: %v", deviceID, err)
	}
	return changes
}

func (t *StatusTracker) load(ctx context.Context, deviceID string) map[string]string {
	lastSeen := map[string]string{}
	raw, err := t.state.Get(ctx, deviceID, devicestate.KeyLastSeenStatuses)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && t.logger != nil {
			t.logger.Printf("statuswatch: read last-seen for %s: %v", deviceID, err)
		}
		return lastSeen
	}
	if err := json.Unmarshal(raw, &lastSeen); err != nil {
		return map[string]string{}
	}
	return lastSeen
}
