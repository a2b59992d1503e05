package mirror

import (
	"context"
	"log"
	"sync"

	"github.com/mysnackdev/mysnack-storefront/internal/realtime"
)

// Hub hands out one order mirror and one notification mirror per user,
// starting them lazily on first use and tearing everything down on Close.
type Hub struct {
	rt     realtime.Client
	logger *log.Logger

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	orders  map[string]*Orders
	notifs  map[string]*Notifications
}

func NewHub(baseCtx context.Context, rt realtime.Client, logger *log.Logger) *Hub {
	ctx, cancel := context.WithCancel(baseCtx)
	return &Hub{
		rt:      rt,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
		orders:  make(map[string]*Orders),
		notifs:  make(map[string]*Notifications),
	}
}

// Orders returns the running order mirror for uid, starting one if needed.
func (h *Hub) Orders(uid string) (*Orders, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.orders[uid]; ok {
		return m, nil
	}
	m := NewOrders(h.rt, uid, h.logger)
	if err := m.Start(h.baseCtx); err != nil {
		return nil, err
	}
	h.orders[uid] = m
	return m, nil
}

// Notifications returns the running notification mirror for uid.
func (h *Hub) Notifications(uid string) (*Notifications, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.notifs[uid]; ok {
		return m, nil
	}
	m := NewNotifications(h.rt, uid, h.logger)
	if err := m.Start(h.baseCtx); err != nil {
		return nil, err
	}
	h.notifs[uid] = m
	return m, nil
}

// Close stops every mirror the hub started.
func (h *Hub) Close() {
	h.mu.Lock()
	orders := h.orders
	notifs := h.notifs
	h.orders = make(map[string]*Orders)
	h.notifs = make(map[string]*Notifications)
	h.mu.Unlock()

	h.cancel()
	for _, m := range orders {
		m.Close()
	}
	for _, m := range notifs {
		m.Close()
	}
}
