package mirror

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/realtime"
)

// Orders keeps a merged in-memory view of one user's orders. The per-user
// index under orders_by_user/<uid> says which orders exist; a child watch
// per order under orders/<key> supplies the detail. Index and children are
// merged into one snapshot, re-emitted on every change. This materializes
// the platform's own data layout, nothing more.
type Orders struct {
	rt     realtime.Client
	uid    string
	logger *log.Logger

	mu       sync.Mutex
	orders   map[string]domain.SnackOrder
	children map[string]context.CancelFunc
	subs     map[int]func([]domain.SnackOrder)
	nextSub  int
	closed   bool
	cancel   context.CancelFunc
}

func NewOrders(rt realtime.Client, uid string, logger *log.Logger) *Orders {
	return &Orders{
		rt:       rt,
		uid:      uid,
		logger:   logger,
		orders:   make(map[string]domain.SnackOrder),
		children: make(map[string]context.CancelFunc),
		subs:     make(map[int]func([]domain.SnackOrder)),
	}
}

// Start opens the index watch and begins fanning out to child watches.
func (m *Orders) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil
	}
	m.cancel = cancel
	m.mu.Unlock()

	events, err := m.rt.Watch(ctx, "orders_by_user/"+m.uid)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		for ev := range events {
			keys := map[string]struct{}{}
			var index map[string]json.RawMessage
			if len(ev.Data) > 0 && string(ev.Data) != "null" {
				if err := json.Unmarshal(ev.Data, &index); err != nil {
					if m.logger != nil {
						m.logger.Printf("mirror: malformed order index for %s: %v", m.uid, err)
					}
					continue
				}
			}
			for key := range index {
				keys[key] = struct{}{}
			}
			m.syncChildren(ctx, keys)
		}
	}()
	return nil
}

// syncChildren reconciles child watches against the current index keys:
// new keys start a watch, removed keys are torn down and dropped.
func (m *Orders) syncChildren(ctx context.Context, keys map[string]struct{}) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	for key := range keys {
		if _, ok := m.children[key]; ok {
			continue
		}
		childCtx, cancel := context.WithCancel(ctx)
		m.children[key] = cancel
		go m.watchChild(childCtx, key)
	}
	changed := false
	for key, cancel := range m.children {
		if _, ok := keys[key]; ok {
			continue
		}
		cancel()
		delete(m.children, key)
		delete(m.orders, key)
		changed = true
	}
	m.mu.Unlock()

	if changed {
		m.emit()
	}
}

func (m *Orders) watchChild(ctx context.Context, key string) {
	events, err := m.rt.Watch(ctx, "orders/"+key)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("mirror: watch order %s: %v", key, err)
		}
		return
	}
	for ev := range events {
		if len(ev.Data) == 0 || string(ev.Data) == "null" {
			continue
		}
		var order domain.SnackOrder
		if err := json.Unmarshal(ev.Data, &order); err != nil {
			if m.logger != nil {
				m.logger.Printf("mirror: malformed order %s: %v", key, err)
			}
			continue
		}
		order.Key = key

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.orders[key] = order
		m.mu.Unlock()

		m.emit()
	}
}

// Snapshot returns the merged orders, newest first.
func (m *Orders) Snapshot() []domain.SnackOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Orders) snapshotLocked() []domain.SnackOrder {
	out := make([]domain.SnackOrder, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Subscribe registers fn to receive every merged snapshot until the returned
// unsubscribe runs. Nothing is delivered after Close.
func (m *Orders) Subscribe(fn func([]domain.SnackOrder)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Orders) emit() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	snapshot := m.snapshotLocked()
	fns := make([]func([]domain.SnackOrder), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Close tears down the index watch and every child watch. Events already in
// flight are dropped, not delivered.
func (m *Orders) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel := m.cancel
	for key, cancelChild := range m.children {
		cancelChild()
		delete(m.children, key)
	}
	m.subs = map[int]func([]domain.SnackOrder){}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
