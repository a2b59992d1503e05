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

// Notifications mirrors the per-user notification list and unread counter.
type Notifications struct {
	rt     realtime.Client
	uid    string
	logger *log.Logger

	mu     sync.Mutex
	items  map[string]domain.Notification
	unread int
	closed bool
	cancel context.CancelFunc
}

func NewNotifications(rt realtime.Client, uid string, logger *log.Logger) *Notifications {
	return &Notifications{
		rt:     rt,
		uid:    uid,
		logger: logger,
		items:  make(map[string]domain.Notification),
	}
}

func (m *Notifications) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil
	}
	m.cancel = cancel
	m.mu.Unlock()

	listEvents, err := m.rt.Watch(ctx, "notifications/"+m.uid)
	if err != nil {
		cancel()
		return err
	}
	counterEvents, err := m.rt.Watch(ctx, "notifications_unread/"+m.uid)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		for ev := range listEvents {
			items := map[string]domain.Notification{}
			if len(ev.Data) > 0 && string(ev.Data) != "null" {
				if err := json.Unmarshal(ev.Data, &items); err != nil {
					if m.logger != nil {
						m.logger.Printf("mirror: malformed notifications for %s: %v", m.uid, err)
					}
					continue
				}
			}
			m.mu.Lock()
			if !m.closed {
				m.items = items
			}
			m.mu.Unlock()
		}
	}()
	go func() {
		for ev := range counterEvents {
			var count int
			if len(ev.Data) > 0 && string(ev.Data) != "null" {
				if err := json.Unmarshal(ev.Data, &count); err != nil {
					continue
				}
			}
			m.mu.Lock()
			if !m.closed {
				m.unread = count
			}
			m.mu.Unlock()
		}
	}()
	return nil
}

// Snapshot returns notifications newest first.
func (m *Notifications) Snapshot() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, 0, len(m.items))
	for key, n := range m.items {
		n.Key = key
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (m *Notifications) Unread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread
}

// MarkAllRead flags every mirrored notification read upstream and resets the
// counter. Individual write failures are logged and skipped; the mirror will
// converge from the push stream either way.
func (m *Notifications) MarkAllRead(ctx context.Context) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.items))
	for key, n := range m.items {
		if !n.Read {
			keys = append(keys, key)
		}
	}
	m.mu.Unlock()

	for _, key := range keys {
		if err := m.rt.Set(ctx, "notifications/"+m.uid+"/"+key+"/read", true); err != nil {
			if m.logger != nil {
				m.logger.Printf("mirror: mark notification %s read: %v", key, err)
			}
		}
	}
	return m.rt.Set(ctx, "notifications_unread/"+m.uid, 0)
}

func (m *Notifications) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
