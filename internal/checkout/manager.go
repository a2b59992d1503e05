package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type cardLister interface {
	ListCards(ctx context.Context, uid string) ([]domain.UserCard, error)
}

// sessionRetention is how long a finished session stays readable before the
// manager forgets it. Long enough for a client to poll the final state.
const sessionRetention = 15 * time.Minute

// Manager owns the live checkout sessions.
type Manager struct {
	cart   cartGateway
	rt     paymentWatcher
	cards  cardLister
	logger *log.Logger

	baseCtx context.Context

	mu      sync.Mutex
	wizards map[string]*Wizard
}

// NewManager wires the session factory. baseCtx bounds every payment watch;
// pass the server's run context.
func NewManager(baseCtx context.Context, cartStore cartGateway, rt paymentWatcher, cards cardLister, logger *log.Logger) *Manager {
	return &Manager{
		cart:    cartStore,
		rt:      rt,
		cards:   cards,
		logger:  logger,
		baseCtx: baseCtx,
		wizards: make(map[string]*Wizard),
	}
}

// Start opens a new session at the items step. Saved cards are fetched up
// front so the payment guard knows whether a card choice is required; a
// fetch failure degrades to "no saved cards" rather than blocking checkout.
func (m *Manager) Start(ctx context.Context, deviceID, uid, nome, storeID string) *Wizard {
	var cards []domain.UserCard
	if m.cards != nil && uid != "" {
		fetched, err := m.cards.ListCards(ctx, uid)
		if err != nil {
			if m.logger != nil {
				m.logger.Printf("checkout: list cards for %s: %v", uid, err)
			}
		} else {
			cards = fetched
		}
	}

	w := newWizard(m.baseCtx, uuid.NewString(), deviceID, uid, nome, storeID, cards, m.cart, m.rt, m.logger)
	m.mu.Lock()
	m.sweepLocked()
	m.wizards[w.ID] = w
	m.mu.Unlock()
	return w
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	w, ok := m.wizards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

// sweepLocked drops sessions that resolved longer than sessionRetention ago,
// so finished wizards do not pile up for the life of the process.
func (m *Manager) sweepLocked() {
	for id, w := range m.wizards {
		if done, ok := w.finishedSince(); ok && time.Since(done) > sessionRetention {
			delete(m.wizards, id)
		}
	}
}

// Remove forgets a finished session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.wizards, id)
	m.mu.Unlock()
}
