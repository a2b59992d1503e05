package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mysnackdev/mysnack-storefront/internal/backend"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/repository/devicestate"
)

type stateRepo interface {
	Get(ctx context.Context, deviceID, key string) ([]byte, error)
	Set(ctx context.Context, deviceID, key string, value []byte) error
	Delete(ctx context.Context, deviceID, key string) error
}

type orderCreator interface {
	CreateOrder(ctx context.Context, in backend.CreateOrderInput) (string, error)
}

// Store is the single source of truth for what is in the bag on a device.
// All mutations follow read-modify-persist-then-broadcast; there is no lock
// across writers, concurrent surfaces converge by re-reading on broadcast.
type Store struct {
	state  stateRepo
	orders orderCreator
	bus    *Bus
	logger *log.Logger
}

func New(state devicestate.Repository, orders orderCreator, bus *Bus, logger *log.Logger) *Store {
	if bus == nil {
		bus = NewBus()
	}
	return &Store{state: state, orders: orders, bus: bus, logger: logger}
}

// Bus exposes the broadcast contract for subscribers (badge, drawer, nav).
func (s *Store) Bus() *Bus {
	return s.bus
}

// Read returns the persisted cart. Any parse failure yields an empty cart:
// readers never see an error from malformed state, only from the store
// itself being unreachable.
func (s *Store) Read(ctx context.Context, deviceID string) (domain.Cart, error) {
	raw, err := s.state.Get(ctx, deviceID, devicestate.KeyCart)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Cart{}, nil
		}
		return domain.Cart{}, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		if s.logger != nil {
			s.logger.Printf("cart: discarding malformed cart for device %s: %v", deviceID, err)
		}
		return domain.Cart{}, nil
	}
	return cart, nil
}

// Add merges items into the cart by ID: an existing ID increments its line
// quantity, a new ID appends. Items with Qty <= 0 count as one unit.
// Broadcasts Changed and Open so badges recount and the drawer opens.
func (s *Store) Add(ctx context.Context, deviceID string, items []domain.CartItem) (domain.Cart, error) {
	if len(items) == 0 {
		return s.Read(ctx, deviceID)
	}
	cart, err := s.Read(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, err
	}

	for _, item := range items {
		qty := item.Qty
		if qty <= 0 {
			qty = 1
		}
		merged := false
		for i := range cart.Items {
			if cart.Items[i].ID == item.ID {
				cart.Items[i].Qty += qty
				merged = true
				break
			}
		}
		if !merged {
			item.Qty = qty
			cart.Items = append(cart.Items, item)
		}
	}

	if err := s.persist(ctx, deviceID, cart); err != nil {
		return domain.Cart{}, err
	}
	s.bus.Publish(Event{Topic: TopicChanged, DeviceID: deviceID})
	s.bus.Publish(Event{Topic: TopicOpen, DeviceID: deviceID})
	return cart, nil
}

// SetQty sets a line's quantity; qty <= 0 removes the line. A missing ID is
// a no-op, not an error.
func (s *Store) SetQty(ctx context.Context, deviceID, id string, qty int) (domain.Cart, error) {
	cart, err := s.Read(ctx, deviceID)
	if err != nil {
		return domain.Cart{}, err
	}

	changed := false
	out := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != id {
			out = append(out, item)
			continue
		}
		changed = true
		if qty <= 0 {
			continue
		}
		item.Qty = qty
		out = append(out, item)
	}
	if !changed {
		return cart, nil
	}
	cart.Items = out

	if err := s.persist(ctx, deviceID, cart); err != nil {
		return domain.Cart{}, err
	}
	s.bus.Publish(Event{Topic: TopicChanged, DeviceID: deviceID})
	return cart, nil
}

// Remove drops a line entirely.
func (s *Store) Remove(ctx context.Context, deviceID, id string) (domain.Cart, error) {
	return s.SetQty(ctx, deviceID, id, 0)
}

// Clear empties the persisted cart and broadcasts the change.
func (s *Store) Clear(ctx context.Context, deviceID string) error {
	if err := s.state.Delete(ctx, deviceID, devicestate.KeyCart); err != nil {
		return err
	}
	s.bus.Publish(Event{Topic: TopicChanged, DeviceID: deviceID})
	return nil
}

// NotifyExternalChange is the hook for out-of-band writes (another process
// touching the same device state). It is treated exactly like an internal
// mutation: subscribers re-read and converge.
func (s *Store) NotifyExternalChange(deviceID string) {
	s.bus.Publish(Event{Topic: TopicChanged, DeviceID: deviceID})
}

// Meta reads the cart companion record (selected store). Fail-open like Read.
func (s *Store) Meta(ctx context.Context, deviceID string) (domain.CartMeta, error) {
	raw, err := s.state.Get(ctx, deviceID, devicestate.KeyCartMeta)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CartMeta{}, nil
		}
		return domain.CartMeta{}, err
	}
	var meta domain.CartMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return domain.CartMeta{}, nil
	}
	return meta, nil
}

func (s *Store) SetMeta(ctx context.Context, deviceID string, meta domain.CartMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.state.Set(ctx, deviceID, devicestate.KeyCartMeta, raw)
}

// CheckoutInput carries everything the upstream order endpoint needs beyond
// the cart lines themselves.
type CheckoutInput struct {
	UID     string
	Nome    string
	StoreID string
	Table   domain.Table
	Payment domain.OrderPayment
}

// PlaceOrder builds the normalized item payload and creates the order
// upstream without touching the cart. Used by online-payment checkout, which
// must keep the cart until the payment is confirmed.
func (s *Store) PlaceOrder(ctx context.Context, deviceID string, in CheckoutInput) (string, error) {
	cart, err := s.Read(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if cart.Empty() {
		return "", errors.New("cart is empty")
	}

	items := make([]backend.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, backend.OrderItem{
			ID:         line.ID,
			Name:       line.Name,
			Qty:        line.Qty,
			PriceCents: line.PriceCents,
		})
	}

	orderKey, err := s.orders.CreateOrder(ctx, backend.CreateOrderInput{
		UID:           in.UID,
		Nome:          in.Nome,
		StoreID:       in.StoreID,
		Items:         items,
		SubtotalCents: cart.TotalCents(),
		TotalCents:    cart.TotalCents(),
		Pickup:        backend.Pickup{MallID: in.Table.MallID, Table: in.Table.Number},
		Payment: backend.Payment{
			Method:   in.Payment.Method,
			IntentID: in.Payment.IntentID,
			CardID:   in.Payment.CardID,
		},
	})
	if err != nil {
		// Cart stays intact; the opaque upstream message goes back verbatim.
		return "", fmt.Errorf("create order: %w", err)
	}

	// Keep the upstream profile's display name in sync with the order.
	if sync, ok := s.orders.(profileSyncer); ok && in.UID != "" {
		sync.UpsertProfile(ctx, in.UID, in.Nome)
	}
	return orderKey, nil
}

type profileSyncer interface {
	UpsertProfile(ctx context.Context, uid, nome string)
}

// Checkout creates the order and, only on success, clears the cart and
// broadcasts. On failure the cart is untouched.
func (s *Store) Checkout(ctx context.Context, deviceID string, in CheckoutInput) (string, error) {
	orderKey, err := s.PlaceOrder(ctx, deviceID, in)
	if err != nil {
		return "", err
	}
	if err := s.Clear(ctx, deviceID); err != nil {
		// The order exists upstream; a stale local cart is the lesser evil.
		if s.logger != nil {
			s.logger.Printf("cart: clear after checkout failed for device %s: %v", deviceID, err)
		}
	}
	return orderKey, nil
}

func (s *Store) persist(ctx context.Context, deviceID string, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.state.Set(ctx, deviceID, devicestate.KeyCart, raw)
}
