package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/mysnackdev/mysnack-storefront/internal/backend"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type stubState struct {
	values map[string][]byte
	setErr error
}

func newStubState() *stubState {
	return &stubState{values: make(map[string][]byte)}
}

func (s *stubState) Get(_ context.Context, deviceID, key string) ([]byte, error) {
	v, ok := s.values[deviceID+"|"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (s *stubState) Set(_ context.Context, deviceID, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[deviceID+"|"+key] = value
	return nil
}

func (s *stubState) Delete(_ context.Context, deviceID, key string) error {
	delete(s.values, deviceID+"|"+key)
	return nil
}

type stubOrders struct {
	orderKey string
	err      error
	lastIn   backend.CreateOrderInput
	calls    int
}

func (s *stubOrders) CreateOrder(_ context.Context, in backend.CreateOrderInput) (string, error) {
	s.calls++
	s.lastIn = in
	return s.orderKey, s.err
}

func newStore(state *stubState, orders *stubOrders) *Store {
	return New(state, orders, NewBus(), nil)
}

func TestAddMergesByID(t *testing.T) {
	ctx := context.Background()
	store := newStore(newStubState(), nil)

	item := domain.CartItem{ID: "a::1", Name: "Coxinha", Qty: 1, PriceCents: 1000}
	if _, err := store.Add(ctx, "dev", []domain.CartItem{item}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := store.Add(ctx, "dev", []domain.CartItem{item})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Qty != 2 || cart.Items[0].PriceCents != 1000 {
		t.Fatalf("merged line = %+v", cart.Items[0])
	}
}

func TestAddBroadcastsChangedAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newStore(newStubState(), nil)

	var changed, opened int
	store.Bus().Subscribe(TopicChanged, func(Event) { changed++ })
	store.Bus().Subscribe(TopicOpen, func(Event) { opened++ })

	if _, err := store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 1, PriceCents: 100}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if changed != 1 || opened != 1 {
		t.Fatalf("changed=%d opened=%d, want 1/1", changed, opened)
	}
}

func TestSetQtyRemovesAtZero(t *testing.T) {
	ctx := context.Background()
	store := newStore(newStubState(), nil)

	store.Add(ctx, "dev", []domain.CartItem{
		{ID: "a", Qty: 2, PriceCents: 100},
		{ID: "b", Qty: 1, PriceCents: 200},
	})

	cart, err := store.SetQty(ctx, "dev", "a", 0)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "b" {
		t.Fatalf("cart after removal = %+v", cart.Items)
	}
}

// After any sequence of add/remove/setQty, the persisted total equals the
// sum of price*qty over the remaining lines and no line has qty <= 0.
func TestMutationSequenceInvariants(t *testing.T) {
	ctx := context.Background()
	state := newStubState()
	store := newStore(state, nil)

	store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 1, PriceCents: 500}})
	store.Add(ctx, "dev", []domain.CartItem{{ID: "b", Qty: 3, PriceCents: 250}})
	store.SetQty(ctx, "dev", "a", 4)
	store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 2, PriceCents: 500}})
	store.SetQty(ctx, "dev", "b", -1)
	store.Remove(ctx, "dev", "missing")

	cart, err := store.Read(ctx, "dev")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var want int64
	for _, line := range cart.Items {
		if line.Qty <= 0 {
			t.Fatalf("line %s has qty %d", line.ID, line.Qty)
		}
		want += line.PriceCents * int64(line.Qty)
	}
	if got := cart.TotalCents(); got != want {
		t.Fatalf("TotalCents = %d, want %d", got, want)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "a" || cart.Items[0].Qty != 6 {
		t.Fatalf("final cart = %+v", cart.Items)
	}
}

func TestReadFailsOpenOnMalformedState(t *testing.T) {
	ctx := context.Background()
	state := newStubState()
	state.values["dev|mysnack:cart"] = []byte(`{"items": [broken`)
	store := newStore(state, nil)

	cart, err := store.Read(ctx, "dev")
	if err != nil {
		t.Fatalf("Read must not fail on malformed state: %v", err)
	}
	if !cart.Empty() {
		t.Fatalf("malformed state must read as empty cart")
	}
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	ctx := context.Background()
	state := newStubState()
	orders := &stubOrders{orderKey: "o1"}
	store := newStore(state, orders)

	var changed int
	store.Bus().Subscribe(TopicChanged, func(Event) { changed++ })

	store.Add(ctx, "dev", []domain.CartItem{{ID: "s1::a", Name: "Pastel", Qty: 2, PriceCents: 800}})
	changed = 0

	key, err := store.Checkout(ctx, "dev", CheckoutInput{
		UID:     "u1",
		StoreID: "s1",
		Table:   domain.Table{MallID: "m1", Number: "7"},
		Payment: domain.OrderPayment{Method: domain.PaymentOnPickup},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if key != "o1" {
		t.Fatalf("order key = %q", key)
	}

	cart, _ := store.Read(ctx, "dev")
	if !cart.Empty() {
		t.Fatalf("cart not cleared after successful checkout")
	}
	if changed != 1 {
		t.Fatalf("expected one change broadcast for the clear, got %d", changed)
	}

	in := orders.lastIn
	if in.SubtotalCents != 1600 || in.TotalCents != 1600 {
		t.Fatalf("totals = %d/%d", in.SubtotalCents, in.TotalCents)
	}
	if in.Pickup.Table != "7" || in.Pickup.MallID != "m1" {
		t.Fatalf("pickup = %+v", in.Pickup)
	}
	if len(in.Items) != 1 || in.Items[0].Qty != 2 {
		t.Fatalf("items = %+v", in.Items)
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	orders := &stubOrders{err: errors.New("loja fechada")}
	store := newStore(newStubState(), orders)

	store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 1, PriceCents: 100}})

	if _, err := store.Checkout(ctx, "dev", CheckoutInput{UID: "u1", StoreID: "s1"}); err == nil {
		t.Fatalf("expected checkout error")
	}
	cart, _ := store.Read(ctx, "dev")
	if cart.Empty() {
		t.Fatalf("cart must stay intact after failed checkout")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newStore(newStubState(), &stubOrders{orderKey: "o1"})
	if _, err := store.Checkout(context.Background(), "dev", CheckoutInput{UID: "u1"}); err == nil {
		t.Fatalf("expected error for empty cart")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := newStore(newStubState(), nil)

	var calls int
	unsub := store.Bus().Subscribe(TopicChanged, func(Event) { calls++ })

	store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 1, PriceCents: 1}})
	unsub()
	store.Add(ctx, "dev", []domain.CartItem{{ID: "a", Qty: 1, PriceCents: 1}})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExternalChangeLooksLikeInternalChange(t *testing.T) {
	store := newStore(newStubState(), nil)

	var events []Event
	store.Bus().Subscribe(TopicChanged, func(e Event) { events = append(events, e) })

	store.NotifyExternalChange("dev")
	if len(events) != 1 || events[0].DeviceID != "dev" {
		t.Fatalf("events = %+v", events)
	}
}
