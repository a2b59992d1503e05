package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mysnackdev/mysnack-storefront/internal/cart"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/realtime"
)

type stubCart struct {
	mu       sync.Mutex
	bag      domain.Cart
	readErr  error
	orderKey string
	orderErr error

	placeCalls    int
	checkoutCalls int
	clearCalls    int
	lastInput     cart.CheckoutInput
}

func (s *stubCart) Read(_ context.Context, _ string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bag, s.readErr
}

func (s *stubCart) PlaceOrder(_ context.Context, _ string, in cart.CheckoutInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeCalls++
	s.lastInput = in
	return s.orderKey, s.orderErr
}

func (s *stubCart) Checkout(ctx context.Context, deviceID string, in cart.CheckoutInput) (string, error) {
	s.mu.Lock()
	s.checkoutCalls++
	s.lastInput = in
	key, err := s.orderKey, s.orderErr
	if err == nil {
		s.clearCalls++
	}
	s.mu.Unlock()
	return key, err
}

func (s *stubCart) Clear(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	return nil
}

func (s *stubCart) clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearCalls
}

type stubWatcher struct {
	mu      sync.Mutex
	watches map[string][]chan realtime.Event
	err     error
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{watches: make(map[string][]chan realtime.Event)}
}

func (s *stubWatcher) Watch(ctx context.Context, path string) (<-chan realtime.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan realtime.Event, 8)
	s.mu.Lock()
	s.watches[path] = append(s.watches[path], ch)
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.watches[path] {
			if c == ch {
				s.watches[path] = append(s.watches[path][:i], s.watches[path][i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (s *stubWatcher) push(path, data string) {
	s.mu.Lock()
	chans := append([]chan realtime.Event(nil), s.watches[path]...)
	s.mu.Unlock()
	for _, ch := range chans {
		ch <- realtime.Event{Path: path, Data: json.RawMessage(data)}
	}
}

func (s *stubWatcher) watcherCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches[path])
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func filledCart() domain.Cart {
	return domain.Cart{Items: []domain.CartItem{{ID: "s1::a", Name: "Coxinha", Qty: 2, PriceCents: 800}}}
}

func testWizard(bag domain.Cart, cards []domain.UserCard, c *stubCart, w *stubWatcher) *Wizard {
	c.bag = bag
	return newWizard(context.Background(), "w1", "dev", "u1", "Maria", "s1", cards, c, w, nil)
}

func TestAdvanceFromItemsGuards(t *testing.T) {
	ctx := context.Background()

	// Empty cart blocks, state stays itens.
	w := testWizard(domain.Cart{}, nil, &stubCart{}, newStubWatcher())
	if _, err := w.Advance(ctx); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if w.Step() != StepItems {
		t.Fatalf("step = %s after blocked advance", w.Step())
	}

	// Items but no table still blocks.
	w = testWizard(filledCart(), nil, &stubCart{}, newStubWatcher())
	if _, err := w.Advance(ctx); !errors.Is(err, ErrNoTable) {
		t.Fatalf("expected ErrNoTable, got %v", err)
	}
	if w.Step() != StepItems {
		t.Fatalf("step = %s after blocked advance", w.Step())
	}

	// Items plus a resolved table moves forward.
	if err := w.SetTable(domain.Table{MallID: "m1", Number: "7", Source: domain.TableSourceQR}); err != nil {
		t.Fatalf("SetTable: %v", err)
	}
	step, err := w.Advance(ctx)
	if err != nil || step != StepPayment {
		t.Fatalf("advance = %s, %v", step, err)
	}
}

func TestPaymentGuards(t *testing.T) {
	ctx := context.Background()
	cards := []domain.UserCard{{ID: "c1", Brand: "visa", Last4: "4242"}}
	w := testWizard(filledCart(), cards, &stubCart{orderKey: "o1"}, newStubWatcher())
	w.SetTable(domain.Table{MallID: "m1", Number: "7"})
	w.Advance(ctx)

	// No method selected.
	if _, err := w.Advance(ctx); !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}

	// Credit card with saved cards demands a card choice.
	if err := w.SelectPayment(domain.PaymentCreditCard, ""); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}
	if _, err := w.Advance(ctx); !errors.Is(err, ErrNoCardSelected) {
		t.Fatalf("expected ErrNoCardSelected, got %v", err)
	}
	if w.Step() != StepPayment {
		t.Fatalf("step = %s after blocked advance", w.Step())
	}

	// Pix needs no card even with cards on file.
	if err := w.SelectPayment(domain.PaymentPix, ""); err != nil {
		t.Fatalf("SelectPayment pix: %v", err)
	}
	step, err := w.Advance(ctx)
	if err != nil || step != StepReview {
		t.Fatalf("advance = %s, %v", step, err)
	}
}

func TestSelectPaymentRejectsUnknownMethod(t *testing.T) {
	w := testWizard(filledCart(), nil, &stubCart{}, newStubWatcher())
	w.SetTable(domain.Table{MallID: "m1"})
	w.Advance(context.Background())
	if err := w.SelectPayment("cheque", ""); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Fatalf("expected ErrUnknownPaymentMethod, got %v", err)
	}
}

func advanceToReview(t *testing.T, w *Wizard, method, cardID string) {
	t.Helper()
	ctx := context.Background()
	if err := w.SetTable(domain.Table{MallID: "m1", Number: "7"}); err != nil {
		t.Fatalf("SetTable: %v", err)
	}
	if _, err := w.Advance(ctx); err != nil {
		t.Fatalf("advance to payment: %v", err)
	}
	if err := w.SelectPayment(method, cardID); err != nil {
		t.Fatalf("SelectPayment: %v", err)
	}
	if _, err := w.Advance(ctx); err != nil {
		t.Fatalf("advance to review: %v", err)
	}
}

func TestOnPickupConfirmsImmediately(t *testing.T) {
	c := &stubCart{orderKey: "o1"}
	w := testWizard(filledCart(), nil, c, newStubWatcher())
	advanceToReview(t, w, domain.PaymentOnPickup, "")

	step, err := w.Advance(context.Background())
	if err != nil || step != StepSuccess {
		t.Fatalf("advance = %s, %v", step, err)
	}
	if c.checkoutCalls != 1 || c.placeCalls != 0 {
		t.Fatalf("checkout=%d place=%d", c.checkoutCalls, c.placeCalls)
	}
	if c.clears() != 1 {
		t.Fatalf("cart not cleared on immediate success")
	}
}

func TestOnlinePaymentApproved(t *testing.T) {
	c := &stubCart{orderKey: "o1"}
	watcher := newStubWatcher()
	w := testWizard(filledCart(), nil, c, watcher)
	advanceToReview(t, w, domain.PaymentPix, "")

	step, err := w.Advance(context.Background())
	if err != nil || step != StepAwaiting {
		t.Fatalf("advance = %s, %v", step, err)
	}
	if c.placeCalls != 1 || c.checkoutCalls != 0 {
		t.Fatalf("place=%d checkout=%d", c.placeCalls, c.checkoutCalls)
	}
	if c.clears() != 0 {
		t.Fatalf("cart cleared before payment confirmation")
	}

	const path = "orders/o1/payment/status"
	waitFor(t, func() bool { return watcher.watcherCount(path) == 1 })

	// Intermediate states are ignored.
	watcher.push(path, `"pending"`)
	watcher.push(path, `"approved"`)
	waitFor(t, func() bool { return w.Step() == StepSuccess })
	waitFor(t, func() bool { return c.clears() == 1 })

	// The subscription tore itself down; a late declined changes nothing.
	waitFor(t, func() bool { return watcher.watcherCount(path) == 0 })
	if w.Step() != StepSuccess {
		t.Fatalf("step = %s after late event", w.Step())
	}
}

func TestOnlinePaymentDeclined(t *testing.T) {
	c := &stubCart{orderKey: "o1"}
	watcher := newStubWatcher()
	w := testWizard(filledCart(), nil, c, watcher)
	advanceToReview(t, w, domain.PaymentCreditCard, "")

	if _, err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	const path = "orders/o1/payment/status"
	waitFor(t, func() bool { return watcher.watcherCount(path) == 1 })

	watcher.push(path, `"declined"`)
	waitFor(t, func() bool { return w.Step() == StepFailure })
	if c.clears() != 0 {
		t.Fatalf("cart cleared on declined payment")
	}
	waitFor(t, func() bool { return watcher.watcherCount(path) == 0 })
}

func TestOrderCreationFailureReturnsToPayment(t *testing.T) {
	c := &stubCart{orderErr: errors.New("loja fechada")}
	w := testWizard(filledCart(), nil, c, newStubWatcher())
	advanceToReview(t, w, domain.PaymentPix, "")

	if _, err := w.Advance(context.Background()); err == nil {
		t.Fatalf("expected order creation error")
	}
	if w.Step() != StepPayment {
		t.Fatalf("step = %s, want pagamento so the method can change", w.Step())
	}
	if c.clears() != 0 {
		t.Fatalf("cart cleared on failed order creation")
	}

	// Pick a different method and retry.
	c.mu.Lock()
	c.orderErr = nil
	c.orderKey = "order-2"
	c.mu.Unlock()

	if err := w.SelectPayment(domain.PaymentOnPickup, ""); err != nil {
		t.Fatalf("change method after failure: %v", err)
	}
	if step, err := w.Advance(context.Background()); err != nil || step != StepReview {
		t.Fatalf("advance to review = %s, %v", step, err)
	}
	step, err := w.Advance(context.Background())
	if err != nil || step != StepSuccess {
		t.Fatalf("retry after method change = %s, %v", step, err)
	}
	if w.State().OrderKey != "order-2" {
		t.Fatalf("order key = %q, want order-2", w.State().OrderKey)
	}
}

func TestCancel(t *testing.T) {
	w := testWizard(filledCart(), nil, &stubCart{}, newStubWatcher())
	if err := w.Cancel(); err != nil {
		t.Fatalf("Cancel from itens: %v", err)
	}
	if w.Step() != StepCancelled {
		t.Fatalf("step = %s", w.Step())
	}
	// Terminal states refuse further transitions.
	if _, err := w.Advance(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second cancel, got %v", err)
	}
}

func TestCancelRejectedWhileAwaiting(t *testing.T) {
	c := &stubCart{orderKey: "o1"}
	watcher := newStubWatcher()
	w := testWizard(filledCart(), nil, c, watcher)
	advanceToReview(t, w, domain.PaymentPix, "")
	if _, err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition while awaiting, got %v", err)
	}
}

func TestManagerSessions(t *testing.T) {
	c := &stubCart{bag: filledCart()}
	m := NewManager(context.Background(), c, newStubWatcher(), nil, nil)

	w := m.Start(context.Background(), "dev", "u1", "Maria", "s1")
	if w.Step() != StepItems {
		t.Fatalf("new session step = %s", w.Step())
	}

	got, err := m.Get(w.ID)
	if err != nil || got != w {
		t.Fatalf("Get = %v, %v", got, err)
	}

	m.Remove(w.ID)
	if _, err := m.Get(w.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Remove, got %v", err)
	}
}

func TestManagerSweepsFinishedSessions(t *testing.T) {
	c := &stubCart{bag: filledCart()}
	m := NewManager(context.Background(), c, newStubWatcher(), nil, nil)

	w := m.Start(context.Background(), "dev", "u1", "Maria", "s1")
	if err := w.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// A freshly finished session stays readable for the client to poll.
	if _, err := m.Get(w.ID); err != nil {
		t.Fatalf("finished session gone too early: %v", err)
	}

	w.mu.Lock()
	w.doneAt = time.Now().Add(-sessionRetention - time.Minute)
	w.mu.Unlock()

	if _, err := m.Get(w.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected retention sweep to forget the session, got %v", err)
	}
}
