package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mysnackdev/mysnack-storefront/internal/cart"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/realtime"
)

// Step is one wizard state. The flow is
// itens -> pagamento -> revisao -> aguardando -> sucesso|falha, with
// cancelado reachable from any step before aguardando. Transitions happen
// only through Advance/Cancel; illegal ones are rejected centrally here
// instead of being scattered across UI guards.
type Step string

const (
	StepItems     Step = "itens"
	StepPayment   Step = "pagamento"
	StepReview    Step = "revisao"
	StepAwaiting  Step = "aguardando"
	StepSuccess   Step = "sucesso"
	StepFailure   Step = "falha"
	StepCancelled Step = "cancelado"
)

var (
	// ErrInvalidTransition rejects an Advance/Cancel the current step
	// does not allow.
	ErrInvalidTransition = errors.New("invalid checkout transition")
	// ErrEmptyCart blocks leaving the items step without cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoTable blocks leaving the items step without a resolved table.
	ErrNoTable = errors.New("table not resolved")
	// ErrNoPaymentMethod blocks leaving the payment step without a method.
	ErrNoPaymentMethod = errors.New("payment method not selected")
	// ErrNoCardSelected blocks credit card payment when saved cards exist
	// but none was chosen.
	ErrNoCardSelected = errors.New("card not selected")
	// ErrUnknownPaymentMethod rejects methods outside the accepted set.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

type cartGateway interface {
	Read(ctx context.Context, deviceID string) (domain.Cart, error)
	PlaceOrder(ctx context.Context, deviceID string, in cart.CheckoutInput) (string, error)
	Checkout(ctx context.Context, deviceID string, in cart.CheckoutInput) (string, error)
	Clear(ctx context.Context, deviceID string) error
}

type paymentWatcher interface {
	Watch(ctx context.Context, path string) (<-chan realtime.Event, error)
}

// Wizard drives one checkout session for one device.
type Wizard struct {
	ID       string
	DeviceID string
	UID      string
	Nome     string
	StoreID  string

	cart    cartGateway
	rt      paymentWatcher
	logger  *log.Logger
	baseCtx context.Context

	mu          sync.Mutex
	step        Step
	table       *domain.Table
	method      string
	cardID      string
	cards       []domain.UserCard
	orderKey    string
	cancelWatch context.CancelFunc
	doneAt      time.Time
}

// newWizard starts at the items step. baseCtx bounds the payment watch so it
// survives the HTTP request that triggered it but dies with the server.
func newWizard(baseCtx context.Context, id, deviceID, uid, nome, storeID string, cards []domain.UserCard, cartStore cartGateway, rt paymentWatcher, logger *log.Logger) *Wizard {
	return &Wizard{
		ID:       id,
		DeviceID: deviceID,
		UID:      uid,
		Nome:     nome,
		StoreID:  storeID,
		cart:     cartStore,
		rt:       rt,
		logger:   logger,
		baseCtx:  baseCtx,
		step:     StepItems,
		cards:    cards,
	}
}

// State is a read-only snapshot for rendering.
type State struct {
	ID       string            `json:"id"`
	Step     Step              `json:"step"`
	Table    *domain.Table     `json:"table,omitempty"`
	Method   string            `json:"method,omitempty"`
	CardID   string            `json:"cardId,omitempty"`
	Cards    []domain.UserCard `json:"cards,omitempty"`
	OrderKey string            `json:"orderKey,omitempty"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		ID:       w.ID,
		Step:     w.step,
		Table:    w.table,
		Method:   w.method,
		CardID:   w.cardID,
		Cards:    w.cards,
		OrderKey: w.orderKey,
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// finishedSince reports when the session reached sucesso, falha or cancelado.
func (w *Wizard) finishedSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doneAt.IsZero() {
		return time.Time{}, false
	}
	return w.doneAt, true
}

// SetTable records the resolved table. Only meaningful while picking items.
func (w *Wizard) SetTable(t domain.Table) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepItems {
		return ErrInvalidTransition
	}
	w.table = &t
	return nil
}

// SelectPayment records the method (and card, for credit card payments).
func (w *Wizard) SelectPayment(method, cardID string) error {
	switch method {
	case domain.PaymentPix, domain.PaymentCreditCard, domain.PaymentDebitCard, domain.PaymentOnPickup:
	default:
		return ErrUnknownPaymentMethod
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPayment {
		return ErrInvalidTransition
	}
	w.method = method
	w.cardID = cardID
	return nil
}

// Advance moves the wizard one step forward, enforcing the guards. On a
// guard failure the step does not change; when order creation fails the
// wizard drops back to the payment step so the method can be changed before
// retrying.
func (w *Wizard) Advance(ctx context.Context) (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepItems:
		bag, err := w.cart.Read(ctx, w.DeviceID)
		if err != nil {
			return w.step, err
		}
		if bag.Empty() {
			return w.step, ErrEmptyCart
		}
		if w.table == nil || !w.table.Resolved() {
			return w.step, ErrNoTable
		}
		w.step = StepPayment
		return w.step, nil

	case StepPayment:
		if w.method == "" {
			return w.step, ErrNoPaymentMethod
		}
		if w.method == domain.PaymentCreditCard && len(w.cards) > 0 && w.cardID == "" {
			return w.step, ErrNoCardSelected
		}
		w.step = StepReview
		return w.step, nil

	case StepReview:
		return w.placeOrderLocked(ctx)

	default:
		return w.step, ErrInvalidTransition
	}
}

func (w *Wizard) placeOrderLocked(ctx context.Context) (Step, error) {
	in := cart.CheckoutInput{
		UID:     w.UID,
		Nome:    w.Nome,
		StoreID: w.StoreID,
		Payment: domain.OrderPayment{Method: w.method, CardID: w.cardID},
	}
	if w.table != nil {
		in.Table = *w.table
	}

	if !domain.IsOnlinePayment(w.method) {
		// Pay-on-pickup settles at the counter: order creation is the whole
		// transaction, so the cart clears immediately.
		orderKey, err := w.cart.Checkout(ctx, w.DeviceID, in)
		if err != nil {
			w.step = StepPayment
			return w.step, err
		}
		w.orderKey = orderKey
		w.step = StepSuccess
		w.doneAt = time.Now()
		return w.step, nil
	}

	// Online payment: create the order but keep the cart until the platform
	// confirms, then wait on the payment status push.
	orderKey, err := w.cart.PlaceOrder(ctx, w.DeviceID, in)
	if err != nil {
		w.step = StepPayment
		return w.step, err
	}
	w.orderKey = orderKey
	w.step = StepAwaiting

	watchCtx, cancel := context.WithCancel(w.baseCtx)
	w.cancelWatch = cancel
	events, err := w.rt.Watch(watchCtx, "orders/"+orderKey+"/payment/status")
	if err != nil {
		// The order exists; without the stream the wizard would hang, so
		// fail the session and leave the cart for a retry.
		cancel()
		w.cancelWatch = nil
		w.step = StepFailure
		w.doneAt = time.Now()
		return w.step, err
	}
	go w.awaitPayment(events)
	return w.step, nil
}

// awaitPayment consumes the payment stream until it resolves. There is no
// timeout: the session waits until approved/declined arrives or the wizard's
// base context dies.
func (w *Wizard) awaitPayment(events <-chan realtime.Event) {
	for ev := range events {
		var status string
		if err := json.Unmarshal(ev.Data, &status); err != nil {
			continue
		}
		switch status {
		case domain.PaymentApproved:
			w.resolvePayment(StepSuccess)
			return
		case domain.PaymentDeclined:
			w.resolvePayment(StepFailure)
			return
		}
	}
}

func (w *Wizard) resolvePayment(outcome Step) {
	w.mu.Lock()
	if w.step != StepAwaiting {
		w.mu.Unlock()
		return
	}
	w.step = outcome
	w.doneAt = time.Now()
	cancel := w.cancelWatch
	w.cancelWatch = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if outcome == StepSuccess {
		clearCtx, done := context.WithTimeout(w.baseCtx, 10*time.Second)
		defer done()
		if err := w.cart.Clear(clearCtx, w.DeviceID); err != nil && w.logger != nil {
			w.logger.Printf("checkout: clear cart after approval for %s: %v", w.DeviceID, err)
		}
	}
}

// Cancel aborts the session. Allowed at any step before the order exists;
// once payment is awaiting or the session resolved it is rejected.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepItems, StepPayment, StepReview:
		w.step = StepCancelled
		w.doneAt = time.Now()
		return nil
	default:
		return ErrInvalidTransition
	}
}
