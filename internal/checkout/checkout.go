// Package checkout turns a cart into an order, either through the payment
// processor or, when that is unavailable, through the demo flow that places
// the order without collecting payment.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/khaista/boutique/internal/cart"
	"github.com/khaista/boutique/internal/payments"
)

// State is where a checkout attempt stands.
type State string

const (
	StateLoading        State = "loading"
	StateRedirectToCart State = "redirect-to-cart"
	StateDemo           State = "demo"
	StateStripeReady    State = "stripe-ready"
	StateSuccess        State = "success"
	StateFailure        State = "failure"
)

const (
	msgUnavailable     = "Payment system unavailable. Please try again later."
	msgPaymentFailed   = "Payment failed. Please try again."
	msgConfirmFailed   = "Unable to confirm payment. Please try again."
	msgMissingIntentID = "Missing payment intent"
	msgIntentMismatch  = "This payment does not belong to your checkout. Please start checkout again."
	msgCartChanged     = "Your cart changed during checkout. Please start checkout again."
)

// Config controls how checkout reaches the payment backend.
type Config struct {
	// BackendAvailable is false on static hosting, where checkout never
	// contacts the payment backend.
	BackendAvailable bool
	// DemoFallback sends failed intent creations down the demo path instead
	// of failing the attempt.
	DemoFallback bool

	Currency         string
	PublishableKey   string
	DemoDelay        time.Duration
	IntentTimeout    time.Duration
	CartPath         string
	ConfirmationPath string

	// NotifyTimeout bounds the order listeners, which run after the response.
	NotifyTimeout time.Duration
}

// DefaultConfig is the storefront's checkout behavior out of the box.
func DefaultConfig() Config {
	return Config{
		BackendAvailable: true,
		DemoFallback:     true,
		Currency:         "usd",
		DemoDelay:        700 * time.Millisecond,
		IntentTimeout:    10 * time.Second,
		NotifyTimeout:    30 * time.Second,
		CartPath:         "/cart",
		ConfirmationPath: "/order-confirmation",
	}
}

// Attempt is the outcome of one checkout step.
type Attempt struct {
	State           State          `json:"state"`
	Redirect        string         `json:"redirect,omitempty"`
	ClientSecret    string         `json:"clientSecret,omitempty"`
	PaymentIntentID string         `json:"paymentIntentId,omitempty"`
	PublishableKey  string         `json:"publishableKey,omitempty"`
	Order           *OrderSnapshot `json:"order,omitempty"`
	FallbackReason  string         `json:"fallbackReason,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Orchestrator runs checkout attempts for carts.
type Orchestrator struct {
	backend   payments.Backend
	cfg       Config
	listeners []OrderListener
	pending   sync.WaitGroup

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns an orchestrator. backend may be nil when cfg.BackendAvailable
// is false.
func New(backend payments.Backend, cfg Config, listeners ...OrderListener) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		cfg:       cfg,
		listeners: listeners,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Begin starts checkout for c. An empty cart redirects back to the cart
// without touching the backend.
func (o *Orchestrator) Begin(ctx context.Context, c *cart.Store, tab Tab) (*Attempt, error) {
	if c.IsEmpty() {
		return &Attempt{State: StateRedirectToCart, Redirect: o.cfg.CartPath}, nil
	}

	if !o.cfg.BackendAvailable || o.backend == nil {
		return o.demo(ctx, c, tab, "")
	}

	intent, err := o.createIntent(ctx, c, tab)
	if err != nil {
		slog.Warn("payment backend unavailable", "error", err, "demo_fallback", o.cfg.DemoFallback)
		if !o.cfg.DemoFallback {
			return &Attempt{State: StateFailure, Error: msgUnavailable}, nil
		}
		return o.demo(ctx, c, tab, err.Error())
	}

	return &Attempt{
		State:           StateStripeReady,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PublishableKey:  o.cfg.PublishableKey,
	}, nil
}

// createIntent asks the backend for an intent covering the cart and records
// it on the tab, so Confirm only accepts that intent for that amount.
func (o *Orchestrator) createIntent(ctx context.Context, c *cart.Store, tab Tab) (*payments.Intent, error) {
	intentCtx := ctx
	if o.cfg.IntentTimeout > 0 {
		var cancel context.CancelFunc
		intentCtx, cancel = context.WithTimeout(ctx, o.cfg.IntentTimeout)
		defer cancel()
	}

	amount := c.TotalPrice()
	intent, err := o.backend.CreateIntent(intentCtx, amount, o.cfg.Currency)
	if err != nil {
		return nil, err
	}
	if intent == nil || intent.ClientSecret == "" {
		return nil, payments.ErrMissingClientSecret
	}
	if intent.ID == "" {
		intent.ID = payments.IntentIDFromSecret(intent.ClientSecret)
	}

	if err := tab.SavePendingIntent(ctx, PendingIntent{ID: intent.ID, Amount: amount}); err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}
	return intent, nil
}

// demo places the order without payment: snapshot, pause, clear the cart.
func (o *Orchestrator) demo(ctx context.Context, c *cart.Store, tab Tab, reason string) (*Attempt, error) {
	order := snapshotOf(c, o.now(), true)
	writeOrder(ctx, tab, order)

	if err := o.sleep(ctx, o.cfg.DemoDelay); err != nil {
		return nil, err
	}

	c.Clear(ctx)
	clearPendingIntent(ctx, tab)
	o.notify(ctx, order)
	slog.Info("demo order placed", "order_id", order.ID, "subtotal", order.Subtotal.String(), "fallback_reason", reason)

	return &Attempt{
		State:          StateDemo,
		Redirect:       o.cfg.ConfirmationPath,
		Order:          &order,
		FallbackReason: reason,
	}, nil
}

// Confirm finishes a stripe-ready attempt once the payment form has been
// submitted. Only the intent Begin recorded on the tab is accepted, and only
// while the cart still totals what that intent charges. A failed payment
// leaves the cart untouched so the customer can retry.
func (o *Orchestrator) Confirm(ctx context.Context, c *cart.Store, tab Tab, paymentIntentID string) (*Attempt, error) {
	if paymentIntentID == "" {
		return &Attempt{State: StateFailure, Error: msgMissingIntentID}, nil
	}
	if c.IsEmpty() {
		return &Attempt{State: StateRedirectToCart, Redirect: o.cfg.CartPath}, nil
	}
	if o.backend == nil {
		return &Attempt{State: StateFailure, Error: msgUnavailable}, nil
	}

	pending, ok := tab.PendingIntent(ctx)
	if !ok || pending.ID != paymentIntentID {
		slog.Warn("payment intent does not match checkout attempt", "payment_intent_id", paymentIntentID, "pending_intent_id", pending.ID)
		return &Attempt{State: StateFailure, PaymentIntentID: paymentIntentID, Error: msgIntentMismatch}, nil
	}

	order := snapshotOf(c, o.now(), false)
	if order.Subtotal != pending.Amount {
		slog.Warn("cart changed after payment intent was created", "payment_intent_id", paymentIntentID, "intent_amount", pending.Amount.String(), "cart_total", order.Subtotal.String())
		return &Attempt{State: StateFailure, PaymentIntentID: paymentIntentID, Error: msgCartChanged}, nil
	}

	conf, err := o.backend.Confirmation(ctx, paymentIntentID)
	if err != nil {
		slog.Error("failed to confirm payment", "payment_intent_id", paymentIntentID, "error", err)
		return &Attempt{State: StateFailure, PaymentIntentID: paymentIntentID, Error: msgConfirmFailed}, nil
	}
	if !conf.Succeeded {
		msg := conf.Message
		if msg == "" {
			msg = msgPaymentFailed
		}
		slog.Warn("payment not completed", "payment_intent_id", paymentIntentID, "status", conf.Status)
		return &Attempt{State: StateFailure, PaymentIntentID: paymentIntentID, Error: msg}, nil
	}

	if conf.Amount != order.Subtotal {
		slog.Error("paid amount does not match order", "payment_intent_id", paymentIntentID, "paid", conf.Amount.String(), "subtotal", order.Subtotal.String())
		return &Attempt{State: StateFailure, PaymentIntentID: paymentIntentID, Error: msgCartChanged}, nil
	}

	order.PaymentIntentID = paymentIntentID
	writeOrder(ctx, tab, order)
	c.Clear(ctx)
	clearPendingIntent(ctx, tab)
	o.notify(ctx, order)
	slog.Info("order placed", "order_id", order.ID, "payment_intent_id", paymentIntentID, "subtotal", order.Subtotal.String())

	return &Attempt{
		State:           StateSuccess,
		Redirect:        o.cfg.ConfirmationPath,
		PaymentIntentID: paymentIntentID,
		Order:           &order,
	}, nil
}

// notify runs the listeners in the background, detached from the request
// and bounded by NotifyTimeout.
func (o *Orchestrator) notify(ctx context.Context, order OrderSnapshot) {
	if len(o.listeners) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	cancel := func() {}
	if o.cfg.NotifyTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.cfg.NotifyTimeout)
	}

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer cancel()
		for _, l := range o.listeners {
			if err := l.OrderPlaced(ctx, order); err != nil {
				slog.Error("order listener failed", "order_id", order.ID, "error", err)
			}
		}
	}()
}

// Wait blocks until in-flight order notifications finish or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeOrder stores the confirmation snapshot. The confirmation page copes
// without one, so a failed write does not fail the order.
func writeOrder(ctx context.Context, tab Tab, order OrderSnapshot) {
	if err := tab.WriteOrder(ctx, order); err != nil {
		slog.Error("failed to store order snapshot", "order_id", order.ID, "error", err)
	}
}

func clearPendingIntent(ctx context.Context, tab Tab) {
	if err := tab.ClearPendingIntent(ctx); err != nil {
		slog.Error("failed to clear payment intent", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
