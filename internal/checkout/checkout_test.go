package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khaista/boutique/internal/cart"
	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/internal/payments"
	"github.com/khaista/boutique/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	intent       *payments.Intent
	intentErr    error
	confirmation *payments.Confirmation
	confirmErr   error

	createCalls  int
	confirmCalls int
	lastAmount   money.Cents
	block        bool
}

func (f *fakeBackend) CreateIntent(ctx context.Context, amount money.Cents, currency string) (*payments.Intent, error) {
	f.createCalls++
	f.lastAmount = amount
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.intent, f.intentErr
}

func (f *fakeBackend) Confirmation(ctx context.Context, intentID string) (*payments.Confirmation, error) {
	f.confirmCalls++
	return f.confirmation, f.confirmErr
}

type memoryTab struct {
	orders  []OrderSnapshot
	pending *PendingIntent
	err     error
}

func (m *memoryTab) WriteOrder(ctx context.Context, order OrderSnapshot) error {
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *memoryTab) SavePendingIntent(ctx context.Context, intent PendingIntent) error {
	if m.err != nil {
		return m.err
	}
	m.pending = &intent
	return nil
}

func (m *memoryTab) PendingIntent(ctx context.Context) (PendingIntent, bool) {
	if m.pending == nil {
		return PendingIntent{}, false
	}
	return *m.pending, true
}

func (m *memoryTab) ClearPendingIntent(ctx context.Context) error {
	m.pending = nil
	return nil
}

// pendingTab is a tab on which Begin already created intent id for amount.
func pendingTab(id string, amount money.Cents) *memoryTab {
	return &memoryTab{pending: &PendingIntent{ID: id, Amount: amount}}
}

type recordingListener struct {
	orders []OrderSnapshot
}

func (r *recordingListener) OrderPlaced(ctx context.Context, order OrderSnapshot) error {
	r.orders = append(r.orders, order)
	return errors.New("listener errors are only logged")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DemoDelay = 0
	cfg.PublishableKey = "pk_test"
	return cfg
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	c := cart.New(state.NewMemoryStore(), "visitor")
	c.AddItem(ctx, catalog.Product{ID: "a", Name: "Scarf", Price: 1000, Category: catalog.CategoryClothing}, 2)
	c.AddItem(ctx, catalog.Product{ID: "b", Name: "Ring", Price: 550, Category: catalog.CategoryJewelry}, 1)
	return c
}

func TestBeginEmptyCartRedirects(t *testing.T) {
	backend := &fakeBackend{}
	o := New(backend, testConfig())

	attempt, err := o.Begin(context.Background(), cart.New(nil, "visitor"), &memoryTab{})
	require.NoError(t, err)
	assert.Equal(t, StateRedirectToCart, attempt.State)
	assert.Equal(t, "/cart", attempt.Redirect)
	assert.Zero(t, backend.createCalls)
}

func TestBeginStripeReady(t *testing.T) {
	backend := &fakeBackend{intent: &payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}}
	o := New(backend, testConfig())
	c := filledCart(t)
	tab := &memoryTab{}

	attempt, err := o.Begin(context.Background(), c, tab)
	require.NoError(t, err)
	assert.Equal(t, StateStripeReady, attempt.State)
	assert.Equal(t, "pi_1_secret_x", attempt.ClientSecret)
	assert.Equal(t, "pi_1", attempt.PaymentIntentID)
	assert.Equal(t, "pk_test", attempt.PublishableKey)
	assert.Equal(t, money.Cents(2550), backend.lastAmount)

	assert.Equal(t, 3, c.TotalItems(), "cart is kept until payment is confirmed")
	assert.Empty(t, tab.orders)
	assert.Equal(t, &PendingIntent{ID: "pi_1", Amount: 2550}, tab.pending)
}

func TestBeginRecoversIntentIDFromSecret(t *testing.T) {
	o := New(&fakeBackend{intent: &payments.Intent{ClientSecret: "pi_9_secret_x"}}, testConfig())
	tab := &memoryTab{}

	attempt, err := o.Begin(context.Background(), filledCart(t), tab)
	require.NoError(t, err)
	assert.Equal(t, "pi_9", attempt.PaymentIntentID)
	require.NotNil(t, tab.pending)
	assert.Equal(t, "pi_9", tab.pending.ID)
}

func TestBeginFallsBackToDemo(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		reason  string
	}{
		{"network error", &fakeBackend{intentErr: errors.New("connection refused")}, "connection refused"},
		{"missing client secret", &fakeBackend{intent: &payments.Intent{ID: "pi_1"}}, payments.ErrMissingClientSecret.Error()},
		{"nil intent", &fakeBackend{}, payments.ErrMissingClientSecret.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listener := &recordingListener{}
			o := New(tt.backend, testConfig(), listener)
			c := filledCart(t)
			preClearTotal := c.TotalPrice()
			tab := &memoryTab{}

			attempt, err := o.Begin(context.Background(), c, tab)
			require.NoError(t, err)

			assert.Equal(t, StateDemo, attempt.State)
			assert.Equal(t, "/order-confirmation", attempt.Redirect)
			assert.Contains(t, attempt.FallbackReason, tt.reason)
			assert.True(t, c.IsEmpty())

			require.Len(t, tab.orders, 1)
			order := tab.orders[0]
			assert.Equal(t, preClearTotal, order.Subtotal)
			assert.True(t, order.Demo)
			assert.True(t, strings.HasPrefix(order.ID, "demo-"))
			assert.Equal(t, []OrderItem{
				{ID: "a", Name: "Scarf", Qty: 2, Price: 1000},
				{ID: "b", Name: "Ring", Qty: 1, Price: 550},
			}, order.Items)

			require.NoError(t, o.Wait(context.Background()))
			require.Len(t, listener.orders, 1)
			assert.Equal(t, order.ID, listener.orders[0].ID)
		})
	}
}

func TestBeginBackendDisabledSkipsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	cfg := testConfig()
	cfg.BackendAvailable = false
	o := New(backend, cfg)
	c := filledCart(t)
	tab := &memoryTab{}

	attempt, err := o.Begin(context.Background(), c, tab)
	require.NoError(t, err)
	assert.Equal(t, StateDemo, attempt.State)
	assert.Empty(t, attempt.FallbackReason)
	assert.Zero(t, backend.createCalls)
	assert.Len(t, tab.orders, 1)
}

func TestBeginWithoutDemoFallback(t *testing.T) {
	cfg := testConfig()
	cfg.DemoFallback = false
	o := New(&fakeBackend{intentErr: errors.New("down")}, cfg)
	c := filledCart(t)
	tab := &memoryTab{}

	attempt, err := o.Begin(context.Background(), c, tab)
	require.NoError(t, err)
	assert.Equal(t, StateFailure, attempt.State)
	assert.Equal(t, msgUnavailable, attempt.Error)
	assert.Equal(t, 3, c.TotalItems())
	assert.Empty(t, tab.orders)
}

func TestBeginIntentTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.IntentTimeout = 10 * time.Millisecond
	o := New(&fakeBackend{block: true}, cfg)
	c := filledCart(t)

	attempt, err := o.Begin(context.Background(), c, &memoryTab{})
	require.NoError(t, err)
	assert.Equal(t, StateDemo, attempt.State)
	assert.Contains(t, attempt.FallbackReason, context.DeadlineExceeded.Error())
}

func TestDemoDelayHonorsCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.BackendAvailable = false
	cfg.DemoDelay = time.Hour
	o := New(nil, cfg)
	c := filledCart(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Begin(ctx, c, &memoryTab{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.IsEmpty(), "cart survives an abandoned demo checkout")
}

func TestDemoWaitsConfiguredDelay(t *testing.T) {
	cfg := testConfig()
	cfg.BackendAvailable = false
	cfg.DemoDelay = 700 * time.Millisecond
	o := New(nil, cfg)

	var slept time.Duration
	o.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	_, err := o.Begin(context.Background(), filledCart(t), &memoryTab{})
	require.NoError(t, err)
	assert.Equal(t, 700*time.Millisecond, slept)
}

func TestOrderSnapshotWriteFailureStillPlacesOrder(t *testing.T) {
	cfg := testConfig()
	cfg.BackendAvailable = false
	o := New(nil, cfg)
	c := filledCart(t)

	attempt, err := o.Begin(context.Background(), c, &memoryTab{err: errors.New("disk full")})
	require.NoError(t, err)
	assert.Equal(t, StateDemo, attempt.State)
	assert.Equal(t, "/order-confirmation", attempt.Redirect)
	require.NotNil(t, attempt.Order)
	assert.Equal(t, money.Cents(2550), attempt.Order.Subtotal)
	assert.True(t, c.IsEmpty())
}

func TestListenersDoNotDelayCheckout(t *testing.T) {
	cfg := testConfig()
	cfg.BackendAvailable = false
	release := make(chan struct{})
	var finished error
	blocking := OrderListenerFunc(func(ctx context.Context, order OrderSnapshot) error {
		select {
		case <-release:
		case <-ctx.Done():
			finished = ctx.Err()
		}
		return nil
	})
	o := New(nil, cfg, blocking)

	start := time.Now()
	attempt, err := o.Begin(context.Background(), filledCart(t), &memoryTab{})
	require.NoError(t, err)
	assert.Equal(t, StateDemo, attempt.State)
	assert.Less(t, time.Since(start), time.Second)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.Wait(short), context.DeadlineExceeded, "listener is still running")

	close(release)
	require.NoError(t, o.Wait(context.Background()))
	assert.NoError(t, finished)
}

func TestListenersAreBoundedByNotifyTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.BackendAvailable = false
	cfg.NotifyTimeout = 10 * time.Millisecond
	var listenerErr error
	hung := OrderListenerFunc(func(ctx context.Context, order OrderSnapshot) error {
		<-ctx.Done()
		listenerErr = ctx.Err()
		return listenerErr
	})
	o := New(nil, cfg, hung)

	_, err := o.Begin(context.Background(), filledCart(t), &memoryTab{})
	require.NoError(t, err)
	require.NoError(t, o.Wait(context.Background()))
	assert.ErrorIs(t, listenerErr, context.DeadlineExceeded)
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("success places the order", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true}}
		listener := &recordingListener{}
		o := New(backend, testConfig(), listener)
		c := filledCart(t)
		tab := pendingTab("pi_1", 2550)

		attempt, err := o.Confirm(ctx, c, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, attempt.State)
		assert.Equal(t, "/order-confirmation", attempt.Redirect)
		assert.True(t, c.IsEmpty())
		assert.Nil(t, tab.pending, "an intent places one order only")

		require.Len(t, tab.orders, 1)
		assert.False(t, tab.orders[0].Demo)
		assert.Equal(t, "pi_1", tab.orders[0].PaymentIntentID)
		assert.Equal(t, money.Cents(2550), tab.orders[0].Subtotal)
		require.NoError(t, o.Wait(ctx))
		assert.Len(t, listener.orders, 1)
	})

	t.Run("intent from another attempt is rejected", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 50}}
		c := filledCart(t)
		tab := pendingTab("pi_1", 2550)

		attempt, err := New(backend, testConfig()).Confirm(ctx, c, tab, "pi_cheap")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, msgIntentMismatch, attempt.Error)
		assert.Zero(t, backend.confirmCalls)
		assert.Equal(t, 3, c.TotalItems())
		assert.Empty(t, tab.orders)
	})

	t.Run("no attempt in progress", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 2550}}
		c := filledCart(t)

		attempt, err := New(backend, testConfig()).Confirm(ctx, c, &memoryTab{}, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, msgIntentMismatch, attempt.Error)
		assert.False(t, c.IsEmpty())
	})

	t.Run("used intent cannot place a second order", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 2550}}
		o := New(backend, testConfig())
		tab := pendingTab("pi_1", 2550)

		attempt, err := o.Confirm(ctx, filledCart(t), tab, "pi_1")
		require.NoError(t, err)
		require.Equal(t, StateSuccess, attempt.State)

		again := filledCart(t)
		attempt, err = o.Confirm(ctx, again, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, 3, again.TotalItems())
		assert.Len(t, tab.orders, 1)
	})

	t.Run("cart grew after the intent was created", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 2550}}
		c := filledCart(t)
		c.AddItem(ctx, catalog.Product{ID: "c", Name: "Kochi Dress", Price: 99900, Category: catalog.CategoryClothing}, 1)
		tab := pendingTab("pi_1", 2550)

		attempt, err := New(backend, testConfig()).Confirm(ctx, c, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, msgCartChanged, attempt.Error)
		assert.Zero(t, backend.confirmCalls)
		assert.Equal(t, 4, c.TotalItems())
		assert.Empty(t, tab.orders)
	})

	t.Run("paid amount differs from the order", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 50}}
		c := filledCart(t)
		tab := pendingTab("pi_1", 2550)

		attempt, err := New(backend, testConfig()).Confirm(ctx, c, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, msgCartChanged, attempt.Error)
		assert.Equal(t, 3, c.TotalItems())
		assert.Empty(t, tab.orders)
	})

	t.Run("declined payment keeps the cart", func(t *testing.T) {
		backend := &fakeBackend{confirmation: &payments.Confirmation{Status: "requires_payment_method", Message: "Your card was declined."}}
		o := New(backend, testConfig())
		c := filledCart(t)
		tab := pendingTab("pi_1", 2550)

		attempt, err := o.Confirm(ctx, c, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, "Your card was declined.", attempt.Error)
		assert.Equal(t, 3, c.TotalItems())
		assert.Empty(t, tab.orders)

		// retry succeeds
		backend.confirmation = &payments.Confirmation{Status: "succeeded", Succeeded: true, Amount: 2550}
		attempt, err = o.Confirm(ctx, c, tab, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, attempt.State)
	})

	t.Run("backend error", func(t *testing.T) {
		o := New(&fakeBackend{confirmErr: errors.New("timeout")}, testConfig())
		c := filledCart(t)

		attempt, err := o.Confirm(ctx, c, pendingTab("pi_1", 2550), "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Equal(t, msgConfirmFailed, attempt.Error)
		assert.False(t, c.IsEmpty())
	})

	t.Run("missing intent id", func(t *testing.T) {
		backend := &fakeBackend{}
		attempt, err := New(backend, testConfig()).Confirm(ctx, filledCart(t), &memoryTab{}, "")
		require.NoError(t, err)
		assert.Equal(t, StateFailure, attempt.State)
		assert.Zero(t, backend.confirmCalls)
	})

	t.Run("empty cart", func(t *testing.T) {
		attempt, err := New(&fakeBackend{}, testConfig()).Confirm(ctx, cart.New(nil, "v"), pendingTab("pi_1", 0), "pi_1")
		require.NoError(t, err)
		assert.Equal(t, StateRedirectToCart, attempt.State)
	})
}
