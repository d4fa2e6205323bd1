package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/checkout"
	"github.com/khaista/boutique/internal/receipt"
	"github.com/khaista/boutique/internal/session"
	"github.com/khaista/boutique/internal/state"
	"github.com/labstack/echo/v4"
)

const (
	// lastOrderKey holds the id of the latest order in the tab session.
	lastOrderKey = "lastOrder"
	// pendingIntentKey holds the intent of the checkout attempt in progress.
	pendingIntentKey = "pendingIntent"

	// OrderNamespace is where order snapshots are kept, keyed by order id.
	OrderNamespace = "khaista-order-snapshot"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	state        state.Store
	sessions     *session.Manager
	shopURL      string
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator, st state.Store, sessions *session.Manager, shopURL string) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		state:        st,
		sessions:     sessions,
		shopURL:      shopURL,
	}
}

// sessionTab is the checkout.Tab of one request. Order snapshots go to the
// state store; the tab cookie only carries ids. The snapshot stays readable
// for the receipt, while a flash carrying its id makes /api/orders/last
// return it only once.
type sessionTab struct {
	c        echo.Context
	sessions *session.Manager
	state    state.Store
}

func (h *CheckoutHandler) tab(c echo.Context) sessionTab {
	return sessionTab{c: c, sessions: h.sessions, state: h.state}
}

func (t sessionTab) WriteOrder(ctx context.Context, order checkout.OrderSnapshot) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	if err := t.state.Save(ctx, OrderNamespace, order.ID, data); err != nil {
		return fmt.Errorf("failed to save order snapshot: %w", err)
	}
	if err := t.sessions.SetValue(t.c, lastOrderKey, order.ID); err != nil {
		return err
	}
	return t.sessions.AddFlash(t.c, lastOrderKey, order.ID)
}

func (t sessionTab) SavePendingIntent(_ context.Context, intent checkout.PendingIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode payment intent: %w", err)
	}
	return t.sessions.SetValue(t.c, pendingIntentKey, string(data))
}

func (t sessionTab) PendingIntent(_ context.Context) (checkout.PendingIntent, bool) {
	var intent checkout.PendingIntent
	raw, ok := t.sessions.Value(t.c, pendingIntentKey)
	if !ok || raw == "" {
		return intent, false
	}
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		slog.Warn("discarding unreadable payment intent", "error", err)
		return checkout.PendingIntent{}, false
	}
	return intent, intent.ID != ""
}

func (t sessionTab) ClearPendingIntent(_ context.Context) error {
	if _, ok := t.sessions.Value(t.c, pendingIntentKey); !ok {
		return nil
	}
	return t.sessions.SetValue(t.c, pendingIntentKey, "")
}

func (h *CheckoutHandler) storedOrder(c echo.Context) (*checkout.OrderSnapshot, bool) {
	id, ok := h.sessions.Value(c, lastOrderKey)
	if !ok || id == "" {
		return nil, false
	}
	data, err := h.state.Load(c.Request().Context(), OrderNamespace, id)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			slog.Error("failed to load order snapshot", "order_id", id, "error", err)
		}
		return nil, false
	}
	var order checkout.OrderSnapshot
	if err := json.Unmarshal(data, &order); err != nil {
		slog.Warn("discarding unreadable order snapshot", "order_id", id, "error", err)
		return nil, false
	}
	return &order, true
}

// Begin starts a checkout attempt for the visitor's cart.
func (h *CheckoutHandler) Begin(c echo.Context) error {
	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	attempt, err := h.orchestrator.Begin(c.Request().Context(), store, h.tab(c))
	if err != nil {
		slog.Error("checkout failed", "visitor_id", session.VisitorID(c), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to place order")
	}

	status := http.StatusOK
	if attempt.State == checkout.StateFailure {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, attempt)
}

// Confirm completes a stripe-ready attempt.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	var req struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	attempt, err := h.orchestrator.Confirm(c.Request().Context(), store, h.tab(c), req.PaymentIntentID)
	if err != nil {
		slog.Error("order confirmation failed", "payment_intent_id", req.PaymentIntentID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to place order")
	}

	status := http.StatusOK
	if attempt.State == checkout.StateFailure {
		status = http.StatusPaymentRequired
	}
	return c.JSON(status, attempt)
}

// LastOrder returns the snapshot of the order just placed, once.
func (h *CheckoutHandler) LastOrder(c echo.Context) error {
	id, ok, err := h.sessions.TakeFlash(c, lastOrderKey)
	if err != nil {
		slog.Error("failed to read order flash", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read order")
	}

	none := map[string]any{"order": nil}
	if !ok {
		return c.JSON(http.StatusOK, none)
	}

	order, found := h.storedOrder(c)
	if !found || order.ID != id {
		return c.JSON(http.StatusOK, none)
	}
	return c.JSON(http.StatusOK, map[string]any{"order": order})
}

// Receipt renders the last order as a PDF.
func (h *CheckoutHandler) Receipt(c echo.Context) error {
	order, ok := h.storedOrder(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "No recent order")
	}

	pdf, err := receipt.Render(*order, h.shopURL)
	if err != nil {
		slog.Error("failed to render receipt", "order_id", order.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render receipt")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="khaista-%s.pdf"`, order.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
