package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/internal/payments"
	"github.com/khaista/boutique/internal/stripe"
	"github.com/labstack/echo/v4"
	stripego "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

// IntentService is the part of the Stripe service the payment proxy uses.
type IntentService interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*stripego.PaymentIntent, error)
	Confirmation(ctx context.Context, intentID string) (*payments.Confirmation, error)
}

// PaymentHandler is the payment proxy the storefront's checkout page talks
// to. Without a Stripe key it is not mounted at all.
type PaymentHandler struct {
	stripe        IntentService
	webhookSecret string
}

func NewPaymentHandler(stripeService IntentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		stripe:        stripeService,
		webhookSecret: webhookSecret,
	}
}

type CreatePaymentIntentRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent creates an intent for a dollar amount.
func (h *PaymentHandler) CreatePaymentIntent(c echo.Context) error {
	var req CreatePaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}

	amount := money.FromDollars(req.Amount)
	if amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	pi, err := h.stripe.CreatePaymentIntent(c.Request().Context(), int64(amount), req.Currency, map[string]string{
		"source": stripe.MetadataSource,
	})
	if err != nil {
		slog.Error("failed to create payment intent", "amount", amount.String(), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create payment intent: "+stripe.ErrorMessage(err))
	}

	return c.JSON(http.StatusOK, CreatePaymentIntentResponse{ClientSecret: pi.ClientSecret})
}

// GetPaymentIntent reports whether an intent has been paid.
func (h *PaymentHandler) GetPaymentIntent(c echo.Context) error {
	id := c.Param("id")

	conf, err := h.stripe.Confirmation(c.Request().Context(), id)
	if err != nil {
		slog.Error("failed to retrieve payment intent", "payment_intent_id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to retrieve payment intent: "+stripe.ErrorMessage(err))
	}
	return c.JSON(http.StatusOK, conf)
}

func (h *PaymentHandler) HandleWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body too large")
	}

	signatureHeader := c.Request().Header.Get("Stripe-Signature")

	// Unsigned events are accepted when no webhook secret is configured
	var event stripego.Event
	if h.webhookSecret != "" {
		event, err = webhook.ConstructEvent(payload, signatureHeader, h.webhookSecret)
		if err != nil {
			slog.Error("webhook signature verification failed", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid signature")
		}
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error parsing webhook JSON")
		}
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error parsing webhook JSON")
		}
		slog.Info("payment intent succeeded",
			"payment_intent_id", paymentIntent.ID,
			"amount", money.Cents(paymentIntent.Amount).String(),
			"source", paymentIntent.Metadata["source"])

	case "payment_intent.payment_failed":
		var paymentIntent stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Error parsing webhook JSON")
		}
		msg := ""
		if paymentIntent.LastPaymentError != nil {
			msg = paymentIntent.LastPaymentError.Msg
		}
		slog.Warn("payment intent failed", "payment_intent_id", paymentIntent.ID, "reason", msg)

	default:
		slog.Debug("unhandled webhook event type", "type", event.Type)
	}

	return c.NoContent(http.StatusOK)
}
