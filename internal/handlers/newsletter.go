package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/newsletter"
	"github.com/khaista/boutique/internal/recaptcha"
	"github.com/labstack/echo/v4"
)

type NewsletterHandler struct {
	newsletter *newsletter.Service
	recaptcha  *recaptcha.Verifier
}

// NewNewsletterHandler returns the signup handler. verifier may be nil, in
// which case no reCAPTCHA token is required.
func NewNewsletterHandler(svc *newsletter.Service, verifier *recaptcha.Verifier) *NewsletterHandler {
	return &NewsletterHandler{newsletter: svc, recaptcha: verifier}
}

func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	var req struct {
		Email          string `json:"email"`
		RecaptchaToken string `json:"recaptchaToken"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid email format")
	}

	ctx := c.Request().Context()

	if h.recaptcha.Enabled() {
		valid, score, err := h.recaptcha.IsValid(ctx, req.RecaptchaToken)
		if err != nil || !valid {
			slog.Warn("newsletter signup rejected by recaptcha", "score", score, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Verification failed")
		}
	}

	sub, created, err := h.newsletter.Subscribe(ctx, req.Email)
	if errors.Is(err, newsletter.ErrInvalidEmail) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid email format")
	}
	if err != nil {
		slog.Error("failed to subscribe to newsletter", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to subscribe to newsletter")
	}

	if !created {
		slog.Info("repeat newsletter signup", "subscriber_id", sub.ID)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"message": "Successfully subscribed to newsletter",
		"id":      sub.ID,
	})
}
