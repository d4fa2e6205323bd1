package middleware

import (
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/session"
	"github.com/labstack/echo/v4"
)

// LoadVisitor is middleware that resolves the anonymous visitor id from the
// visitor cookie, issuing one on first contact, and stores it on the echo
// context for the cart and wishlist handlers.
func LoadVisitor(sessionMgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := sessionMgr.EnsureVisitor(c)
			if err != nil {
				slog.Error("failed to resolve visitor", "path", c.Request().URL.Path, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start session")
			}
			c.Set(session.VisitorContextKey, id)
			return next(c)
		}
	}
}

// SecurityHeaders sets the response headers every storefront response carries.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}
