package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khaista/boutique/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVisitor(t *testing.T) {
	mgr := session.NewManager("0123456789abcdef0123456789abcdef", false)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	handler := LoadVisitor(mgr)(func(c echo.Context) error {
		seen = session.VisitorID(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.NotEmpty(t, seen)
	assert.NotEmpty(t, rec.Header().Values("Set-Cookie"))
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, SecurityHeaders()(func(c echo.Context) error { return nil })(c))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
