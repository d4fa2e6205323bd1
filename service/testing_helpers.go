package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/khaista/boutique/storage"
	"github.com/labstack/echo/v4"
)

// testConfig returns a configuration with no external services: in-memory
// client state, no payment backend, no SMTP.
func testConfig() *Config {
	config := &Config{
		Environment: "test",
		Port:        "8080",
		BaseURL:     "http://localhost:8080",
	}
	config.Session.Secret = "test-session-secret-0123456789abcdef"
	config.Catalog.Source = CatalogSourceDB
	config.State.Backend = StateBackendMemory
	config.State.Retention = time.Hour
	config.Checkout.DemoFallback = true
	config.Checkout.Currency = "usd"
	config.Checkout.IntentTimeout = time.Second
	return config
}

// setupTestService creates a service instance with an in-memory database for testing
func setupTestService(t *testing.T, config *Config) *Service {
	t.Helper()

	store, cleanup, err := storage.NewTestStorage()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	svc, err := New(store, config)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return svc
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T, config *Config) (*echo.Echo, *Service) {
	t.Helper()

	e := echo.New()
	svc := setupTestService(t, config)
	svc.RegisterRoutes(e)

	return e, svc
}

// browser replays cookies between requests the way a browser does.
type browser struct {
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(e *echo.Echo) *browser {
	return &browser{e: e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		b.cookies[ck.Name] = ck
	}
	return rec
}
