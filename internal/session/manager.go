package session

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	visitorSessionName = "khaista_visitor"
	tabSessionName     = "khaista_tab"
	visitorKey         = "visitor_id"

	// VisitorContextKey is the echo context key LoadVisitor stores the id under.
	VisitorContextKey = "visitor_id"

	visitorMaxAge = 86400 * 365
)

// Manager manages the two storefront cookies: a long-lived anonymous visitor
// id and a browser-session cookie carrying one-shot flashes.
type Manager struct {
	visitors sessions.Store
	tabs     sessions.Store
}

// NewManager creates a new session manager
func NewManager(secret string, secure bool) *Manager {
	// flashes are stored as []interface{}
	gob.Register([]interface{}{})

	visitors := sessions.NewCookieStore([]byte(secret))
	visitors.MaxAge(visitorMaxAge)
	visitors.Options.HttpOnly = true
	visitors.Options.Secure = secure
	visitors.Options.SameSite = http.SameSiteLaxMode

	tabs := sessions.NewCookieStore([]byte(secret))
	tabs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0, // ends with the browser session
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		visitors: visitors,
		tabs:     tabs,
	}
}

// get returns the named session. A cookie that fails to decode (rotated
// secret, tampering) yields a fresh session.
func get(store sessions.Store, c echo.Context, name string) *sessions.Session {
	s, err := store.Get(c.Request(), name)
	if err != nil {
		slog.Debug("discarding unreadable session cookie", "name", name, "error", err)
	}
	return s
}

// EnsureVisitor returns the visitor id from the cookie, issuing a new one if
// the request has none.
func (m *Manager) EnsureVisitor(c echo.Context) (string, error) {
	s := get(m.visitors, c, visitorSessionName)

	if id, ok := s.Values[visitorKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.New().String()
	s.Values[visitorKey] = id
	if err := s.Save(c.Request(), c.Response()); err != nil {
		return "", fmt.Errorf("failed to save visitor session: %w", err)
	}
	return id, nil
}

// AddFlash stores value under key until the next TakeFlash.
func (m *Manager) AddFlash(c echo.Context, key, value string) error {
	s := get(m.tabs, c, tabSessionName)
	// only the latest value is kept
	s.Flashes(key)
	s.AddFlash(value, key)
	if err := s.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save flash: %w", err)
	}
	return nil
}

// TakeFlash returns and removes the value stored under key.
func (m *Manager) TakeFlash(c echo.Context, key string) (string, bool, error) {
	s := get(m.tabs, c, tabSessionName)
	flashes := s.Flashes(key)
	if len(flashes) == 0 {
		return "", false, nil
	}
	if err := s.Save(c.Request(), c.Response()); err != nil {
		return "", false, fmt.Errorf("failed to save session: %w", err)
	}
	value, ok := flashes[len(flashes)-1].(string)
	return value, ok, nil
}

// SetValue stores value under key for the rest of the browser session.
func (m *Manager) SetValue(c echo.Context, key, value string) error {
	s := get(m.tabs, c, tabSessionName)
	s.Values[key] = value
	if err := s.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session value: %w", err)
	}
	return nil
}

// Value returns the value SetValue stored under key.
func (m *Manager) Value(c echo.Context, key string) (string, bool) {
	s := get(m.tabs, c, tabSessionName)
	value, ok := s.Values[key].(string)
	return value, ok
}

// VisitorID returns the id LoadVisitor put on the context.
func VisitorID(c echo.Context) string {
	id, _ := c.Get(VisitorContextKey).(string)
	return id
}
