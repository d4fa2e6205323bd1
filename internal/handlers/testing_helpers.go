package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/session"
	"github.com/khaista/boutique/storage"
	"github.com/khaista/boutique/storage/db"
	"github.com/labstack/echo/v4"
)

// NewTestContext creates a new Echo context for testing
func NewTestContext(method, path string, body interface{}, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	return c, rec
}

// SetTestVisitor sets the visitor id LoadVisitor would have resolved
func SetTestVisitor(c echo.Context, visitorID string) {
	c.Set(session.VisitorContextKey, visitorID)
}

// ResponseCookies returns the cookies a browser would keep from rec, the
// last one set under each name.
func ResponseCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	var order []string
	for _, ck := range rec.Result().Cookies() {
		if _, seen := byName[ck.Name]; !seen {
			order = append(order, ck.Name)
		}
		byName[ck.Name] = ck
	}
	cookies := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		cookies = append(cookies, byName[name])
	}
	return cookies
}

// NewTestDB creates a test database with migrations applied
func NewTestDB() (*sql.DB, *db.Queries, func()) {
	database, queries, cleanup, err := storage.NewTestDB()
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}
	return database, queries, cleanup
}

// NewTestCatalog returns a provider over a test database seeded with the
// built-in catalog
func NewTestCatalog() (catalog.Provider, func()) {
	database, queries, cleanup := NewTestDB()

	products, err := catalog.DefaultProducts()
	if err != nil {
		panic("failed to load catalog: " + err.Error())
	}
	if _, err := catalog.Seed(context.Background(), database, products); err != nil {
		panic("failed to seed catalog: " + err.Error())
	}
	return catalog.NewDBProvider(queries), cleanup
}

// AssertJSONResponse checks if the response is valid JSON and returns the parsed body
func AssertJSONResponse(rec *httptest.ResponseRecorder) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
