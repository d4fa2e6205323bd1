package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/cart"
	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/internal/session"
	"github.com/khaista/boutique/internal/state"
	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	state    state.Store
	products catalog.Provider
}

func NewCartHandler(st state.Store, products catalog.Provider) *CartHandler {
	return &CartHandler{state: st, products: products}
}

type cartLineResponse struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal money.Cents     `json:"subtotal"`
}

type cartResponse struct {
	Items      []cartLineResponse `json:"items"`
	TotalItems int                `json:"totalItems"`
	TotalPrice money.Cents        `json:"totalPrice"`
}

func cartView(c *cart.Store) cartResponse {
	lines := c.Lines()
	items := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, cartLineResponse{
			Product:  l.Product,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		})
	}
	return cartResponse{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// loadCart rehydrates the current visitor's cart.
func loadCart(c echo.Context, st state.Store) (*cart.Store, error) {
	visitorID := session.VisitorID(c)
	if visitorID == "" {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to start session")
	}

	store, err := cart.Load(c.Request().Context(), st, visitorID)
	if err != nil {
		slog.Error("failed to load cart", "visitor_id", visitorID, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load cart")
	}
	return store, nil
}

// lookupProduct resolves a product id from a request body.
func lookupProduct(c echo.Context, products catalog.Provider, id string) (catalog.Product, error) {
	if id == "" {
		return catalog.Product{}, echo.NewHTTPError(http.StatusBadRequest, "Missing productId")
	}

	p, err := products.Product(c.Request().Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return catalog.Product{}, echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		slog.Error("failed to fetch product", "id", id, "error", err)
		return catalog.Product{}, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch product")
	}
	return p, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartView(store))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	product, err := lookupProduct(c, h.products, req.ProductID)
	if err != nil {
		return err
	}

	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	store.AddItem(c.Request().Context(), product, req.Quantity)
	return c.JSON(http.StatusOK, cartView(store))
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Quantity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing quantity")
	}

	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	store.UpdateQuantity(c.Request().Context(), c.Param("id"), *req.Quantity)
	return c.JSON(http.StatusOK, cartView(store))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	store.RemoveItem(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, cartView(store))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	store, err := loadCart(c, h.state)
	if err != nil {
		return err
	}

	store.Clear(c.Request().Context())
	return c.JSON(http.StatusOK, cartView(store))
}
