package handlers

import (
	"log/slog"
	"net/http"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/session"
	"github.com/khaista/boutique/internal/state"
	"github.com/khaista/boutique/internal/wishlist"
	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	state    state.Store
	products catalog.Provider
}

func NewWishlistHandler(st state.Store, products catalog.Provider) *WishlistHandler {
	return &WishlistHandler{state: st, products: products}
}

type wishlistResponse struct {
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

func wishlistView(w *wishlist.Store) wishlistResponse {
	return wishlistResponse{Items: w.Items(), Count: w.TotalItems()}
}

func loadWishlist(c echo.Context, st state.Store) (*wishlist.Store, error) {
	visitorID := session.VisitorID(c)
	if visitorID == "" {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to start session")
	}

	store, err := wishlist.Load(c.Request().Context(), st, visitorID)
	if err != nil {
		slog.Error("failed to load wishlist", "visitor_id", visitorID, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load wishlist")
	}
	return store, nil
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wishlistView(store))
}

func (h *WishlistHandler) AddItem(c echo.Context) error {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	product, err := lookupProduct(c, h.products, req.ProductID)
	if err != nil {
		return err
	}

	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}

	store.Add(c.Request().Context(), product)
	return c.JSON(http.StatusOK, wishlistView(store))
}

func (h *WishlistHandler) Toggle(c echo.Context) error {
	product, err := lookupProduct(c, h.products, c.Param("id"))
	if err != nil {
		return err
	}

	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}

	in := store.Toggle(c.Request().Context(), product)
	return c.JSON(http.StatusOK, map[string]any{
		"inWishlist": in,
		"count":      store.TotalItems(),
	})
}

func (h *WishlistHandler) Contains(c echo.Context) error {
	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"inWishlist": store.Contains(c.Param("id"))})
}

func (h *WishlistHandler) RemoveItem(c echo.Context) error {
	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}

	store.Remove(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, wishlistView(store))
}

func (h *WishlistHandler) ClearWishlist(c echo.Context) error {
	store, err := loadWishlist(c, h.state)
	if err != nil {
		return err
	}

	store.Clear(c.Request().Context())
	return c.JSON(http.StatusOK, wishlistView(store))
}
