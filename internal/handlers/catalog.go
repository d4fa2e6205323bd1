package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	products catalog.Provider
}

func NewCatalogHandler(products catalog.Provider) *CatalogHandler {
	return &CatalogHandler{products: products}
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.products.Products(c.Request().Context())
	if err != nil {
		slog.Error("failed to fetch products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch products")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) ProductsByCategory(c echo.Context) error {
	category := catalog.Category(c.Param("category"))

	products, err := h.products.ProductsByCategory(c.Request().Context(), category)
	if err != nil {
		slog.Error("failed to fetch products by category", "category", category, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch products by category")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) FeaturedProducts(c echo.Context) error {
	products, err := h.products.FeaturedProducts(c.Request().Context())
	if err != nil {
		slog.Error("failed to fetch featured products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch featured products")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id := c.Param("id")

	product, err := h.products.Product(c.Request().Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		slog.Error("failed to fetch product", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch product")
	}
	return c.JSON(http.StatusOK, product)
}

// Search filters and sorts the whole catalog. A catalog that cannot be read
// yields an empty result rather than an error page.
func (h *CatalogHandler) Search(c echo.Context) error {
	q := catalog.Query{
		Text:             c.QueryParam("q"),
		Category:         catalog.Category(c.QueryParam("category")),
		Sort:             c.QueryParam("sort"),
		IncludeMaterials: true,
	}

	products, err := h.products.Products(c.Request().Context())
	if err != nil {
		slog.Warn("search catalog unavailable", "error", err)
		products = nil
	}

	results := catalog.FilterAndSort(products, q)
	return c.JSON(http.StatusOK, map[string]any{
		"query":   q.Text,
		"results": results,
		"count":   len(results),
	})
}

// QuickSearch returns the header search preview.
func (h *CatalogHandler) QuickSearch(c echo.Context) error {
	limit := catalog.DefaultQuickSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	products, err := h.products.Products(c.Request().Context())
	if err != nil {
		slog.Warn("quick search catalog unavailable", "error", err)
		products = nil
	}

	return c.JSON(http.StatusOK, catalog.QuickSearch(products, c.QueryParam("q"), limit))
}
