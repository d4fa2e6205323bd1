package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khaista/boutique/internal/money"
)

var ErrProductNotFound = errors.New("product not found")

type Category string

const (
	CategoryJewelry  Category = "jewelry"
	CategoryClothing Category = "clothing"
	CategoryBags     Category = "bags"

	// CategoryAll is the search sentinel meaning "no category filter".
	CategoryAll Category = "all"
)

// Categories lists the boutique's categories in display order.
var Categories = []Category{CategoryJewelry, CategoryClothing, CategoryBags}

// Product is a catalog entry. Prices are held in cents; the JSON form keeps
// the storefront's original shape (decimal string price, 0/1 featured flag).
type Product struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Price            money.Cents `json:"price"`
	Category         Category    `json:"category"`
	ImageURL         string      `json:"imageUrl"`
	ImageAlt         string      `json:"imageAlt,omitempty"`
	InStock          int         `json:"inStock"`
	ArtisanStory     string      `json:"artisanStory,omitempty"`
	Materials        string      `json:"materials,omitempty"`
	Dimensions       string      `json:"dimensions,omitempty"`
	CareInstructions string      `json:"careInstructions,omitempty"`
	Featured         Flag        `json:"featured"`
	CreatedAt        time.Time   `json:"createdAt,omitzero"`
}

// Available reports whether at least one unit is in stock.
func (p Product) Available() bool {
	return p.InStock > 0
}

// StockMessage is the availability line shown next to a product.
func (p Product) StockMessage() string {
	if p.InStock > 0 {
		return fmt.Sprintf("%d in stock", p.InStock)
	}
	return "Out of stock"
}

// Validate checks the fields every catalog source must provide.
func (p Product) Validate() error {
	var problems []string
	if strings.TrimSpace(p.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if p.InStock < 0 {
		problems = append(problems, "inStock must not be negative")
	}
	if p.Category == "" {
		problems = append(problems, "category is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid product %q: %s", p.ID, strings.Join(problems, ", "))
	}
	return nil
}

// Flag is a boolean stored and serialized as an integer (0 or 1).
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts 0/1 as well as true/false.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

// Int returns the flag as the integer stored in the database.
func (f Flag) Int() int64 {
	if f {
		return 1
	}
	return 0
}

// DecodeProducts parses a JSON array of products and validates each one.
func DecodeProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q in catalog", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}
