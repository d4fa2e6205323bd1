package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/storage/db"
	"golang.org/x/sync/singleflight"
)

// Provider is a read-only source of catalog products. Lists keep the
// catalog's own order.
type Provider interface {
	Products(ctx context.Context) ([]Product, error)
	ProductsByCategory(ctx context.Context, category Category) ([]Product, error)
	FeaturedProducts(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id string) (Product, error)
}

// DBProvider serves the catalog from the products table.
type DBProvider struct {
	queries *db.Queries
}

func NewDBProvider(queries *db.Queries) *DBProvider {
	return &DBProvider{queries: queries}
}

func (p *DBProvider) Products(ctx context.Context) ([]Product, error) {
	rows, err := p.queries.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return fromRows(rows), nil
}

func (p *DBProvider) ProductsByCategory(ctx context.Context, category Category) ([]Product, error) {
	rows, err := p.queries.ListProductsByCategory(ctx, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list products in category %s: %w", category, err)
	}
	return fromRows(rows), nil
}

func (p *DBProvider) FeaturedProducts(ctx context.Context) ([]Product, error) {
	rows, err := p.queries.ListFeaturedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return fromRows(rows), nil
}

func (p *DBProvider) Product(ctx context.Context, id string) (Product, error) {
	row, err := p.queries.GetProduct(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return fromRow(row), nil
}

func fromRows(rows []db.Product) []Product {
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, fromRow(row))
	}
	return products
}

func fromRow(row db.Product) Product {
	p := Product{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description,
		Price:            money.Cents(row.PriceCents),
		Category:         Category(row.Category),
		ImageURL:         row.ImageUrl,
		ImageAlt:         row.ImageAlt.String,
		InStock:          int(row.InStock),
		ArtisanStory:     row.ArtisanStory.String,
		Materials:        row.Materials.String,
		Dimensions:       row.Dimensions.String,
		CareInstructions: row.CareInstructions.String,
		Featured:         row.Featured != 0,
	}
	if row.CreatedAt > 0 {
		p.CreatedAt = time.Unix(row.CreatedAt, 0).UTC()
	}
	return p
}

// StaticProvider serves the catalog from a JSON file, the deployment mode
// used when the storefront runs without a database. The file is re-read on
// every call so edits show up without a restart; concurrent reads share one
// decode.
type StaticProvider struct {
	path  string
	group singleflight.Group
}

func NewStaticProvider(path string) *StaticProvider {
	return &StaticProvider{path: path}
}

func (p *StaticProvider) load() ([]Product, error) {
	v, err, _ := p.group.Do(p.path, func() (interface{}, error) {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", p.path, err)
		}
		return DecodeProducts(data)
	})
	if err != nil {
		return nil, err
	}
	// callers may reorder the slice; hand each one its own copy
	shared := v.([]Product)
	products := make([]Product, len(shared))
	copy(products, shared)
	return products, nil
}

func (p *StaticProvider) Products(ctx context.Context) ([]Product, error) {
	return p.load()
}

func (p *StaticProvider) ProductsByCategory(ctx context.Context, category Category) ([]Product, error) {
	products, err := p.load()
	if err != nil {
		return nil, err
	}
	return filter(products, func(prod Product) bool { return prod.Category == category }), nil
}

func (p *StaticProvider) FeaturedProducts(ctx context.Context) ([]Product, error) {
	products, err := p.load()
	if err != nil {
		return nil, err
	}
	return filter(products, func(prod Product) bool { return bool(prod.Featured) }), nil
}

func (p *StaticProvider) Product(ctx context.Context, id string) (Product, error) {
	products, err := p.load()
	if err != nil {
		return Product{}, err
	}
	for _, prod := range products {
		if prod.ID == id {
			return prod, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func filter(products []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
