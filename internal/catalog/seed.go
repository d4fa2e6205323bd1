package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/khaista/boutique/storage/db"
)

//go:embed products.json
var embeddedCatalog []byte

// DefaultProducts returns the boutique's built-in catalog.
func DefaultProducts() ([]Product, error) {
	return DecodeProducts(embeddedCatalog)
}

// Seed inserts products into an empty products table. A table that already
// holds rows is left alone. Returns the number of products inserted.
func Seed(ctx context.Context, database *sql.DB, products []Product) (int, error) {
	queries := db.New(database)

	count, err := queries.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		slog.Debug("catalog already seeded", "products", count)
		return 0, nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := queries.WithTx(tx)
	now := time.Now().Unix()
	for i, p := range products {
		createdAt := now
		if !p.CreatedAt.IsZero() {
			createdAt = p.CreatedAt.Unix()
		}
		err := qtx.CreateProduct(ctx, db.CreateProductParams{
			ID:               p.ID,
			Name:             p.Name,
			Description:      p.Description,
			PriceCents:       int64(p.Price),
			Category:         string(p.Category),
			ImageUrl:         p.ImageURL,
			ImageAlt:         nullString(p.ImageAlt),
			InStock:          int64(p.InStock),
			ArtisanStory:     nullString(p.ArtisanStory),
			Materials:        nullString(p.Materials),
			Dimensions:       nullString(p.Dimensions),
			CareInstructions: nullString(p.CareInstructions),
			Featured:         p.Featured.Int(),
			Position:         int64(i),
			CreatedAt:        createdAt,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to insert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit catalog seed: %w", err)
	}
	slog.Info("seeded catalog", "products", len(products))
	return len(products), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
