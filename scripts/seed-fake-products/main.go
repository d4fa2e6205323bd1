package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/storage"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func main() {
	count := flag.Int("count", 40, "number of products to generate")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	out := flag.String("out", "", "write the catalog as JSON to this file (for CATALOG_SOURCE=file)")
	dbPath := flag.String("db", "", "seed this sqlite database instead (only if it has no products)")
	flag.Parse()

	if *out == "" && *dbPath == "" {
		log.Fatal("one of -out or -db is required")
	}

	products := generate(gofakeit.New(*seed), *count)

	if *out != "" {
		data, err := json.MarshalIndent(products, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode catalog: %v", err)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		fmt.Printf("Wrote %d products to %s\n", len(products), *out)
	}

	if *dbPath != "" {
		store, err := storage.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		n, err := catalog.Seed(context.Background(), store.DB(), products)
		if err != nil {
			log.Fatalf("Failed to seed products: %v", err)
		}
		if n == 0 {
			fmt.Println("Database already has products, nothing inserted")
			return
		}
		fmt.Printf("Inserted %d products into %s\n", n, *dbPath)
	}
}

func generate(f *gofakeit.Faker, count int) []catalog.Product {
	title := cases.Title(language.English)
	products := make([]catalog.Product, 0, count)
	seen := map[string]bool{}

	for i := 0; len(products) < count; i++ {
		category := catalog.Categories[f.Number(0, len(catalog.Categories)-1)]
		name := title.String(fmt.Sprintf("%s %s", f.Color(), noun(category, f)))

		id := slug(name)
		if seen[id] {
			id = fmt.Sprintf("%s-%d", id, i)
		}
		seen[id] = true

		products = append(products, catalog.Product{
			ID:               id,
			Name:             name,
			Description:      f.ProductDescription(),
			Price:            money.Cents(f.Number(7, 70) * 500),
			Category:         category,
			ImageURL:         fmt.Sprintf("/images/products/%s.jpg", id),
			ImageAlt:         name,
			InStock:          f.Number(0, 8),
			ArtisanStory:     f.ProductDescription(),
			Materials:        f.ProductMaterial(),
			CareInstructions: "Spot clean only. Store away from direct sunlight.",
			Featured:         catalog.Flag(f.Bool()),
		})
	}
	return products
}

func noun(category catalog.Category, f *gofakeit.Faker) string {
	switch category {
	case catalog.CategoryJewelry:
		return f.RandomString([]string{"Necklace", "Choker", "Earrings", "Bangle Set", "Ring"})
	case catalog.CategoryBags:
		return f.RandomString([]string{"Tote", "Clutch", "Shoulder Bag", "Pouch"})
	default:
		return f.RandomString([]string{"Kochi Dress", "Vest", "Shawl", "Tunic"})
	}
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
