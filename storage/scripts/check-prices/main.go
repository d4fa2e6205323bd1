package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/storage/db"
)

func main() {
	dbPath := flag.String("db", "./db/khaista.db", "path to the sqlite database")
	flag.Parse()

	database, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	queries := db.New(database)
	ctx := context.Background()

	products, err := queries.ListProducts(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if len(products) == 0 {
		fmt.Println("No products found in database")
		return
	}

	fmt.Printf("Found %d products:\n", len(products))

	var inventory money.Cents
	for _, product := range products {
		price := money.Cents(product.PriceCents)
		inventory += price.Mul(int(product.InStock))
		fmt.Printf("- %s [%s]: %s (%d cents, %d in stock)\n", product.Name, product.Category, price.Format(), product.PriceCents, product.InStock)
	}
	fmt.Printf("Inventory value: %s\n", inventory.Format())
}
