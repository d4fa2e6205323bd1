package main

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/khaista/boutique/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	products := generate(gofakeit.New(7), 60)
	assert.Len(t, products, 60)

	ids := map[string]bool{}
	for _, p := range products {
		assert.NoError(t, p.Validate())
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
		assert.Contains(t, catalog.Categories, p.Category)
		assert.Zero(t, p.Price%500, "prices are whole multiples of $5")
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "red-kochi-dress", slug("Red Kochi Dress"))
	assert.Equal(t, "navy-bangle-set", slug("  Navy -- Bangle Set! "))
}
