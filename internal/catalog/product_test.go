package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockMessage(t *testing.T) {
	assert.Equal(t, "3 in stock", Product{InStock: 3}.StockMessage())
	assert.Equal(t, "Out of stock", Product{}.StockMessage())
	assert.False(t, Product{}.Available())
}

func TestFlagJSON(t *testing.T) {
	for input, want := range map[string]Flag{"1": true, "true": true, "0": false, "false": false, "null": false} {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(input), &f), input)
		assert.Equal(t, want, f, input)
	}

	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &f))

	out, err := json.Marshal(struct {
		Featured Flag `json:"featured"`
	}{true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"featured":1}`, string(out))
}

func TestDecodeProducts(t *testing.T) {
	t.Run("accepts numeric price and boolean flag", func(t *testing.T) {
		products, err := DecodeProducts([]byte(`[{"id":"a","name":"A","price":12.5,"category":"bags","inStock":1,"featured":true}]`))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.EqualValues(t, 1250, products[0].Price)
		assert.True(t, bool(products[0].Featured))
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := DecodeProducts([]byte(`[{"id":"a","name":"A","price":"1","category":"bags"},{"id":"a","name":"B","price":"2","category":"bags"}]`))
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("rejects negative stock", func(t *testing.T) {
		_, err := DecodeProducts([]byte(`[{"id":"a","name":"A","price":"1","category":"bags","inStock":-1}]`))
		assert.ErrorContains(t, err, "inStock")
	})
}
