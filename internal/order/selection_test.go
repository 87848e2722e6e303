package order

import (
	"testing"

	"farm-to-keells/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog(farmerID int64) []product.Product {
	return []product.Product{
		{ID: 1, FarmerID: farmerID, Name: "Carrot", Type: product.TypeVegetables, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100)},
		{ID: 2, FarmerID: farmerID, Name: "Mango", Type: product.TypeFruits, Quantity: decimal.RequireFromString("2.5"), Price: decimal.RequireFromString("80.40")},
		{ID: 3, FarmerID: farmerID, Name: "Leeks", Type: product.TypeVegetables, Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(60)},
	}
}

func TestNewSelection(t *testing.T) {
	t.Run("Rejects another farmer's product", func(t *testing.T) {
		products := catalog(1)
		products[1].FarmerID = 2

		_, err := NewSelection(1, products)
		assert.ErrorIs(t, err, ErrMixedFarmers)
	})

	t.Run("Rejects ids outside the catalog", func(t *testing.T) {
		sel, err := NewSelection(1, catalog(1))
		require.NoError(t, err)

		assert.ErrorIs(t, sel.Select(99), ErrProductNotInCatalog)
		_, err = sel.Toggle(99)
		assert.ErrorIs(t, err, ErrProductNotInCatalog)
		assert.Equal(t, 0, sel.Len())
	})
}

func TestSelection_Toggle(t *testing.T) {
	sel, err := NewSelection(1, catalog(1))
	require.NoError(t, err)

	on, err := sel.Toggle(2)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, sel.IsSelected(2))

	on, err = sel.Toggle(2)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, sel.Len())

	require.NoError(t, sel.Select(1))
	require.NoError(t, sel.Select(3))
	sel.Clear()
	assert.Equal(t, 0, sel.Len())
	assert.Empty(t, sel.Items())
}

func TestSelection_ItemsAreSnapshots(t *testing.T) {
	products := catalog(1)
	sel, err := NewSelection(1, products)
	require.NoError(t, err)
	require.NoError(t, sel.Select(3))
	require.NoError(t, sel.Select(1))

	items := sel.Items()
	total := Total(items)

	// Editing the catalog afterwards must not reach the snapshot.
	products[0].Price = decimal.NewFromInt(999)
	products[0].Name = "Purple Carrot"

	require.Len(t, items, 2)
	assert.Equal(t, "Carrot", items[0].ProductName)
	assert.Equal(t, "Leeks", items[1].ProductName)
	assert.Equal(t, "Vegetables", items[0].ProductType)
	assert.True(t, Total(items).Equal(total))
	assert.True(t, Total(sel.Items()).Equal(decimal.NewFromInt(1240)))
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  string
	}{
		{"Empty", nil, "0"},
		{"Single", []Item{{Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100)}}, "1000"},
		{"Fractional", []Item{
			{Quantity: decimal.RequireFromString("2.5"), Price: decimal.RequireFromString("80.40")},
			{Quantity: decimal.NewFromInt(3), Price: decimal.RequireFromString("0.10")},
		}, "201.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Total(tt.items).Equal(decimal.RequireFromString(tt.want)), Total(tt.items).String())
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, Status("shipped").Terminal())
}
