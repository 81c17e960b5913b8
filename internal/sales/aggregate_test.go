package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/backend/internal/domain"
)

func TestTotalRevenue(t *testing.T) {
	sales := []domain.Sale{
		{Amount: 1200.50},
		{Amount: 850.75},
		{Amount: 0},
	}
	assert.Equal(t, 2051.25, TotalRevenue(sales))
	assert.Equal(t, 0.0, TotalRevenue(nil))
}

func TestUniqueCustomers(t *testing.T) {
	sales := []domain.Sale{
		{Customer: "Acme Corp"},
		{Customer: "Globex Inc"},
		{Customer: "Acme Corp"},
		{Customer: "acme corp"}, // case-sensitive, counts separately
	}
	assert.Equal(t, 3, UniqueCustomers(sales))
	assert.Equal(t, 0, UniqueCustomers(nil))
}

func TestTopProductsOrdersByRevenue(t *testing.T) {
	sales := []domain.Sale{
		{Items: []domain.SaleItem{
			{Product: "X", Quantity: 2, Subtotal: 100},
			{Product: "Y", Quantity: 1, Subtotal: 200},
		}},
		{Items: []domain.SaleItem{
			{Product: "X", Quantity: 1, Subtotal: 50},
		}},
	}

	got := TopProducts(sales, 5)
	require.Len(t, got, 2)

	// Y earns 200, X earns 150 across more units sold.
	assert.Equal(t, "Y", got[0].Name)
	assert.Equal(t, 200.0, got[0].Revenue)
	assert.Equal(t, 1, got[0].Sold)
	assert.Equal(t, "X", got[1].Name)
	assert.Equal(t, 150.0, got[1].Revenue)
	assert.Equal(t, 3, got[1].Sold)
}

func TestTopProductsSkipsEmptyNamesAndTruncates(t *testing.T) {
	sales := []domain.Sale{
		{Items: []domain.SaleItem{
			{Product: "", Quantity: 5, Subtotal: 999},
			{Product: "A", Quantity: 1, Subtotal: 30},
			{Product: "B", Quantity: 1, Subtotal: 20},
			{Product: "C", Quantity: 1, Subtotal: 10},
		}},
	}

	got := TopProducts(sales, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
}

func TestTopProductsStableOnTies(t *testing.T) {
	sales := []domain.Sale{
		{Items: []domain.SaleItem{
			{Product: "First", Quantity: 1, Subtotal: 100},
			{Product: "Second", Quantity: 1, Subtotal: 100},
		}},
	}

	got := TopProducts(sales, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Name)
	assert.Equal(t, "Second", got[1].Name)
}

func TestMetricsFillsCategories(t *testing.T) {
	sales := []domain.Sale{
		{Customer: "Acme Corp", Amount: 150, Items: []domain.SaleItem{
			{Product: "Laptop", Quantity: 1, Subtotal: 150},
		}},
		{Customer: "Globex Inc", Amount: 40, Items: []domain.SaleItem{
			{Product: "Mystery Box", Quantity: 2, Subtotal: 40},
		}},
	}

	categories := map[string]string{"Laptop": "Electronics"}
	got := Metrics(sales, 5, func(name string) string { return categories[name] })

	assert.Equal(t, 190.0, got.TotalRevenue)
	assert.Equal(t, 2, got.SaleCount)
	assert.Equal(t, 2, got.UniqueCustomers)
	require.Len(t, got.TopProducts, 2)
	assert.Equal(t, "Electronics", got.TopProducts[0].Category)
	assert.Equal(t, "General", got.TopProducts[1].Category)
}
