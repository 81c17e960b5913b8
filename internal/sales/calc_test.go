package sales

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"salesdesk/backend/internal/domain"
)

func TestSubtotal(t *testing.T) {
	assert.Equal(t, 50.74, Subtotal(25.37, 2))
	assert.Equal(t, 1000.0, Subtotal(500, 2))
	assert.Equal(t, 0.0, Subtotal(10, 0))
	assert.Equal(t, -20.0, Subtotal(10, -2))
	assert.Equal(t, 0.01, Subtotal(0.005, 2))
}

func TestSubtotalNonFinite(t *testing.T) {
	assert.Equal(t, 0.0, Subtotal(math.NaN(), 3))
	assert.Equal(t, 0.0, Subtotal(math.Inf(1), 3))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 0.0, Round2(math.NaN()))
}

func TestNormalizeDerivesAmountFromItems(t *testing.T) {
	sale := domain.Sale{
		ID:     "S042",
		Amount: 9999, // stale, should be recomputed
		Items: []domain.SaleItem{
			{ID: 7, Product: "Laptop", Quantity: 2, Price: 500.004, Subtotal: 1000.008},
			{ID: 9, Product: "Mouse", Quantity: 1, Price: 19.99, Subtotal: 19.99},
		},
	}

	got := Normalize(sale)

	assert.Equal(t, domain.Money(1020.0), got.Amount)
	assert.Equal(t, 1, got.Items[0].ID)
	assert.Equal(t, 2, got.Items[1].ID)
	assert.Equal(t, domain.Money(500.0), got.Items[0].Price)
	assert.Equal(t, domain.Money(1000.01), got.Items[0].Subtotal)
}

func TestNormalizeKeepsAmountWithoutItems(t *testing.T) {
	got := Normalize(domain.Sale{ID: "S006", Amount: 2100.505})
	assert.Equal(t, domain.Money(2100.51), got.Amount)
	assert.Empty(t, got.Items)
}
