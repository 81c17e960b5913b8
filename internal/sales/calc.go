package sales

import (
	"math"

	"github.com/shopspring/decimal"

	"salesdesk/backend/internal/domain"
)

// Subtotal computes price * quantity rounded to 2 decimal places. It is
// total over its inputs; range validation belongs to the form layer.
func Subtotal(price float64, quantity int) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	product := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
	return round2(product)
}

// Round2 rounds a single amount to 2 decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return round2(decimal.NewFromFloat(v))
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Normalize coerces a sale's numeric fields once, at the store boundary:
// prices and subtotals rounded to 2 decimals, item sequence numbers
// renumbered 1..n, and the amount re-derived from the items whenever items
// are present. Sales without items keep their amount as-is (rounded).
func Normalize(sale domain.Sale) domain.Sale {
	normalized := sale
	normalized.Items = make([]domain.SaleItem, len(sale.Items))

	total := decimal.Zero
	for i, item := range sale.Items {
		item.ID = i + 1
		item.Price = domain.Money(Round2(item.Price.Float64()))
		item.Subtotal = domain.Money(Round2(item.Subtotal.Float64()))
		normalized.Items[i] = item
		total = total.Add(decimal.NewFromFloat(item.Subtotal.Float64()))
	}

	if len(normalized.Items) > 0 {
		normalized.Amount = domain.Money(round2(total))
	} else {
		normalized.Amount = domain.Money(Round2(sale.Amount.Float64()))
	}
	return normalized
}
