package sales

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesdesk/backend/internal/domain"
)

// DefaultTopProducts is the dashboard's top-N cutoff.
const DefaultTopProducts = 5

// TotalRevenue sums every sale's amount. Amounts are accumulated as
// decimals and rounded to 2 places once at the end, so long collections
// don't accumulate float drift.
func TotalRevenue(sales []domain.Sale) float64 {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(decimal.NewFromFloat(sale.Amount.Float64()))
	}
	return round2(total)
}

// UniqueCustomers counts distinct customer names, case-sensitive exact
// match. Empty names still count as one distinct value.
func UniqueCustomers(sales []domain.Sale) int {
	seen := make(map[string]struct{}, len(sales))
	for _, sale := range sales {
		seen[sale.Customer] = struct{}{}
	}
	return len(seen)
}

// TopProducts folds every line item across the collection into per-product
// totals and returns the topN products by revenue, descending. Ties keep
// first-seen order (stable sort). Items with an empty product name are
// skipped. Category is filled by the caller (see Metrics); it is not part
// of the fold.
func TopProducts(sales []domain.Sale, topN int) []domain.TopProduct {
	if topN < 1 {
		topN = DefaultTopProducts
	}

	index := make(map[string]int)
	products := make([]domain.TopProduct, 0, 16)
	revenue := make([]decimal.Decimal, 0, 16)

	for _, sale := range sales {
		for _, item := range sale.Items {
			if item.Product == "" {
				continue
			}
			i, ok := index[item.Product]
			if !ok {
				i = len(products)
				index[item.Product] = i
				products = append(products, domain.TopProduct{Name: item.Product})
				revenue = append(revenue, decimal.Zero)
			}
			products[i].Sold += item.Quantity
			revenue[i] = revenue[i].Add(decimal.NewFromFloat(item.Subtotal.Float64()))
		}
	}

	for i := range products {
		products[i].Revenue = round2(revenue[i])
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Revenue > products[j].Revenue
	})

	if len(products) > topN {
		products = products[:topN]
	}
	return products
}

// Metrics derives the dashboard summary from the full collection.
// categoryOf maps a product name to its catalog category; nil or unknown
// names fall back to "General".
func Metrics(sales []domain.Sale, topN int, categoryOf func(string) string) domain.DashboardMetrics {
	top := TopProducts(sales, topN)
	for i := range top {
		category := ""
		if categoryOf != nil {
			category = categoryOf(top[i].Name)
		}
		if category == "" {
			category = "General"
		}
		top[i].Category = category
	}

	return domain.DashboardMetrics{
		TotalRevenue:    TotalRevenue(sales),
		SaleCount:       len(sales),
		UniqueCustomers: UniqueCustomers(sales),
		TopProducts:     top,
	}
}
