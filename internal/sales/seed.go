package sales

import "salesdesk/backend/internal/domain"

// SeedSales returns the built-in demo collection served when the remote
// store is unreachable. The slice is freshly allocated per call so callers
// can mutate their copy. S002's Keyboard subtotal (50.75) intentionally
// differs from price*quantity (50.74); line subtotals are stored values,
// not always derived ones.
func SeedSales() []domain.Sale {
	return []domain.Sale{
		{
			ID:       "S001",
			Date:     "2023-09-01",
			Customer: "Acme Corp",
			Employee: "John Smith",
			Amount:   1200.50,
			Items: []domain.SaleItem{
				{ID: 1, Product: "Laptop", Quantity: 2, Price: 500, Subtotal: 1000},
				{ID: 2, Product: "Monitor", Quantity: 1, Price: 200.50, Subtotal: 200.50},
			},
		},
		{
			ID:       "S002",
			Date:     "2023-09-03",
			Customer: "Globex Inc",
			Employee: "Jane Doe",
			Amount:   850.75,
			Items: []domain.SaleItem{
				{ID: 1, Product: "Desktop PC", Quantity: 1, Price: 800, Subtotal: 800},
				{ID: 2, Product: "Keyboard", Quantity: 2, Price: 25.37, Subtotal: 50.75},
			},
		},
		{
			ID:       "S003",
			Date:     "2023-09-05",
			Customer: "Stark Industries",
			Employee: "Michael Johnson",
			Amount:   3200.00,
			Items: []domain.SaleItem{
				{ID: 1, Product: "Server", Quantity: 1, Price: 2500, Subtotal: 2500},
				{ID: 2, Product: "Software License", Quantity: 5, Price: 140, Subtotal: 700},
			},
		},
		{
			ID:       "S004",
			Date:     "2023-09-07",
			Customer: "Wayne Enterprises",
			Employee: "Sarah Williams",
			Amount:   1750.25,
			Items: []domain.SaleItem{
				{ID: 1, Product: "Tablet", Quantity: 3, Price: 350, Subtotal: 1050},
				{ID: 2, Product: "Case", Quantity: 3, Price: 25, Subtotal: 75},
				{ID: 3, Product: "Screen Protector", Quantity: 5, Price: 15, Subtotal: 75},
			},
		},
		{
			ID:       "S005",
			Date:     "2023-09-10",
			Customer: "LexCorp",
			Employee: "David Brown",
			Amount:   950.00,
			Items: []domain.SaleItem{
				{ID: 1, Product: "Printer", Quantity: 1, Price: 750, Subtotal: 750},
				{ID: 2, Product: "Ink Cartridges", Quantity: 4, Price: 50, Subtotal: 200},
			},
		},
		{
			ID:       "S006",
			Date:     "2023-09-12",
			Customer: "Umbrella Corp",
			Employee: "Emily Davis",
			Amount:   2100.50,
		},
		{
			ID:       "S007",
			Date:     "2023-09-15",
			Customer: "Cyberdyne Systems",
			Employee: "Robert Wilson",
			Amount:   1500.00,
		},
		{
			ID:       "S008",
			Date:     "2023-09-18",
			Customer: "Oscorp",
			Employee: "Jennifer Lee",
			Amount:   3750.25,
		},
	}
}
