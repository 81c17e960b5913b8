package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

// Store is the in-memory repository used when DATABASE_URL is unset. It
// starts with the demo catalogs (customers, products, employees) and demo
// credentials but no sale records; the sales layer brings its own seed
// collection and treats this store as the remote.
type Store struct {
	mu          sync.RWMutex
	salesByID   map[string]domain.Sale
	saleOrder   []string
	itemsBySale map[string][]domain.SaleItem
	customers   map[string]domain.Customer
	products    map[string]domain.Product
	employees   map[string]domain.Employee
	users       map[string]domain.UserAccount
}

// seedUsers builds the initial accounts for dev/demo mode. The admin
// password comes from SEED_ADMIN_PASSWORD; if unset a hardcoded dev default
// is used with a warning. Never used in production, where DATABASE_URL
// selects the postgres store.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "password123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}

	return map[string]domain.UserAccount{
		"admin@example.com": {
			ID:        "U001",
			Name:      "Admin User",
			Email:     "admin@example.com",
			Password:  string(hash),
			Role:      domain.RoleAdmin,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	customers := []domain.Customer{
		{ID: "C001", Name: "Acme Corporation", Contact: "John Smith", Email: "john.smith@acme.com", Phone: "(555) 123-4567", Status: "Active"},
		{ID: "C002", Name: "Globex Inc", Contact: "Jane Doe", Email: "jane.doe@globex.com", Phone: "(555) 987-6543", Status: "Active"},
		{ID: "C003", Name: "Stark Industries", Contact: "Tony Stark", Email: "tony@starkindustries.com", Phone: "(555) 111-2222", Status: "Active"},
		{ID: "C004", Name: "Wayne Enterprises", Contact: "Bruce Wayne", Email: "bruce@wayneent.com", Phone: "(555) 333-4444", Status: "Active"},
		{ID: "C005", Name: "LexCorp", Contact: "Lex Luthor", Email: "lex@lexcorp.com", Phone: "(555) 555-6666", Status: "Inactive"},
		{ID: "C006", Name: "Umbrella Corporation", Contact: "Albert Wesker", Email: "wesker@umbrella.com", Phone: "(555) 777-8888", Status: "Inactive"},
		{ID: "C007", Name: "Oscorp", Contact: "Norman Osborn", Email: "norman@oscorp.com", Phone: "(555) 999-0000", Status: "Active"},
	}

	products := []domain.Product{
		{ID: "P001", Name: "Laptop Pro 15", Category: "Electronics", Price: 1299.99, Stock: 45, Status: "In Stock"},
		{ID: "P002", Name: "Wireless Headphones", Category: "Audio", Price: 199.95, Stock: 78, Status: "In Stock"},
		{ID: "P003", Name: "Smartphone X", Category: "Electronics", Price: 899.00, Stock: 23, Status: "In Stock"},
		{ID: "P004", Name: "Smart Watch 4", Category: "Wearables", Price: 349.99, Stock: 12, Status: "Low Stock"},
		{ID: "P005", Name: "Bluetooth Speaker", Category: "Audio", Price: 129.95, Stock: 0, Status: "Out of Stock"},
		{ID: "P006", Name: "Tablet Air", Category: "Electronics", Price: 449.99, Stock: 34, Status: "In Stock"},
		{ID: "P007", Name: "Wireless Mouse", Category: "Accessories", Price: 59.99, Stock: 56, Status: "In Stock"},
		{ID: "P008", Name: "Mechanical Keyboard", Category: "Accessories", Price: 149.99, Stock: 7, Status: "Low Stock"},
	}

	employees := []domain.Employee{
		{ID: "E001", Name: "John Smith", Position: "Sales Manager", Email: "john.smith@company.com", Phone: "(555) 123-4567", StartDate: "2020-03-15"},
		{ID: "E002", Name: "Jane Doe", Position: "Sales Representative", Email: "jane.doe@company.com", Phone: "(555) 987-6543", StartDate: "2020-06-22"},
		{ID: "E003", Name: "Michael Johnson", Position: "Sales Representative", Email: "michael.johnson@company.com", Phone: "(555) 234-5678", StartDate: "2021-01-10"},
		{ID: "E004", Name: "Sarah Williams", Position: "Sales Representative", Email: "sarah.williams@company.com", Phone: "(555) 876-5432", StartDate: "2021-04-05"},
		{ID: "E005", Name: "David Brown", Position: "Sales Representative", Email: "david.brown@company.com", Phone: "(555) 345-6789", StartDate: "2021-09-18"},
		{ID: "E006", Name: "Emily Davis", Position: "Sales Assistant", Email: "emily.davis@company.com", Phone: "(555) 654-3210", StartDate: "2022-02-14"},
		{ID: "E007", Name: "Robert Wilson", Position: "Sales Representative", Email: "robert.wilson@company.com", Phone: "(555) 432-1098", StartDate: "2022-05-30"},
	}

	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}
	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	employeeMap := make(map[string]domain.Employee, len(employees))
	for _, e := range employees {
		employeeMap[e.ID] = e
	}

	return &Store{
		salesByID:   make(map[string]domain.Sale),
		saleOrder:   make([]string, 0, 32),
		itemsBySale: make(map[string][]domain.SaleItem),
		customers:   customerMap,
		products:    productMap,
		employees:   employeeMap,
		users:       seedUsers(),
	}
}

func (s *Store) ListSaleRecords(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest insertion first, matching the remote's created_at ordering.
	sales := make([]domain.Sale, 0, len(s.saleOrder))
	for i := len(s.saleOrder) - 1; i >= 0; i-- {
		if sale, ok := s.salesByID[s.saleOrder[i]]; ok {
			sales = append(sales, cloneSale(sale))
		}
	}
	return sales, nil
}

func (s *Store) GetSaleRecord(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

func (s *Store) InsertSaleRecord(_ context.Context, sale domain.Sale) error {
	if strings.TrimSpace(sale.ID) == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[sale.ID]; exists {
		return store.ErrInvalidRecord
	}
	record := cloneSale(sale)
	record.Items = nil
	s.salesByID[sale.ID] = record
	s.saleOrder = append(s.saleOrder, sale.ID)
	return nil
}

func (s *Store) UpdateSaleAmount(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return store.ErrNotFound
	}
	sale.Amount = domain.Money(amount)
	s.salesByID[id] = sale
	return nil
}

func (s *Store) DeleteSaleRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.salesByID, id)
	s.saleOrder = slices.DeleteFunc(s.saleOrder, func(existing string) bool {
		return existing == id
	})
	return nil
}

func (s *Store) ListSaleItems(_ context.Context, saleID string) ([]domain.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.itemsBySale[saleID]
	result := make([]domain.SaleItem, len(items))
	copy(result, items)
	return result, nil
}

func (s *Store) InsertSaleItems(_ context.Context, saleID string, items []domain.SaleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[saleID]; !exists {
		return store.ErrNotFound
	}
	for _, item := range items {
		if strings.TrimSpace(item.Product) == "" || item.Quantity < 1 {
			return store.ErrInvalidRecord
		}
	}
	added := make([]domain.SaleItem, len(items))
	copy(added, items)
	s.itemsBySale[saleID] = append(s.itemsBySale[saleID], added...)
	return nil
}

func (s *Store) UpdateSaleItem(_ context.Context, saleID string, product string, quantity int, price float64, subtotal float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, exists := s.itemsBySale[saleID]
	if !exists {
		return store.ErrNotFound
	}
	for i, item := range items {
		if item.Product == product && item.Quantity == quantity {
			items[i].Price = domain.Money(price)
			items[i].Subtotal = domain.Money(subtotal)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteSaleItems(_ context.Context, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.itemsBySale, saleID)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.ID, b.ID)
	})
	return customers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.customers[customer.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmpString(a.ID, b.ID)
	})
	return employees, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID == "" || employee.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.employees[employee.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.employees[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRecord
	}
	if _, exists := s.users[email]; exists {
		return store.ErrInvalidRecord
	}
	user.Email = email
	if user.Role == "" {
		user.Role = domain.RoleSales
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.users[email] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Email, b.Email)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, email string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRecord
	}
	user, exists := s.users[email]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[email] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	if src.Items != nil {
		items := make([]domain.SaleItem, len(src.Items))
		copy(items, src.Items)
		dup.Items = items
	}
	return dup
}
