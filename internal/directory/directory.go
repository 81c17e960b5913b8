// Package directory manages the supporting catalogs behind the sales
// dashboard: customers, products, and employees. Records get sequential
// prefixed ids (C001, P001, E001) the same way sale records do.
package directory

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

// lowStockThreshold marks products as "Low Stock" below this count.
const lowStockThreshold = 15

var directoryIDPattern = regexp.MustCompile(`^[A-Z](\d+)$`)

type Service struct {
	repo   store.Repository
	logger *zap.Logger
}

func NewService(repo store.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// ListCustomers returns customers, filtered by a case-insensitive substring
// match across every field when search is non-empty.
func (s *Service) ListCustomers(ctx context.Context, search string) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if search == "" {
		return customers, nil
	}
	out := customers[:0]
	for _, c := range customers {
		if matchesSearch(search, c.ID, c.Name, c.Contact, c.Email, c.Phone, c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", store.ErrInvalidRecord)
	}

	existing, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	ids := make([]string, len(existing))
	for i, c := range existing {
		ids[i] = c.ID
	}

	customer := domain.Customer{
		ID:      nextID("C", ids),
		Name:    strings.TrimSpace(req.Name),
		Contact: strings.TrimSpace(req.Contact),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Status:  "Active",
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Info("customer created", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if search == "" {
		return products, nil
	}
	out := products[:0]
	for _, p := range products {
		if matchesSearch(search, p.ID, p.Name, p.Category, p.Status,
			strconv.FormatFloat(p.Price.Float64(), 'f', -1, 64), strconv.Itoa(p.Stock)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", store.ErrInvalidRecord)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", store.ErrInvalidRecord)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", store.ErrInvalidRecord)
	}

	existing, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	ids := make([]string, len(existing))
	for i, p := range existing {
		ids[i] = p.ID
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}

	product := domain.Product{
		ID:       nextID("P", ids),
		Name:     strings.TrimSpace(req.Name),
		Category: category,
		Price:    req.Price,
		Stock:    req.Stock,
		Status:   stockStatus(req.Stock),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) ListEmployees(ctx context.Context, search string) ([]domain.Employee, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if search == "" {
		return employees, nil
	}
	out := employees[:0]
	for _, e := range employees {
		if matchesSearch(search, e.ID, e.Name, e.Position, e.Email, e.Phone, e.StartDate) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (*domain.Employee, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: employee name is required", store.ErrInvalidRecord)
	}

	existing, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	ids := make([]string, len(existing))
	for i, e := range existing {
		ids[i] = e.ID
	}

	employee := domain.Employee{
		ID:        nextID("E", ids),
		Name:      strings.TrimSpace(req.Name),
		Position:  strings.TrimSpace(req.Position),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		StartDate: strings.TrimSpace(req.StartDate),
	}

	created, err := s.repo.CreateEmployee(ctx, employee)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	s.logger.Info("employee created", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// CategoryLookup snapshots the product catalog and returns a name-to-category
// resolver for dashboard metrics. Unknown products resolve to the empty
// string; the metrics layer applies its own fallback.
func (s *Service) CategoryLookup(ctx context.Context) (func(string) string, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	categories := make(map[string]string, len(products))
	for _, p := range products {
		categories[p.Name] = p.Category
	}
	return func(name string) string { return categories[name] }, nil
}

func matchesSearch(search string, fields ...string) bool {
	needle := strings.ToLower(search)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func stockStatus(stock int) string {
	switch {
	case stock == 0:
		return "Out of Stock"
	case stock < lowStockThreshold:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// nextID returns prefix plus the highest numeric suffix seen, plus one,
// padded to at least 3 digits.
func nextID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		match := directoryIDPattern.FindStringSubmatch(id)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}
