package store

import (
	"context"
	"errors"

	"salesdesk/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Repository is the remote persistence service behind the dashboard. Sale
// records and their line items are stored separately; items reference their
// parent sale by id, so callers must write the sale record before its items.
type Repository interface {
	ListSaleRecords(ctx context.Context) ([]domain.Sale, error)
	GetSaleRecord(ctx context.Context, id string) (*domain.Sale, error)
	InsertSaleRecord(ctx context.Context, sale domain.Sale) error
	UpdateSaleAmount(ctx context.Context, id string, amount float64) error
	DeleteSaleRecord(ctx context.Context, id string) error

	ListSaleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error)
	InsertSaleItems(ctx context.Context, saleID string, items []domain.SaleItem) error
	UpdateSaleItem(ctx context.Context, saleID string, product string, quantity int, price float64, subtotal float64) error
	DeleteSaleItems(ctx context.Context, saleID string) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, email string, password string) error
}
