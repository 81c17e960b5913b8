package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

// Store is the PostgreSQL repository. Schema:
//
//	sales_records (id text pk, date date, customer text, employee text,
//	               amount double precision, created_at timestamptz)
//	sales_items   (id bigserial pk, sale_id text references sales_records,
//	               product text, quantity int, price double precision,
//	               subtotal double precision)
//	customers / products / employees / users keyed by their text ids.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListSaleRecords(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, to_char(date, 'YYYY-MM-DD'), customer, employee, amount
		FROM sales_records
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.Date, &sale.Customer, &sale.Employee, &sale.Amount); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) GetSaleRecord(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, to_char(date, 'YYYY-MM-DD'), customer, employee, amount
		FROM sales_records
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.Date, &sale.Customer, &sale.Employee, &sale.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) InsertSaleRecord(ctx context.Context, sale domain.Sale) error {
	if strings.TrimSpace(sale.ID) == "" {
		return store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_records (id, date, customer, employee, amount, created_at)
		VALUES ($1, $2::date, $3, $4, $5, now())
	`, sale.ID, sale.Date, sale.Customer, sale.Employee, sale.Amount.Float64())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRecord
		}
		return err
	}
	return nil
}

func (s *Store) UpdateSaleAmount(ctx context.Context, id string, amount float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales_records SET amount = $2 WHERE id = $1
	`, id, amount)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSaleRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sales_records WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSaleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product, quantity, price, subtotal
		FROM sales_items
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.Product, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		item.ID = len(items) + 1
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) InsertSaleItems(ctx context.Context, saleID string, items []domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		if strings.TrimSpace(item.Product) == "" || item.Quantity < 1 {
			return store.ErrInvalidRecord
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales_items (sale_id, product, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, item.Product, item.Quantity, item.Price.Float64(), item.Subtotal.Float64())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) UpdateSaleItem(ctx context.Context, saleID string, product string, quantity int, price float64, subtotal float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales_items
		SET price = $4, subtotal = $5
		WHERE sale_id = $1 AND product = $2 AND quantity = $3
	`, saleID, product, quantity, price, subtotal)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSaleItems(ctx context.Context, saleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sales_items WHERE sale_id = $1
	`, saleID)
	return err
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact, email, phone, status
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Email, &c.Phone, &c.Status); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, contact, email, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, customer.ID, customer.Name, customer.Contact, customer.Email, customer.Phone, customer.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, stock, status
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Status); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, stock, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, product.ID, product.Name, product.Category, product.Price.Float64(), product.Stock, product.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position, email, phone, to_char(start_date, 'YYYY-MM-DD')
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 32)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Email, &e.Phone, &e.StartDate); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.ID == "" || employee.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, position, email, phone, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, now())
	`, employee.ID, employee.Name, employee.Position, employee.Email, employee.Phone, employee.StartDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	created := employee
	return &created, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRecord
	}
	if user.Role == "" {
		user.Role = domain.RoleSales
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, now())
	`, user.ID, user.Name, email, user.Password, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRecord
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password, role, active, created_at
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRecord
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE email = $1
	`, email, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
