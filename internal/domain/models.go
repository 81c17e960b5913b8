package domain

import "time"

// Sale is a transaction record: header fields plus the line items sold.
// Amount is derived from the items whenever items are present; imported or
// historical records may carry an amount with no items at all.
type Sale struct {
	ID       string     `json:"id"`
	Date     string     `json:"date"`
	Customer string     `json:"customer"`
	Employee string     `json:"employee"`
	Amount   Money      `json:"amount"`
	Items    []SaleItem `json:"items,omitempty"`
}

// SaleItem is one product line within a sale. ID is the 1-based sequence
// number local to the sale; the remote store assigns its own row ids.
type SaleItem struct {
	ID       int    `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Price    Money  `json:"price"`
	Subtotal Money  `json:"subtotal"`
}

// TopProduct is a derived dashboard row, never persisted.
type TopProduct struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Sold     int     `json:"sold"`
	Revenue  float64 `json:"revenue"`
}

type DashboardMetrics struct {
	TotalRevenue    float64      `json:"total_revenue"`
	SaleCount       int          `json:"sale_count"`
	UniqueCustomers int          `json:"unique_customers"`
	TopProducts     []TopProduct `json:"top_products"`
}

type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Status  string `json:"status"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    Money  `json:"price"`
	Stock    int    `json:"stock"`
	Status   string `json:"status"`
}

type ProductCreateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    Money  `json:"price"`
	Stock    int    `json:"stock"`
}

type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	StartDate string `json:"start_date"`
}

type EmployeeCreateRequest struct {
	Name      string `json:"name"`
	Position  string `json:"position"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	StartDate string `json:"start_date"`
}

type SaleCreateRequest struct {
	ID       string     `json:"id,omitempty"`
	Date     string     `json:"date"`
	Customer string     `json:"customer"`
	Employee string     `json:"employee"`
	Items    []SaleItem `json:"items"`
}

type SaleItemPatchRequest struct {
	Price    Money `json:"price"`
	Subtotal Money `json:"subtotal"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        Actor  `json:"user"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor identifies the authenticated user attached to a request context.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleAdmin   = "admin"
	RoleSales   = "sales"
	RoleManager = "manager"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSales, RoleManager:
		return true
	default:
		return false
	}
}
