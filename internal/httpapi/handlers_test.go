package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesdesk/backend/internal/cache"
	"salesdesk/backend/internal/directory"
	"salesdesk/backend/internal/sales"
	"salesdesk/backend/internal/store/memory"
)

// newTestAPI builds a full API over the in-memory repository so handler
// tests exercise the complete request path, seed collection included.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	salesStore := sales.NewStore(repo, nil, time.Second)
	salesStore.Load(context.Background())
	dir := directory.NewService(repo, nil)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(salesStore, dir, cache.NoopMetricsCache{}, time.Second, 5, auth, "*", nil)
}

func login(t *testing.T, handler http.Handler, email string, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatal("login response missing access_token")
	}
	return body.AccessToken
}

func authedRequest(method string, target string, token string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api.Handler(), "admin@example.com", "password123")
	if token == "" {
		t.Fatal("expected token")
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"email":    "admin@example.com",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute from one address.
	payload, _ := json.Marshal(map[string]string{
		"email":    "admin@example.com",
		"password": "badpass",
	})

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on sixth attempt, got %d", last)
	}
}

func TestHandleSignupThenMe(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"name":     "New Rep",
		"email":    "rep@example.com",
		"password": "secret99",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.User.Role != "sales" {
		t.Fatalf("signup role = %q, want sales", body.User.Role)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/auth/me", body.AccessToken, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("me returned %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleSales_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleSales_ListAndSearch(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/sales", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Sales []struct {
			ID string `json:"id"`
		} `json:"sales"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Sales) != 8 {
		t.Fatalf("sales = %d, want 8 seed records", len(body.Sales))
	}
	if body.Sales[0].ID != "S008" {
		t.Fatalf("first sale = %s, want newest date first (S008)", body.Sales[0].ID)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/sales?search=stark", token, nil))
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode filtered body: %v", err)
	}
	if len(body.Sales) != 1 || body.Sales[0].ID != "S003" {
		t.Fatalf("filtered sales = %+v, want only S003", body.Sales)
	}
}

func TestHandleSales_CreateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	payload, _ := json.Marshal(map[string]any{
		"date":     "2024-07-01",
		"customer": "Initech",
		"employee": "Peter Gibbons",
		"items": []map[string]any{
			{"id": 1, "product": "Stapler", "quantity": 2, "price": 12.5, "subtotal": 25},
		},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/sales", token, payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created sale: %v", err)
	}
	if created.ID != "S009" {
		t.Fatalf("created id = %q, want S009", created.ID)
	}
	if created.Amount != 25 {
		t.Fatalf("created amount = %v, want 25", created.Amount)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/sales/S009", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var deleted struct {
		Deleted bool `json:"deleted"`
		Synced  bool `json:"synced"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&deleted); err != nil {
		t.Fatalf("decode delete body: %v", err)
	}
	if !deleted.Deleted || !deleted.Synced {
		t.Fatalf("delete body = %+v, want deleted and synced", deleted)
	}
}

func TestHandleSales_CreateRejectsEmptyProduct(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	payload, _ := json.Marshal(map[string]any{
		"date":     "2024-07-01",
		"customer": "Initech",
		"items": []map[string]any{
			{"id": 1, "product": "", "quantity": 1, "price": 10, "subtotal": 10},
		},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/sales", token, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleSaleItemPatch(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	// The seed collection lives local-only; persist a sale remotely first so
	// the item update has a remote row to hit.
	payload, _ := json.Marshal(map[string]any{
		"date":     "2024-07-02",
		"customer": "Initech",
		"employee": "Peter Gibbons",
		"items": []map[string]any{
			{"id": 1, "product": "Stapler", "quantity": 2, "price": 12.5, "subtotal": 25},
		},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/sales", token, payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	patch, _ := json.Marshal(map[string]any{"price": 15, "subtotal": 30})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/sales/S009/items/1", token, patch))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var updated struct {
		Amount float64 `json:"amount"`
		Items  []struct {
			Price    float64 `json:"price"`
			Subtotal float64 `json:"subtotal"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode patched sale: %v", err)
	}
	if updated.Amount != 30 {
		t.Fatalf("amount = %v, want 30", updated.Amount)
	}
	if len(updated.Items) != 1 || updated.Items[0].Price != 15 {
		t.Fatalf("items = %+v, want price 15", updated.Items)
	}
}

func TestHandleDashboardMetrics(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/dashboard/metrics", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var metrics struct {
		TotalRevenue    float64 `json:"total_revenue"`
		SaleCount       int     `json:"sale_count"`
		UniqueCustomers int     `json:"unique_customers"`
		TopProducts     []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"top_products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}

	// Seed totals: 1200.50+850.75+3200+1750.25+950+2100.50+1500+3750.25.
	if fmt.Sprintf("%.2f", metrics.TotalRevenue) != "15302.25" {
		t.Fatalf("total revenue = %v, want 15302.25", metrics.TotalRevenue)
	}
	if metrics.SaleCount != 8 {
		t.Fatalf("sale count = %d, want 8", metrics.SaleCount)
	}
	if metrics.UniqueCustomers != 8 {
		t.Fatalf("unique customers = %d, want 8", metrics.UniqueCustomers)
	}
	if len(metrics.TopProducts) != 5 {
		t.Fatalf("top products = %d, want 5", len(metrics.TopProducts))
	}
	if metrics.TopProducts[0].Name != "Server" {
		t.Fatalf("top product = %s, want Server (2500 revenue)", metrics.TopProducts[0].Name)
	}
	// Seed sale products are not in the catalog, so they fall back.
	if metrics.TopProducts[0].Category != "General" {
		t.Fatalf("category = %s, want General fallback", metrics.TopProducts[0].Category)
	}
}

func TestHandleCustomers_RoleGate(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	admin := login(t, handler, "admin@example.com", "password123")

	// Signup creates a sales-role account.
	payload, _ := json.Marshal(map[string]string{
		"name": "Rep", "email": "rep2@example.com", "password": "secret99",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var signup struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&signup); err != nil {
		t.Fatalf("decode signup: %v", err)
	}

	// Sales role can read.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/customers", signup.AccessToken, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sales read returned %d", rec.Code)
	}

	// Sales role cannot create.
	create, _ := json.Marshal(map[string]string{"name": "Initech"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/customers", signup.AccessToken, create))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("sales create returned %d, want 403", rec.Code)
	}

	// Admin can.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/customers", admin, create))
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create returned %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created customer: %v", err)
	}
	if created.ID != "C008" {
		t.Fatalf("created customer id = %s, want C008", created.ID)
	}
}

func TestHandleProducts_List(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/products?search=audio", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("products returned %d", rec.Code)
	}

	var body struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(body.Products) != 2 {
		t.Fatalf("audio products = %d, want 2", len(body.Products))
	}
}
