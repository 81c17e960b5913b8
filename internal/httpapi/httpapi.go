package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"salesdesk/backend/internal/cache"
	"salesdesk/backend/internal/directory"
	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/saleform"
	"salesdesk/backend/internal/sales"
	"salesdesk/backend/internal/store"
)

type API struct {
	salesStore    *sales.Store
	directory     *directory.Service
	metricsCache  cache.MetricsCache
	metricsTTL    time.Duration
	topProducts   int
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	logger        *zap.Logger
}

func New(salesStore *sales.Store, dir *directory.Service, metricsCache cache.MetricsCache, metricsTTL time.Duration, topProducts int, auth *AuthManager, allowedOrigin string, logger *zap.Logger) *API {
	if metricsCache == nil {
		metricsCache = cache.NoopMetricsCache{}
	}
	if metricsTTL <= 0 {
		metricsTTL = 30 * time.Second
	}
	if topProducts < 1 {
		topProducts = sales.DefaultTopProducts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		salesStore:    salesStore,
		directory:     dir,
		metricsCache:  metricsCache,
		metricsTTL:    metricsTTL,
		topProducts:   topProducts,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		logger:        logger,
	}
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/signup", a.handleSignup)
	mux.HandleFunc("/api/v1/auth/logout", a.requireAuth(a.handleLogout))
	mux.HandleFunc("/api/v1/auth/me", a.requireAuth(a.handleMe))

	mux.HandleFunc("/api/v1/sales", a.requireAuth(a.handleSales))
	mux.HandleFunc("/api/v1/sales/", a.requireAuth(a.handleSaleActions))
	mux.HandleFunc("/api/v1/dashboard/metrics", a.requireAuth(a.handleDashboardMetrics))

	mux.HandleFunc("/api/v1/customers", a.requireAuth(a.handleCustomers))
	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts))
	mux.HandleFunc("/api/v1/employees", a.requireAuth(a.handleEmployees))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

// requireWriterRole guards catalog mutations: only admins and managers may
// create directory records. Sales roles keep read access.
func requireWriterRole(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := ActorFrom(r.Context())
	if !ok || !isRoleAllowed(actor.Role, []string{domain.RoleAdmin, domain.RoleManager}) {
		writeError(w, http.StatusForbidden, errors.New("forbidden role"))
		return false
	}
	return true
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"degraded": a.salesStore.Degraded(),
		"at":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many signup attempts"))
		return
	}

	var req domain.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Signup(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleLogout exists for client symmetry. Tokens are stateless, so logout
// is a client-side discard; the server just acknowledges.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no authenticated user"))
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSales(w, r)
	case http.MethodPost:
		a.createSale(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) listSales(w http.ResponseWriter, r *http.Request) {
	collection := a.salesStore.Sales()

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		needle := strings.ToLower(search)
		filtered := collection[:0]
		for _, sale := range collection {
			if strings.Contains(strings.ToLower(sale.ID), needle) ||
				strings.Contains(strings.ToLower(sale.Customer), needle) ||
				strings.Contains(strings.ToLower(sale.Employee), needle) ||
				strings.Contains(sale.Date, needle) {
				filtered = append(filtered, sale)
			}
		}
		collection = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sales":    collection,
		"loading":  a.salesStore.Loading(),
		"degraded": a.salesStore.Degraded(),
	})
}

func (a *API) createSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("at least one item is required"))
		return
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Customer) == "" {
		writeError(w, http.StatusBadRequest, errors.New("date and customer are required"))
		return
	}

	draft := domain.Sale{
		ID:       strings.TrimSpace(req.ID),
		Date:     req.Date,
		Customer: req.Customer,
		Employee: req.Employee,
		Items:    req.Items,
	}

	form := saleform.New(&draft)

	var id string
	err := form.Submit(func(sale domain.Sale) error {
		created, err := a.salesStore.AddSale(r.Context(), sale)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, saleform.ErrEmptyProduct):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, store.ErrInvalidRecord):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}

	sale, getErr := a.salesStore.Get(id)
	if getErr != nil {
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sales/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, errors.New("sale id required"))
		return
	}
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1:
		a.handleSaleByID(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "items":
		a.handleSaleItemPatch(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown sales path"))
	}
}

func (a *API) handleSaleByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sale, err := a.salesStore.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, sale)
	case http.MethodDelete:
		synced, err := a.salesStore.DeleteSale(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"synced":  synced,
		})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleItemPatch(w http.ResponseWriter, r *http.Request, saleID string, itemIDRaw string) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	itemID, err := strconv.Atoi(itemIDRaw)
	if err != nil || itemID < 1 {
		writeError(w, http.StatusBadRequest, errors.New("invalid item id"))
		return
	}

	var req domain.SaleItemPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	price := req.Price.Float64()
	subtotal := req.Subtotal.Float64()
	if price < 0 || subtotal < 0 {
		writeError(w, http.StatusBadRequest, errors.New("price and subtotal cannot be negative"))
		return
	}

	updated, err := a.salesStore.UpdateItemPrice(r.Context(), saleID, itemID, price, subtotal)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	const cacheKey = "salesdesk:dashboard:metrics"
	if cached, ok, err := a.metricsCache.Get(r.Context(), cacheKey); err == nil && ok {
		writeJSON(w, http.StatusOK, cached)
		return
	} else if err != nil {
		a.logger.Warn("metrics cache read failed", zap.Error(err))
	}

	categoryOf, err := a.directory.CategoryLookup(r.Context())
	if err != nil {
		// The dashboard still works without categories.
		a.logger.Warn("category lookup failed", zap.Error(err))
		categoryOf = nil
	}

	metrics := sales.Metrics(a.salesStore.Sales(), a.topProducts, categoryOf)

	if err := a.metricsCache.Set(r.Context(), cacheKey, &metrics, a.metricsTTL); err != nil {
		a.logger.Warn("metrics cache write failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, metrics)
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.directory.ListCustomers(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	case http.MethodPost:
		if !requireWriterRole(w, r) {
			return
		}
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := a.directory.CreateCustomer(r.Context(), req)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.directory.ListProducts(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		if !requireWriterRole(w, r) {
			return
		}
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := a.directory.CreateProduct(r.Context(), req)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleEmployees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		employees, err := a.directory.ListEmployees(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
	case http.MethodPost:
		if !requireWriterRole(w, r) {
			return
		}
		var req domain.EmployeeCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := a.directory.CreateEmployee(r.Context(), req)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeMethodNotAllowed(w)
	}
}

func writeDirectoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrInvalidRecord) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(startedAt)))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so internals (SQL errors, hosts,
	// paths) never reach the client. 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
