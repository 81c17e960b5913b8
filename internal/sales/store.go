package sales

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

// Store is the in-memory sales collection backed by a remote repository.
// Reads are always served locally; writes go remote first and mutate the
// local copy only on success, except DeleteSale which removes locally
// regardless and reports whether the remote delete went through.
type Store struct {
	repo    store.Repository
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	seed     []domain.Sale
	sales    []domain.Sale
	loading  bool
	degraded bool
}

// NewStore builds a Store primed with the seed collection. Call Load to
// replace it with remote data. timeout bounds every repository call.
func NewStore(repo store.Repository, logger *zap.Logger, timeout time.Duration) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	seed := SeedSales()
	return &Store{
		repo:    repo,
		logger:  logger,
		timeout: timeout,
		seed:    seed,
		sales:   sortByDateDesc(cloneSales(seed)),
	}
}

func (s *Store) boundedCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

// Load fetches the remote collection, merges it over the seed (remote wins
// on id collisions, unseen seed records are kept), and installs the result
// sorted by date descending. Any remote failure leaves the seed collection
// in place and marks the store degraded. Returns the degraded state.
func (s *Store) Load(ctx context.Context) bool {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	remote, err := s.fetchRemote(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.Warn("remote sales load failed, serving seed data", zap.Error(err))
		s.degraded = true
		s.sales = sortByDateDesc(cloneSales(s.seed))
		return true
	}

	s.degraded = false
	s.sales = sortByDateDesc(mergeSales(remote, s.seed))
	s.logger.Info("sales loaded",
		zap.Int("remote", len(remote)),
		zap.Int("total", len(s.sales)))
	return false
}

// fetchRemote pulls every sale record plus its line items. A failure on any
// record's items fails the whole fetch; a partially hydrated collection
// would silently zero out line items on the merge.
func (s *Store) fetchRemote(ctx context.Context) ([]domain.Sale, error) {
	listCtx, cancel := s.boundedCtx(ctx)
	defer cancel()

	records, err := s.repo.ListSaleRecords(listCtx)
	if err != nil {
		return nil, fmt.Errorf("list sale records: %w", err)
	}

	out := make([]domain.Sale, 0, len(records))
	for _, record := range records {
		itemCtx, cancelItems := s.boundedCtx(ctx)
		items, err := s.repo.ListSaleItems(itemCtx, record.ID)
		cancelItems()
		if err != nil {
			return nil, fmt.Errorf("list items for sale %s: %w", record.ID, err)
		}
		record.Items = renumberItems(items)
		out = append(out, record)
	}
	return out, nil
}

// AddSale persists a sale remotely and, on success, prepends it to the
// local collection. An empty id is assigned the next sequential sale id.
// If the record write fails nothing changes. If the record is written but
// its items are not, the orphaned record is deleted remotely (best effort)
// and the call fails, so a sale never lands remote without its lines.
func (s *Store) AddSale(ctx context.Context, sale domain.Sale) (string, error) {
	sale = Normalize(sale)

	if sale.ID == "" {
		s.mu.RLock()
		sale.ID = NextSaleID(s.sales)
		s.mu.RUnlock()
	}

	recordCtx, cancel := s.boundedCtx(ctx)
	err := s.repo.InsertSaleRecord(recordCtx, sale)
	cancel()
	if err != nil {
		return "", fmt.Errorf("insert sale record %s: %w", sale.ID, err)
	}

	if len(sale.Items) > 0 {
		itemCtx, cancelItems := s.boundedCtx(ctx)
		err = s.repo.InsertSaleItems(itemCtx, sale.ID, sale.Items)
		cancelItems()
		if err != nil {
			s.compensateOrphanRecord(sale.ID)
			return "", fmt.Errorf("insert items for sale %s: %w", sale.ID, err)
		}
	}

	s.mu.Lock()
	s.sales = append([]domain.Sale{sale}, s.sales...)
	s.mu.Unlock()

	s.logger.Info("sale added", zap.String("id", sale.ID), zap.Int("items", len(sale.Items)))
	return sale.ID, nil
}

// compensateOrphanRecord removes a sale record whose item write failed.
// Runs on a fresh timeout context since the caller's may already be dead.
func (s *Store) compensateOrphanRecord(saleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.repo.DeleteSaleRecord(ctx, saleID); err != nil {
		s.logger.Error("orphaned sale record left remote after failed item write",
			zap.String("id", saleID), zap.Error(err))
		return
	}
	s.logger.Warn("rolled back sale record after failed item write", zap.String("id", saleID))
}

// DeleteSale removes a sale from the local collection no matter what and
// reports whether the remote copy was removed too. Items are deleted before
// the record; if the item delete fails the record delete is skipped so the
// remote never holds orphaned items. Returns store.ErrNotFound when the id
// is not in the local collection.
func (s *Store) DeleteSale(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	_, exists := findSale(s.sales, id)
	s.mu.RUnlock()
	if !exists {
		return false, store.ErrNotFound
	}

	synced := true

	itemCtx, cancel := s.boundedCtx(ctx)
	err := s.repo.DeleteSaleItems(itemCtx, id)
	cancel()
	if err != nil {
		s.logger.Warn("remote item delete failed, sale removed locally only",
			zap.String("id", id), zap.Error(err))
		synced = false
	} else {
		recordCtx, cancelRecord := s.boundedCtx(ctx)
		err = s.repo.DeleteSaleRecord(recordCtx, id)
		cancelRecord()
		if err != nil {
			s.logger.Warn("remote record delete failed, sale removed locally only",
				zap.String("id", id), zap.Error(err))
			synced = false
		}
	}

	s.mu.Lock()
	s.sales = removeSale(s.sales, id)
	s.mu.Unlock()

	return synced, nil
}

// UpdateItemPrice overrides one line item's price and subtotal, recomputes
// the sale amount from its lines, writes both remotely, and then updates
// the local copy. The subtotal is taken as given; callers may override the
// derived price*quantity value.
func (s *Store) UpdateItemPrice(ctx context.Context, saleID string, itemID int, price, subtotal float64) (*domain.Sale, error) {
	s.mu.RLock()
	idx, exists := findSale(s.sales, saleID)
	var updated domain.Sale
	if exists {
		updated = cloneSale(s.sales[idx])
	}
	s.mu.RUnlock()
	if !exists {
		return nil, store.ErrNotFound
	}

	itemIdx := -1
	for i, item := range updated.Items {
		if item.ID == itemID {
			itemIdx = i
			break
		}
	}
	if itemIdx < 0 {
		return nil, store.ErrNotFound
	}

	price = Round2(price)
	subtotal = Round2(subtotal)
	item := &updated.Items[itemIdx]
	item.Price = domain.Money(price)
	item.Subtotal = domain.Money(subtotal)

	amount := 0.0
	for _, it := range updated.Items {
		amount = Round2(amount + it.Subtotal.Float64())
	}
	updated.Amount = domain.Money(amount)

	itemCtx, cancel := s.boundedCtx(ctx)
	err := s.repo.UpdateSaleItem(itemCtx, saleID, item.Product, item.Quantity, price, subtotal)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("update item %d of sale %s: %w", itemID, saleID, err)
	}

	amountCtx, cancelAmount := s.boundedCtx(ctx)
	err = s.repo.UpdateSaleAmount(amountCtx, saleID, amount)
	cancelAmount()
	if err != nil {
		return nil, fmt.Errorf("update amount of sale %s: %w", saleID, err)
	}

	s.mu.Lock()
	if i, ok := findSale(s.sales, saleID); ok {
		s.sales[i] = updated
	}
	s.mu.Unlock()

	s.logger.Info("sale item updated",
		zap.String("sale", saleID), zap.Int("item", itemID),
		zap.Float64("price", price), zap.Float64("subtotal", subtotal))
	return &updated, nil
}

// Sales returns a snapshot of the collection, newest date first.
func (s *Store) Sales() []domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSales(s.sales)
}

// Get returns one sale by id or store.ErrNotFound.
func (s *Store) Get(id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := findSale(s.sales, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	sale := cloneSale(s.sales[idx])
	return &sale, nil
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Degraded reports whether the last Load fell back to seed data.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// mergeSales overlays remote records on the fallback set. Remote wins on id
// collisions; fallback records the remote doesn't know about are appended.
func mergeSales(remote, fallback []domain.Sale) []domain.Sale {
	seen := make(map[string]struct{}, len(remote))
	merged := make([]domain.Sale, 0, len(remote)+len(fallback))
	for _, sale := range remote {
		seen[sale.ID] = struct{}{}
		merged = append(merged, cloneSale(sale))
	}
	for _, sale := range fallback {
		if _, ok := seen[sale.ID]; ok {
			continue
		}
		merged = append(merged, cloneSale(sale))
	}
	return merged
}

// sortByDateDesc orders newest first. Dates are YYYY-MM-DD so plain string
// comparison sorts chronologically. Ties keep their relative order.
func sortByDateDesc(sales []domain.Sale) []domain.Sale {
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Date > sales[j].Date
	})
	return sales
}

func renumberItems(items []domain.SaleItem) []domain.SaleItem {
	for i := range items {
		items[i].ID = i + 1
	}
	return items
}

func findSale(sales []domain.Sale, id string) (int, bool) {
	for i, sale := range sales {
		if sale.ID == id {
			return i, true
		}
	}
	return 0, false
}

func removeSale(sales []domain.Sale, id string) []domain.Sale {
	out := sales[:0]
	for _, sale := range sales {
		if sale.ID != id {
			out = append(out, sale)
		}
	}
	return out
}

func cloneSale(sale domain.Sale) domain.Sale {
	clone := sale
	if sale.Items != nil {
		clone.Items = append([]domain.SaleItem(nil), sale.Items...)
	}
	return clone
}

func cloneSales(sales []domain.Sale) []domain.Sale {
	out := make([]domain.Sale, len(sales))
	for i, sale := range sales {
		out[i] = cloneSale(sale)
	}
	return out
}
