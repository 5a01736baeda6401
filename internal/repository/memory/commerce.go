package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"koomia/api/internal/models"
	"koomia/api/internal/repository"
)

type CartStore struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: map[string]models.Cart{}}
}

func (s *CartStore) Get(_ context.Context, accountID string) (models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[accountID]
	if !ok {
		return models.Cart{}, repository.ErrNotFound
	}
	cart.Items = append([]models.CartItem(nil), cart.Items...)
	return cart, nil
}

func (s *CartStore) Save(_ context.Context, cart models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart.Items = append([]models.CartItem(nil), cart.Items...)
	cart.UpdatedAt = time.Now().UTC()
	s.carts[cart.AccountID] = cart
	return nil
}

type WishlistStore struct {
	mu        sync.RWMutex
	wishlists map[string][]string
}

func NewWishlistStore() *WishlistStore {
	return &WishlistStore{wishlists: map[string][]string{}}
}

func (s *WishlistStore) Get(_ context.Context, accountID string) (models.Wishlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.wishlists[accountID]
	if !ok {
		return models.Wishlist{}, repository.ErrNotFound
	}
	return models.Wishlist{AccountID: accountID, ProductIDs: append([]string{}, ids...)}, nil
}

func (s *WishlistStore) Add(_ context.Context, accountID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.wishlists[accountID] {
		if id == productID {
			return nil
		}
	}
	s.wishlists[accountID] = append(s.wishlists[accountID], productID)
	return nil
}

func (s *WishlistStore) Remove(_ context.Context, accountID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.wishlists[accountID]
	kept := ids[:0:0]
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if _, ok := s.wishlists[accountID]; ok {
		s.wishlists[accountID] = kept
	}
	return nil
}

type AddressStore struct {
	mu        sync.RWMutex
	addresses map[string]models.Address
	seq       []string
}

func NewAddressStore() *AddressStore {
	return &AddressStore{addresses: map[string]models.Address{}}
}

func (s *AddressStore) Create(_ context.Context, address models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.addresses[address.ID]; ok {
		return repository.ErrDuplicate
	}
	s.addresses[address.ID] = address
	s.seq = append(s.seq, address.ID)
	return nil
}

func (s *AddressStore) Get(_ context.Context, accountID, id string) (models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	address, ok := s.addresses[id]
	if !ok || address.AccountID != accountID {
		return models.Address{}, repository.ErrNotFound
	}
	return address, nil
}

func (s *AddressStore) List(_ context.Context, accountID string) ([]models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Address
	for _, id := range s.seq {
		if address, ok := s.addresses[id]; ok && address.AccountID == accountID {
			out = append(out, address)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

func (s *AddressStore) Update(_ context.Context, address models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.addresses[address.ID]
	if !ok || existing.AccountID != address.AccountID {
		return repository.ErrNotFound
	}
	s.addresses[address.ID] = address
	return nil
}

func (s *AddressStore) Delete(_ context.Context, accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.addresses[id]
	if !ok || existing.AccountID != accountID {
		return repository.ErrNotFound
	}
	delete(s.addresses, id)
	return nil
}

func (s *AddressStore) ClearDefault(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, address := range s.addresses {
		if address.AccountID == accountID && address.IsDefault {
			address.IsDefault = false
			s.addresses[id] = address
		}
	}
	return nil
}

// OrderStore places orders against the product and cart stores it was built
// with, so reservation and cart clearing share one critical section.
type OrderStore struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	seq      []string
	products *ProductStore
	carts    *CartStore
}

func NewOrderStore(products *ProductStore, carts *CartStore) *OrderStore {
	return &OrderStore{orders: map[string]models.Order{}, products: products, carts: carts}
}

func (s *OrderStore) Create(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken(order) {
		return repository.ErrDuplicate
	}
	s.insert(order)
	return nil
}

// Place checks every line before touching anything: on error the products,
// the cart and the order list are left as they were.
func (s *OrderStore) Place(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products.mu.Lock()
	defer s.products.mu.Unlock()
	s.carts.mu.Lock()
	defer s.carts.mu.Unlock()

	if s.taken(order) {
		return repository.ErrDuplicate
	}

	type key struct{ product, variant string }
	wanted := map[key]int{}
	for _, line := range order.Items {
		wanted[key{line.ProductID, line.VariantID}] += line.Quantity
	}
	for k, qty := range wanted {
		product, ok := s.products.products[k.product]
		idx := variantIndex(product, k.variant)
		if !ok || idx < 0 || product.Variants[idx].StockQuantity < qty {
			return &repository.StockError{ProductID: k.product, VariantID: k.variant}
		}
	}

	now := time.Now().UTC()
	for k, qty := range wanted {
		product := cloneProduct(s.products.products[k.product])
		product.Variants[variantIndex(product, k.variant)].StockQuantity -= qty
		product.UpdatedAt = now
		s.products.products[k.product] = product
	}
	if cart, ok := s.carts.carts[order.AccountID]; ok {
		cart.Items = []models.CartItem{}
		cart.Total = 0
		cart.UpdatedAt = now
		s.carts.carts[order.AccountID] = cart
	}
	s.insert(order)
	return nil
}

func (s *OrderStore) taken(order models.Order) bool {
	for _, existing := range s.orders {
		if existing.ID == order.ID || existing.Reference == order.Reference {
			return true
		}
	}
	return false
}

func (s *OrderStore) insert(order models.Order) {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	s.orders[order.ID] = order
	s.seq = append(s.seq, order.ID)
}

func variantIndex(product models.Product, variantID string) int {
	for i, v := range product.Variants {
		if v.ID == variantID {
			return i
		}
	}
	return -1
}

func (s *OrderStore) GetByID(_ context.Context, id string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return order, nil
}

func (s *OrderStore) ListByAccount(_ context.Context, accountID string) ([]models.Order, error) {
	return s.newestFirst(func(o models.Order) bool { return o.AccountID == accountID }), nil
}

func (s *OrderStore) List(_ context.Context, status models.OrderStatus, pageNum, limit int) ([]models.Order, int, error) {
	all := s.newestFirst(func(o models.Order) bool { return status == "" || o.Status == status })
	return page(all, pageNum, limit), len(all), nil
}

func (s *OrderStore) newestFirst(match func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for i := len(s.seq) - 1; i >= 0; i-- {
		if order := s.orders[s.seq[i]]; match(order) {
			out = append(out, order)
		}
	}
	return out
}

func (s *OrderStore) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || !order.Status.CanBecome(status) {
		return repository.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	return nil
}

func (s *OrderStore) CancelStale(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cancelled int64
	for id, order := range s.orders {
		if order.Status == models.OrderPending && order.CreatedAt.Before(before) {
			order.Status = models.OrderCancelled
			order.UpdatedAt = time.Now().UTC()
			s.orders[id] = order
			cancelled++
		}
	}
	return cancelled, nil
}
