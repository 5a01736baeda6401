package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
	"koomia/api/internal/models"
	"koomia/api/internal/queue"
	"koomia/api/internal/repository"
)

var (
	ErrAddressNotFound  = apperr.New(apperr.NotFound, "Address not found.")
	ErrCartItemNotFound = apperr.New(apperr.NotFound, "Item is not in the cart.")
	ErrCartEmpty        = apperr.New(apperr.Conflict, "Cart is empty.")
	ErrOutOfStock       = apperr.New(apperr.Conflict, "Requested quantity is not in stock.")
	ErrPaymentPending   = apperr.New(apperr.PaymentRequired, "Payment for this order is still pending.")
	ErrOrderCancelled   = apperr.New(apperr.BadRequest, "This order has been cancelled.")
	ErrOrderStatus      = apperr.New(apperr.BadRequest, "Invalid order status.")
	ErrOrderFinal       = apperr.New(apperr.Conflict, "This order is already closed and cannot change status.")
)

type CommerceService struct {
	products  ProductStore
	carts     CartStore
	wishlists WishlistStore
	addresses AddressStore
	orders    OrderStore
	publisher OrderPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewCommerceService(stores Stores, publisher OrderPublisher, log zerolog.Logger) *CommerceService {
	return &CommerceService{
		products:  stores.Products,
		carts:     stores.Carts,
		wishlists: stores.Wishlists,
		addresses: stores.Addresses,
		orders:    stores.Orders,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *CommerceService) Wishlist(ctx context.Context, accountID string) ([]models.ProductSummary, error) {
	wishlist, err := s.wishlists.Get(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.ProductSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetMany(ctx, wishlist.ProductIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.ProductSummary, 0, len(wishlist.ProductIDs))
	for _, id := range wishlist.ProductIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p.Summary())
		}
	}
	return out, nil
}

func (s *CommerceService) AddToWishlist(ctx context.Context, accountID, productID string) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return notFound(err, ErrProductNotFound)
	}
	return s.wishlists.Add(ctx, accountID, productID)
}

func (s *CommerceService) RemoveFromWishlist(ctx context.Context, accountID, productID string) error {
	return s.wishlists.Remove(ctx, accountID, productID)
}

func (s *CommerceService) Addresses(ctx context.Context, accountID string) ([]models.Address, error) {
	addresses, err := s.addresses.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	return addresses, nil
}

// CreateAddress makes the first address of an account its default.
func (s *CommerceService) CreateAddress(ctx context.Context, accountID string, address models.Address) (models.Address, error) {
	existing, err := s.addresses.List(ctx, accountID)
	if err != nil {
		return models.Address{}, err
	}

	address.ID = ids.New()
	address.AccountID = accountID
	if len(existing) == 0 {
		address.IsDefault = true
	}
	if address.IsDefault {
		if err := s.addresses.ClearDefault(ctx, accountID); err != nil {
			return models.Address{}, err
		}
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return models.Address{}, err
	}
	return address, nil
}

func (s *CommerceService) UpdateAddress(ctx context.Context, accountID, id string, address models.Address) (models.Address, error) {
	current, err := s.addresses.Get(ctx, accountID, id)
	if err != nil {
		return models.Address{}, notFound(err, ErrAddressNotFound)
	}

	address.ID = current.ID
	address.AccountID = accountID
	if current.IsDefault {
		address.IsDefault = true
	} else if address.IsDefault {
		if err := s.addresses.ClearDefault(ctx, accountID); err != nil {
			return models.Address{}, err
		}
	}
	if err := s.addresses.Update(ctx, address); err != nil {
		return models.Address{}, notFound(err, ErrAddressNotFound)
	}
	return address, nil
}

func (s *CommerceService) DeleteAddress(ctx context.Context, accountID, id string) error {
	return notFound(s.addresses.Delete(ctx, accountID, id), ErrAddressNotFound)
}

func (s *CommerceService) Cart(ctx context.Context, accountID string) (models.Cart, error) {
	cart, err := s.carts.Get(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Cart{AccountID: accountID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// SetCartItem adds the variant or replaces its quantity.
func (s *CommerceService) SetCartItem(ctx context.Context, accountID string, item models.CartItem) (models.Cart, error) {
	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return models.Cart{}, notFound(err, ErrProductNotFound)
	}
	variant, ok := product.Variant(item.VariantID)
	if !ok {
		return models.Cart{}, ErrVariantNotFound
	}
	if variant.StockQuantity < item.Quantity {
		return models.Cart{}, ErrOutOfStock
	}

	cart, err := s.Cart(ctx, accountID)
	if err != nil {
		return models.Cart{}, err
	}
	cart.Upsert(item)
	return s.saveCart(ctx, cart)
}

func (s *CommerceService) RemoveCartItem(ctx context.Context, accountID, variantID string) (models.Cart, error) {
	cart, err := s.Cart(ctx, accountID)
	if err != nil {
		return models.Cart{}, err
	}
	if !cart.Remove(variantID) {
		return models.Cart{}, ErrCartItemNotFound
	}
	return s.saveCart(ctx, cart)
}

func (s *CommerceService) ClearCart(ctx context.Context, accountID string) (models.Cart, error) {
	return s.saveCart(ctx, models.Cart{AccountID: accountID, Items: []models.CartItem{}})
}

// saveCart recomputes the total from current variant prices before persisting.
func (s *CommerceService) saveCart(ctx context.Context, cart models.Cart) (models.Cart, error) {
	variants, _, err := s.variantsFor(ctx, cart.Items)
	if err != nil {
		return models.Cart{}, err
	}
	cart.Total = models.CartTotal(cart.Items, variants)
	if err := s.carts.Save(ctx, cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (s *CommerceService) variantsFor(ctx context.Context, items []models.CartItem) (map[string]models.Variant, map[string]models.Product, error) {
	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.GetMany(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}

	variants := make(map[string]models.Variant)
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
		for _, v := range p.Variants {
			variants[v.ID] = v
		}
	}
	return variants, byID, nil
}

// Checkout turns the cart into a pending order. Stock reservation, the order
// insert and emptying the cart happen in the order store as one unit; the
// event goes out only once that has committed.
func (s *CommerceService) Checkout(ctx context.Context, account models.Account, addressID string) (models.Order, error) {
	if _, err := s.addresses.Get(ctx, account.ID, addressID); err != nil {
		return models.Order{}, notFound(err, ErrAddressNotFound)
	}

	cart, err := s.Cart(ctx, account.ID)
	if err != nil {
		return models.Order{}, err
	}
	if len(cart.Items) == 0 {
		return models.Order{}, ErrCartEmpty
	}

	_, products, err := s.variantsFor(ctx, cart.Items)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		ID:        ids.New(),
		AccountID: account.ID,
		AddressID: addressID,
		Status:    models.OrderPending,
	}
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		variant, found := product.Variant(item.VariantID)
		if !ok || !found || variant.StockQuantity < item.Quantity {
			return models.Order{}, outOfStock(itemName(product, item))
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID: product.ID,
			VariantID: variant.ID,
			Name:      lineName(product, variant),
			Quantity:  item.Quantity,
			UnitPrice: variant.Price,
		})
		order.Total += variant.Price * int64(item.Quantity)
	}

	order.Reference, err = ids.OrderReference()
	if err != nil {
		return models.Order{}, err
	}

	if err := s.orders.Place(ctx, order); err != nil {
		var short *repository.StockError
		if errors.As(err, &short) {
			return models.Order{}, outOfStock(itemName(products[short.ProductID], models.CartItem{VariantID: short.VariantID}))
		}
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	created, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return models.Order{}, err
	}
	s.publish(ctx, account, created)
	s.log.Info().Str("account_id", account.ID).Str("order_id", order.ID).Int64("total", order.Total).Msg("order placed")
	return created, nil
}

func outOfStock(name string) error {
	return apperr.Wrap(apperr.Conflict, fmt.Sprintf("%s is out of stock.", name), ErrOutOfStock)
}

func (s *CommerceService) publish(ctx context.Context, account models.Account, order models.Order) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishOrderPlaced(ctx, queue.OrderPlacedEvent{
		OrderID:   order.ID,
		Reference: order.Reference,
		AccountID: account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		Total:     order.Total,
		PlacedAt:  order.CreatedAt,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("publish order placed failed")
	}
}

func itemName(product models.Product, item models.CartItem) string {
	if product.Name != "" {
		return product.Name
	}
	return "Item " + item.VariantID
}

func lineName(product models.Product, variant models.Variant) string {
	label := strings.TrimSpace(variant.Color + variant.Size)
	if label == "" {
		return product.Name
	}
	return fmt.Sprintf("%s (%s)", product.Name, label)
}

func (s *CommerceService) Orders(ctx context.Context, accountID string) ([]models.Order, error) {
	orders, err := s.orders.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// Order hides orders of other accounts behind a 404.
func (s *CommerceService) Order(ctx context.Context, accountID, orderID string) (models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return models.Order{}, notFound(err, ErrOrderNotFound)
	}
	if order.AccountID != accountID {
		return models.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// VerifyOrder reports 402 until an administrator marks the order paid.
func (s *CommerceService) VerifyOrder(ctx context.Context, accountID, orderID string) (models.Order, error) {
	order, err := s.Order(ctx, accountID, orderID)
	if err != nil {
		return models.Order{}, err
	}
	switch order.Status {
	case models.OrderPending:
		return models.Order{}, ErrPaymentPending
	case models.OrderCancelled:
		return models.Order{}, ErrOrderCancelled
	}
	return order, nil
}

type OrderPage struct {
	CurrentPage int            `json:"currentPage"`
	Orders      []models.Order `json:"orders"`
	Total       int            `json:"total"`
	TotalPages  int            `json:"totalPages"`
}

func (s *CommerceService) AllOrders(ctx context.Context, status models.OrderStatus, paging Paging) (OrderPage, error) {
	if status != "" && !status.Valid() {
		return OrderPage{}, ErrOrderStatus
	}
	paging = paging.normalize()
	orders, total, err := s.orders.List(ctx, status, paging.Page, paging.Limit)
	if err != nil {
		return OrderPage{}, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return OrderPage{
		CurrentPage: paging.Page,
		Orders:      orders,
		Total:       total,
		TotalPages:  totalPages(total, paging.Limit),
	}, nil
}

func (s *CommerceService) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ErrOrderStatus
	}
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return models.Order{}, notFound(err, ErrOrderNotFound)
	}
	if !current.Status.CanBecome(status) {
		return models.Order{}, ErrOrderFinal
	}
	// The store re-checks, so a concurrent close is not overwritten; the order
	// exists, so a miss here means it was closed meanwhile.
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return models.Order{}, notFound(err, ErrOrderFinal)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	return order, notFound(err, ErrOrderNotFound)
}

// CancelStaleOrders cancels orders left pending for longer than age.
func (s *CommerceService) CancelStaleOrders(ctx context.Context, age time.Duration) (int64, error) {
	return s.orders.CancelStale(ctx, s.now().Add(-age))
}
