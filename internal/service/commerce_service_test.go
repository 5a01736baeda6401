package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/apperr"
	"koomia/api/internal/models"
	"koomia/api/internal/service"
)

func TestCartTotals(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	account := f.signup(t, "ada@x.com", "+100000")
	product := f.seedProduct(t)
	red, blue := product.Variants[0], product.Variants[1]

	cart, err := f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: red.ID, Quantity: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3000, cart.Total)

	cart, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: blue.ID, Quantity: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3900, cart.Total)

	cart, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: red.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "setting an existing variant replaces its quantity")
	assert.EqualValues(t, 2400, cart.Total)

	_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: blue.ID, Quantity: 2})
	assert.ErrorIs(t, err, service.ErrOutOfStock)
	_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, service.ErrVariantNotFound)
	_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: "nope", VariantID: red.ID, Quantity: 1})
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	cart, err = f.commerce.RemoveCartItem(ctx, account.ID, blue.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1500, cart.Total)
	_, err = f.commerce.RemoveCartItem(ctx, account.ID, blue.ID)
	assert.ErrorIs(t, err, service.ErrCartItemNotFound)

	cart, err = f.commerce.ClearCart(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
}

func TestWishlist(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	account := f.signup(t, "ada@x.com", "+100000")
	product := f.seedProduct(t)

	empty, err := f.commerce.Wishlist(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, f.commerce.AddToWishlist(ctx, account.ID, product.ID))
	require.NoError(t, f.commerce.AddToWishlist(ctx, account.ID, product.ID))
	assert.ErrorIs(t, f.commerce.AddToWishlist(ctx, account.ID, "missing"), service.ErrProductNotFound)

	items, err := f.commerce.Wishlist(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ID)

	require.NoError(t, f.commerce.RemoveFromWishlist(ctx, account.ID, product.ID))
	items, err = f.commerce.Wishlist(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddressesKeepOneDefault(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	account := f.signup(t, "ada@x.com", "+100000")

	home, err := f.commerce.CreateAddress(ctx, account.ID, models.Address{FirstName: "Ada", Address: "1 Main St", City: "Lagos"})
	require.NoError(t, err)
	assert.True(t, home.IsDefault, "first address becomes the default")

	work, err := f.commerce.CreateAddress(ctx, account.ID, models.Address{FirstName: "Ada", Address: "2 Work Rd", City: "Lagos", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, work.IsDefault)

	addresses, err := f.commerce.Addresses(ctx, account.ID)
	require.NoError(t, err)
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, work.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	other := f.signup(t, "bob@x.com", "+200000")
	assert.ErrorIs(t, f.commerce.DeleteAddress(ctx, other.ID, home.ID), service.ErrAddressNotFound)
	assert.NoError(t, f.commerce.DeleteAddress(ctx, account.ID, home.ID))
}

func TestCheckout(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	account := f.signup(t, "ada@x.com", "+100000")
	product := f.seedProduct(t)
	red := product.Variants[0]

	address, err := f.commerce.CreateAddress(ctx, account.ID, models.Address{FirstName: "Ada", Address: "1 Main St", City: "Lagos"})
	require.NoError(t, err)

	_, err = f.commerce.Checkout(ctx, account, address.ID)
	assert.ErrorIs(t, err, service.ErrCartEmpty)

	_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: red.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = f.commerce.Checkout(ctx, account, "missing")
	assert.ErrorIs(t, err, service.ErrAddressNotFound)

	order, err := f.commerce.Checkout(ctx, account, address.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.EqualValues(t, 4500, order.Total)
	assert.NotEmpty(t, order.Reference)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Runner (red)", order.Items[0].Name)

	stocked, err := f.catalog.Product(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stocked.Variants[0].StockQuantity)

	cart, err := f.commerce.Cart(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.Equal(t, "ada@x.com", events[0].Email)

	_, err = f.commerce.VerifyOrder(ctx, account.ID, order.ID)
	assert.ErrorIs(t, err, service.ErrPaymentPending)
	assert.Equal(t, 402, apperr.StatusOf(err))

	_, err = f.commerce.SetOrderStatus(ctx, order.ID, models.OrderPaid)
	require.NoError(t, err)
	verified, err := f.commerce.VerifyOrder(ctx, account.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, verified.Status)

	other := f.signup(t, "bob@x.com", "+200000")
	_, err = f.commerce.Order(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestCheckoutRejectsStockTakenMeanwhile(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	account := f.signup(t, "ada@x.com", "+100000")
	product := f.seedProduct(t)
	blue := product.Variants[1]

	address, err := f.commerce.CreateAddress(ctx, account.ID, models.Address{FirstName: "Ada", Address: "1 Main St", City: "Lagos"})
	require.NoError(t, err)
	_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: blue.ID, Quantity: 1})
	require.NoError(t, err)

	product.Variants[1].StockQuantity = 0
	require.NoError(t, f.stores.Products.Update(ctx, product))

	_, err = f.commerce.Checkout(ctx, account, address.ID)
	assert.ErrorIs(t, err, service.ErrOutOfStock)
	assert.Empty(t, f.events.Events())
}

// lockstepProducts makes the first two GetMany callers wait for each other,
// so both read stock before either reserves it.
type lockstepProducts struct {
	service.ProductStore
	mu      sync.Mutex
	callers int
	arrived sync.WaitGroup
}

func (p *lockstepProducts) GetMany(ctx context.Context, ids []string) ([]models.Product, error) {
	products, err := p.ProductStore.GetMany(ctx, ids)
	p.mu.Lock()
	p.callers++
	wait := p.callers <= 2
	p.mu.Unlock()
	if wait {
		p.arrived.Done()
		p.arrived.Wait()
	}
	return products, err
}

func TestConcurrentCheckoutsCannotOversell(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()
	product := f.seedProduct(t)
	blue := product.Variants[1]

	type buyer struct {
		account models.Account
		address string
	}
	var buyers []buyer
	for i, email := range []string{"ada@x.com", "bob@x.com"} {
		account := f.signup(t, email, fmt.Sprintf("+10000%d", i))
		address, err := f.commerce.CreateAddress(ctx, account.ID, models.Address{FirstName: "A", Address: "1 Main St", City: "Lagos"})
		require.NoError(t, err)
		_, err = f.commerce.SetCartItem(ctx, account.ID, models.CartItem{ProductID: product.ID, VariantID: blue.ID, Quantity: 1})
		require.NoError(t, err)
		buyers = append(buyers, buyer{account, address.ID})
	}

	stores := f.stores
	lockstep := &lockstepProducts{ProductStore: stores.Products}
	lockstep.arrived.Add(2)
	stores.Products = lockstep
	commerce := service.NewCommerceService(stores, f.events, zerolog.Nop())

	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, b := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = commerce.Checkout(ctx, b.account, b.address)
		}()
	}
	wg.Wait()

	var placed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, service.ErrOutOfStock):
			rejected++
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, rejected)

	stocked, err := f.catalog.Product(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stocked.Variants[1].StockQuantity)
	assert.Len(t, f.events.Events(), 1)
}

func TestAllOrdersAndStaleCancellation(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()

	_, err := f.commerce.AllOrders(ctx, "bogus", service.Paging{})
	assert.ErrorIs(t, err, service.ErrOrderStatus)

	old := models.Order{ID: "old", Reference: "R1", AccountID: "a", Status: models.OrderPending, Items: []models.OrderItem{}, CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, f.stores.Orders.Create(ctx, old))
	fresh := models.Order{ID: "fresh", Reference: "R2", AccountID: "a", Status: models.OrderPending, Items: []models.OrderItem{}}
	require.NoError(t, f.stores.Orders.Create(ctx, fresh))

	cancelled, err := f.commerce.CancelStaleOrders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cancelled)

	page, err := f.commerce.AllOrders(ctx, models.OrderCancelled, service.Paging{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "old", page.Orders[0].ID)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestOrderStatusLeavesClosedOrdersAlone(t *testing.T) {
	f := newFixture(t, 20*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.stores.Orders.Create(ctx, models.Order{ID: "o1", Reference: "R1", AccountID: "a", Status: models.OrderPending, Items: []models.OrderItem{}}))
	require.NoError(t, f.stores.Orders.Create(ctx, models.Order{ID: "o2", Reference: "R2", AccountID: "a", Status: models.OrderPending, Items: []models.OrderItem{}}))

	for _, status := range []models.OrderStatus{models.OrderPaid, models.OrderShipped, models.OrderDelivered, models.OrderDelivered} {
		order, err := f.commerce.SetOrderStatus(ctx, "o1", status)
		require.NoError(t, err)
		assert.Equal(t, status, order.Status)
	}
	_, err := f.commerce.SetOrderStatus(ctx, "o1", models.OrderPending)
	assert.ErrorIs(t, err, service.ErrOrderFinal)
	assert.Equal(t, 409, apperr.StatusOf(err))

	_, err = f.commerce.SetOrderStatus(ctx, "o2", models.OrderCancelled)
	require.NoError(t, err)
	_, err = f.commerce.SetOrderStatus(ctx, "o2", models.OrderPaid)
	assert.ErrorIs(t, err, service.ErrOrderFinal)

	_, err = f.commerce.SetOrderStatus(ctx, "missing", models.OrderPaid)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)

	closed, err := f.stores.Orders.GetByID(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, closed.Status)
}
