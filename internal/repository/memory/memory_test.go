package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/models"
	"koomia/api/internal/repository"
)

func TestAccountStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()

	require.NoError(t, store.Create(ctx, models.Account{ID: "a", Email: "Ada@X.com", Mobile: "+100000"}))
	assert.ErrorIs(t, store.Create(ctx, models.Account{ID: "b", Email: "ada@x.com", Mobile: "+200000"}), repository.ErrDuplicate)
	assert.ErrorIs(t, store.Create(ctx, models.Account{ID: "b", Email: "bob@x.com", Mobile: "+100000"}), repository.ErrDuplicate)

	found, err := store.FindByEmail(ctx, "ADA@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a", found.ID)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountStoreClearExpiredOTPs(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()
	now := time.Now()

	require.NoError(t, store.Create(ctx, models.Account{ID: "a", Email: "a@x.com", Mobile: "1000001", OTP: &models.OTP{Code: "1", ExpiresAt: now.Add(-time.Minute)}}))
	require.NoError(t, store.Create(ctx, models.Account{ID: "b", Email: "b@x.com", Mobile: "1000002", OTP: &models.OTP{Code: "2", ExpiresAt: now.Add(time.Minute)}}))

	cleared, err := store.ClearExpiredOTPs(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	a, _ := store.GetByID(ctx, "a")
	b, _ := store.GetByID(ctx, "b")
	assert.Nil(t, a.OTP)
	assert.NotNil(t, b.OTP)
}

func TestAccountStoreSettersTouchOnlyTheirFields(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()
	require.NoError(t, store.Create(ctx, models.Account{ID: "a", FirstName: "Ada", Email: "a@x.com", Mobile: "1000001", PasswordHash: []byte("old")}))
	require.NoError(t, store.Create(ctx, models.Account{ID: "b", Email: "b@x.com", Mobile: "1000002"}))

	snapshot, _ := store.GetByID(ctx, "a")
	require.NoError(t, store.SetBlocked(ctx, "a", true))
	require.NoError(t, store.SetPassword(ctx, "a", []byte("new")))
	require.NoError(t, store.MarkVerified(ctx, "a"))
	require.NoError(t, store.SetRefreshToken(ctx, "a", "rt"))

	profile := snapshot.Profile()
	profile.FirstName = "Augusta"
	require.NoError(t, store.UpdateProfile(ctx, "a", profile))

	a, _ := store.GetByID(ctx, "a")
	assert.Equal(t, "Augusta", a.FirstName)
	assert.True(t, a.IsBlocked)
	assert.True(t, a.IsVerified)
	assert.Equal(t, "rt", a.RefreshToken)
	assert.Equal(t, []byte("new"), a.PasswordHash)

	profile.Email = "b@x.com"
	assert.ErrorIs(t, store.UpdateProfile(ctx, "a", profile), repository.ErrDuplicate)

	profile.Email = "ada@new.com"
	require.NoError(t, store.UpdateProfile(ctx, "a", profile))
	a, _ = store.GetByID(ctx, "a")
	assert.False(t, a.IsVerified)
	assert.Empty(t, a.RefreshToken)

	assert.ErrorIs(t, store.SetRole(ctx, "missing", models.RoleAdmin), repository.ErrNotFound)
}

func TestAccountStoreConsumeReset(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()
	require.NoError(t, store.Create(ctx, models.Account{ID: "a", Email: "a@x.com", Mobile: "1000001", RefreshToken: "rt"}))

	assert.ErrorIs(t, store.ConsumeReset(ctx, "a", "", []byte("x")), repository.ErrNotFound)

	require.NoError(t, store.SetResetDigest(ctx, "a", "digest"))
	assert.ErrorIs(t, store.ConsumeReset(ctx, "a", "other", []byte("x")), repository.ErrNotFound)
	require.NoError(t, store.ConsumeReset(ctx, "a", "digest", []byte("new")))
	assert.ErrorIs(t, store.ConsumeReset(ctx, "a", "digest", []byte("again")), repository.ErrNotFound)

	a, _ := store.GetByID(ctx, "a")
	assert.Equal(t, []byte("new"), a.PasswordHash)
	assert.Empty(t, a.RefreshToken)
	assert.Empty(t, a.PasswordResetDigest)
}

func TestWishlistSetSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewWishlistStore()

	require.NoError(t, store.Add(ctx, "acc", "p1"))
	require.NoError(t, store.Add(ctx, "acc", "p1"))
	require.NoError(t, store.Add(ctx, "acc", "p2"))
	require.NoError(t, store.Remove(ctx, "acc", "p1"))

	wishlist, err := store.Get(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, wishlist.ProductIDs)
}

func TestOrderStoreCancelStale(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore(NewProductStore(), NewCartStore())
	old := time.Now().Add(-72 * time.Hour)

	require.NoError(t, store.Create(ctx, models.Order{ID: "o1", Reference: "1", Status: models.OrderPending, CreatedAt: old}))
	require.NoError(t, store.Create(ctx, models.Order{ID: "o2", Reference: "2", Status: models.OrderPending}))
	require.NoError(t, store.Create(ctx, models.Order{ID: "o3", Reference: "3", Status: models.OrderPaid, CreatedAt: old}))

	cancelled, err := store.CancelStale(ctx, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, cancelled)

	o1, _ := store.GetByID(ctx, "o1")
	o3, _ := store.GetByID(ctx, "o3")
	assert.Equal(t, models.OrderCancelled, o1.Status)
	assert.Equal(t, models.OrderPaid, o3.Status)
}

func TestOrderStorePlaceIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	products := NewProductStore()
	carts := NewCartStore()
	store := NewOrderStore(products, carts)

	require.NoError(t, products.Create(ctx, models.Product{ID: "p", Variants: []models.Variant{
		{ID: "red", StockQuantity: 2},
		{ID: "blue", StockQuantity: 1},
	}}))
	require.NoError(t, carts.Save(ctx, models.Cart{AccountID: "acc", Items: []models.CartItem{{ProductID: "p", VariantID: "red", Quantity: 2}}, Total: 10}))
	require.NoError(t, store.Create(ctx, models.Order{ID: "o0", Reference: "R0"}))

	stock := func() (int, int) {
		p, _ := products.GetByID(ctx, "p")
		return p.Variants[0].StockQuantity, p.Variants[1].StockQuantity
	}

	// Second line is short: the first must not be reserved either.
	err := store.Place(ctx, models.Order{ID: "o1", Reference: "R1", AccountID: "acc", Items: []models.OrderItem{
		{ProductID: "p", VariantID: "red", Quantity: 2},
		{ProductID: "p", VariantID: "blue", Quantity: 2},
	}})
	var short *repository.StockError
	require.ErrorAs(t, err, &short)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, "blue", short.VariantID)
	red, blue := stock()
	assert.Equal(t, 2, red)
	assert.Equal(t, 1, blue)

	// Reference clash after stock would have been fine.
	err = store.Place(ctx, models.Order{ID: "o2", Reference: "R0", AccountID: "acc", Items: []models.OrderItem{
		{ProductID: "p", VariantID: "red", Quantity: 1},
	}})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	red, _ = stock()
	assert.Equal(t, 2, red)
	cart, _ := carts.Get(ctx, "acc")
	assert.Len(t, cart.Items, 1)

	require.NoError(t, store.Place(ctx, models.Order{ID: "o3", Reference: "R3", AccountID: "acc", Items: []models.OrderItem{
		{ProductID: "p", VariantID: "red", Quantity: 2},
	}}))
	red, _ = stock()
	assert.Equal(t, 0, red)
	cart, _ = carts.Get(ctx, "acc")
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
	_, err = store.GetByID(ctx, "o3")
	assert.NoError(t, err)
	_, err = store.GetByID(ctx, "o1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, page(items, 1, 2))
	assert.Equal(t, []int{5}, page(items, 3, 2))
	assert.Nil(t, page(items, 4, 2))
}
