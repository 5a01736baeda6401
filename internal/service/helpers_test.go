package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"koomia/api/internal/models"
	"koomia/api/internal/repository/memory"
	"koomia/api/internal/security"
	"koomia/api/internal/service"
)

type fixture struct {
	stores   service.Stores
	media    *memory.MediaStore
	outbox   *memory.Outbox
	events   *memory.OrderEvents
	tokens   *security.TokenService
	auth     *service.AuthService
	accounts *service.AccountService
	catalog  *service.CatalogService
	commerce *service.CommerceService
	blogs    *service.BlogService
}

func newFixture(t *testing.T, otpTTL time.Duration) *fixture {
	t.Helper()

	tokens, err := security.NewTokenService(security.TokenSettings{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      20 * time.Minute,
	})
	require.NoError(t, err)

	f := &fixture{
		stores: memory.NewStores(),
		media:  memory.NewMediaStore(),
		outbox: &memory.Outbox{},
		events: &memory.OrderEvents{},
		tokens: tokens,
	}
	log := zerolog.Nop()
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	uploads := service.NewUploadService(f.media, log)

	f.auth = service.NewAuthService(f.stores.Accounts, f.stores.Carts, tokens, hasher, f.outbox,
		service.AuthSettings{OTPTTL: otpTTL, PublicURL: "https://shop.example"}, log)
	f.accounts = service.NewAccountService(f.stores.Accounts, uploads, hasher, log)
	f.catalog = service.NewCatalogService(f.stores.Categories, f.stores.Products, f.stores.Reviews, f.stores.Blogs, uploads, log)
	f.commerce = service.NewCommerceService(f.stores, f.events, log)
	f.blogs = service.NewBlogService(f.stores.Blogs, f.stores.Categories, log)
	return f
}

func (f *fixture) signup(t *testing.T, email, mobile string) models.Account {
	t.Helper()
	account, err := f.auth.Signup(context.Background(), service.SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Mobile:    mobile,
		Password:  "Passw0rd!",
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) reload(t *testing.T, id string) models.Account {
	t.Helper()
	account, err := f.stores.Accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

// seedProduct creates a brand, a product category and a product with two
// color variants priced 1500 (stock 5) and 900 (stock 1).
func (f *fixture) seedProduct(t *testing.T) models.Product {
	t.Helper()
	ctx := context.Background()

	brand, err := f.catalog.CreateCategory(ctx, service.CategoryInput{Name: "Acme " + t.Name(), Type: models.CategoryBrand})
	require.NoError(t, err)
	category, err := f.catalog.CreateCategory(ctx, service.CategoryInput{Name: "Shoes " + t.Name(), Type: models.CategoryProduct})
	require.NoError(t, err)

	product, err := f.catalog.CreateProduct(ctx, service.ProductInput{
		Name:       "Runner",
		BrandID:    brand.ID,
		CategoryID: category.ID,
		Variants: []service.VariantInput{
			{Color: "red", StockQuantity: 5, Price: 1500},
			{Color: "blue", StockQuantity: 1, Price: 900},
		},
	})
	require.NoError(t, err)
	return product
}
