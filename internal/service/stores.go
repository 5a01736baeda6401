package service

import (
	"context"
	"io"
	"time"

	"koomia/api/internal/models"
)

// Store implementations report misses with repository.ErrNotFound and
// uniqueness violations with repository.ErrDuplicate.

// AccountStore has no whole-row update: every write names the fields it
// changes.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByMobile(ctx context.Context, mobile string) (models.Account, error)
	UpdateProfile(ctx context.Context, id string, profile models.Profile) error
	SetPassword(ctx context.Context, id string, hash []byte) error
	ConsumeReset(ctx context.Context, id, digest string, hash []byte) error
	SetResetDigest(ctx context.Context, id, digest string) error
	SetAvatar(ctx context.Context, id string, avatar *models.Media) error
	SetRefreshToken(ctx context.Context, id, token string) error
	SetOTP(ctx context.Context, id string, otp *models.OTP) error
	MarkVerified(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, role models.Role) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	List(ctx context.Context, role models.Role, page, limit int) ([]models.Account, int, error)
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category models.Category) error
	GetByID(ctx context.Context, id string) (models.Category, error)
	List(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Category, error)
	Rename(ctx context.Context, id, name string) error
	DeleteMany(ctx context.Context, ids []string) error
}

type ProductStore interface {
	Create(ctx context.Context, product models.Product) error
	GetByID(ctx context.Context, id string) (models.Product, error)
	GetMany(ctx context.Context, ids []string) ([]models.Product, error)
	List(ctx context.Context, page, limit int) ([]models.Product, int, error)
	Update(ctx context.Context, product models.Product) error
	Delete(ctx context.Context, id string) error
	CountByCategories(ctx context.Context, categoryIDs []string) (int, error)
}

type CartStore interface {
	Get(ctx context.Context, accountID string) (models.Cart, error)
	Save(ctx context.Context, cart models.Cart) error
}

type WishlistStore interface {
	Get(ctx context.Context, accountID string) (models.Wishlist, error)
	Add(ctx context.Context, accountID, productID string) error
	Remove(ctx context.Context, accountID, productID string) error
}

type AddressStore interface {
	Create(ctx context.Context, address models.Address) error
	Get(ctx context.Context, accountID, id string) (models.Address, error)
	List(ctx context.Context, accountID string) ([]models.Address, error)
	Update(ctx context.Context, address models.Address) error
	Delete(ctx context.Context, accountID, id string) error
	ClearDefault(ctx context.Context, accountID string) error
}

type OrderStore interface {
	Create(ctx context.Context, order models.Order) error
	// Place reserves stock, stores the order and empties the owner's cart as
	// one unit. A line short of stock fails with a *repository.StockError.
	Place(ctx context.Context, order models.Order) error
	GetByID(ctx context.Context, id string) (models.Order, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Order, error)
	List(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int, error)
	// UpdateStatus moves an order to status unless it sits in a different
	// terminal status, reporting ErrNotFound in that case.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	CancelStale(ctx context.Context, before time.Time) (int64, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review models.Review) error
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
}

type BlogStore interface {
	Create(ctx context.Context, blog models.Blog) error
	GetByID(ctx context.Context, id string) (models.Blog, error)
	List(ctx context.Context, page, limit int) ([]models.Blog, int, error)
	Update(ctx context.Context, blog models.Blog) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (models.Blog, error)
	CountByCategories(ctx context.Context, categoryIDs []string) (int, error)
}

// Stores groups every persistence dependency so wiring stays in one place.
type Stores struct {
	Accounts   AccountStore
	Categories CategoryStore
	Products   ProductStore
	Carts      CartStore
	Wishlists  WishlistStore
	Addresses  AddressStore
	Orders     OrderStore
	Reviews    ReviewStore
	Blogs      BlogStore
}

// MediaStore is the object storage used for avatars and product images.
type MediaStore interface {
	Put(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (models.Media, error)
	Remove(ctx context.Context, objectKey string) error
}
