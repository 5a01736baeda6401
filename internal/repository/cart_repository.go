package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) Get(ctx context.Context, accountID string) (models.Cart, error) {
	const query = `SELECT account_id, items, total, updated_at FROM carts WHERE account_id = $1`
	var cart models.Cart
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&cart.AccountID, &cart.Items, &cart.Total, &cart.UpdatedAt)
	if err != nil {
		return models.Cart{}, translate(err)
	}
	return cart, nil
}

// Save upserts the whole cart, items and recomputed total together.
func (r *CartRepository) Save(ctx context.Context, cart models.Cart) error {
	const query = `
		INSERT INTO carts (account_id, items, total, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET items = EXCLUDED.items, total = EXCLUDED.total, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, cart.AccountID, nonNil(cart.Items), cart.Total)
	return translate(err)
}

type WishlistRepository struct {
	pool *pgxpool.Pool
}

func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) Get(ctx context.Context, accountID string) (models.Wishlist, error) {
	const query = `SELECT account_id, product_ids FROM wishlists WHERE account_id = $1`
	var wishlist models.Wishlist
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&wishlist.AccountID, &wishlist.ProductIDs); err != nil {
		return models.Wishlist{}, translate(err)
	}
	return wishlist, nil
}

// Add appends productID unless it is already present.
func (r *WishlistRepository) Add(ctx context.Context, accountID, productID string) error {
	const query = `
		INSERT INTO wishlists (account_id, product_ids)
		VALUES ($1, jsonb_build_array($2::text))
		ON CONFLICT (account_id) DO UPDATE SET product_ids =
			CASE WHEN wishlists.product_ids ? $2::text
				THEN wishlists.product_ids
				ELSE wishlists.product_ids || jsonb_build_array($2::text)
			END
	`
	_, err := r.pool.Exec(ctx, query, accountID, productID)
	return translate(err)
}

func (r *WishlistRepository) Remove(ctx context.Context, accountID, productID string) error {
	const query = `UPDATE wishlists SET product_ids = product_ids - $2::text WHERE account_id = $1`
	_, err := r.pool.Exec(ctx, query, accountID, productID)
	return translate(err)
}
