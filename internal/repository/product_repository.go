package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

const productColumns = `
	id, name, description, brand_id, category_id, variant_type, variants, images,
	is_new_arrival, created_at, updated_at
`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, product models.Product) error {
	const query = `
		INSERT INTO products (
			id, name, description, brand_id, category_id, variant_type, variants, images,
			is_new_arrival, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.BrandID,
		product.CategoryID,
		product.VariantType,
		nonNil(product.Variants),
		nonNil(product.Images),
		product.IsNewArrival,
	)
	return translate(err)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (models.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var product models.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(productFields(&product)...); err != nil {
		return models.Product{}, translate(err)
	}
	return product, nil
}

func (r *ProductRepository) GetMany(ctx context.Context, ids []string) ([]models.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(productFields(&product)...); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) List(ctx context.Context, page, limit int) ([]models.Product, int, error) {
	const query = `
		SELECT ` + productColumns + `, COUNT(*) OVER ()
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		products []models.Product
		total    int
	)
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(append(productFields(&product), &total)...); err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(products) == 0 {
		// OFFSET past the end yields no window row to read the total from.
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, product models.Product) error {
	const query = `
		UPDATE products SET
			name = $2,
			description = $3,
			brand_id = $4,
			category_id = $5,
			variant_type = $6,
			variants = $7,
			images = $8,
			is_new_arrival = $9,
			updated_at = NOW()
		WHERE id = $1
	`
	return affected(r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.BrandID,
		product.CategoryID,
		product.VariantType,
		nonNil(product.Variants),
		nonNil(product.Images),
		product.IsNewArrival,
	))
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id))
}

func (r *ProductRepository) CountByCategories(ctx context.Context, categoryIDs []string) (int, error) {
	const query = `SELECT COUNT(*) FROM products WHERE category_id = ANY($1) OR brand_id = ANY($1)`
	var count int
	if err := r.pool.QueryRow(ctx, query, categoryIDs).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func productFields(product *models.Product) []any {
	return []any{
		&product.ID,
		&product.Name,
		&product.Description,
		&product.BrandID,
		&product.CategoryID,
		&product.VariantType,
		&product.Variants,
		&product.Images,
		&product.IsNewArrival,
		&product.CreatedAt,
		&product.UpdatedAt,
	}
}

// nonNil keeps jsonb arrays as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

