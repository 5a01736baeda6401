package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, category models.Category) error {
	const query = `INSERT INTO categories (id, name, type, parent_id) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Type, category.ParentID)
	return translate(err)
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (models.Category, error) {
	const query = `SELECT id, name, type, parent_id FROM categories WHERE id = $1`
	var category models.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&category.ID, &category.Name, &category.Type, &category.ParentID)
	if err != nil {
		return models.Category{}, translate(err)
	}
	return category, nil
}

// List returns every category, or only those of categoryType when it is set.
func (r *CategoryRepository) List(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error) {
	const query = `
		SELECT id, name, type, parent_id FROM categories
		WHERE $1 = '' OR type = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, string(categoryType))
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (r *CategoryRepository) ListChildren(ctx context.Context, parentID string) ([]models.Category, error) {
	const query = `SELECT id, name, type, parent_id FROM categories WHERE parent_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (r *CategoryRepository) Rename(ctx context.Context, id, name string) error {
	const query = `UPDATE categories SET name = $2 WHERE id = $1`
	return affected(r.pool.Exec(ctx, query, id, name))
}

func (r *CategoryRepository) DeleteMany(ctx context.Context, ids []string) error {
	const query = `DELETE FROM categories WHERE id = ANY($1)`
	return affected(r.pool.Exec(ctx, query, ids))
}

func collectCategories(rows pgx.Rows) ([]models.Category, error) {
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Type, &category.ParentID); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
