package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"koomia/api/internal/models"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, review models.Review) error {
	const query = `
		INSERT INTO reviews (id, product_id, account_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query, review.ID, review.ProductID, review.AccountID, review.Rating, review.Comment)
	return translate(err)
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	const query = `
		SELECT id, product_id, account_id, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.AccountID, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

const blogColumns = `
	id, title, description, category_id, image, author, view_count, likes, dislikes, created_at, updated_at
`

type BlogRepository struct {
	pool *pgxpool.Pool
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{pool: pool}
}

func (r *BlogRepository) Create(ctx context.Context, blog models.Blog) error {
	const query = `
		INSERT INTO blogs (
			id, title, description, category_id, image, author, view_count, likes, dislikes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, 0, $7, $8, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		blog.ID,
		blog.Title,
		blog.Description,
		blog.CategoryID,
		blog.Image,
		blog.Author,
		nonNil(blog.Likes),
		nonNil(blog.Dislikes),
	)
	return translate(err)
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (models.Blog, error) {
	const query = `SELECT ` + blogColumns + ` FROM blogs WHERE id = $1`
	var blog models.Blog
	if err := r.pool.QueryRow(ctx, query, id).Scan(blogFields(&blog)...); err != nil {
		return models.Blog{}, translate(err)
	}
	return blog, nil
}

func (r *BlogRepository) List(ctx context.Context, page, limit int) ([]models.Blog, int, error) {
	const query = `
		SELECT ` + blogColumns + `, COUNT(*) OVER ()
		FROM blogs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		blogs []models.Blog
		total int
	)
	for rows.Next() {
		var blog models.Blog
		if err := rows.Scan(append(blogFields(&blog), &total)...); err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, total, rows.Err()
}

func (r *BlogRepository) Update(ctx context.Context, blog models.Blog) error {
	const query = `
		UPDATE blogs SET
			title = $2,
			description = $3,
			category_id = $4,
			image = $5,
			author = $6,
			likes = $7,
			dislikes = $8,
			updated_at = NOW()
		WHERE id = $1
	`
	return affected(r.pool.Exec(ctx, query,
		blog.ID,
		blog.Title,
		blog.Description,
		blog.CategoryID,
		blog.Image,
		blog.Author,
		nonNil(blog.Likes),
		nonNil(blog.Dislikes),
	))
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id))
}

func (r *BlogRepository) CountByCategories(ctx context.Context, categoryIDs []string) (int, error) {
	const query = `SELECT COUNT(*) FROM blogs WHERE category_id = ANY($1)`
	var count int
	if err := r.pool.QueryRow(ctx, query, categoryIDs).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BlogRepository) IncrementViews(ctx context.Context, id string) (models.Blog, error) {
	const query = `
		UPDATE blogs SET view_count = view_count + 1
		WHERE id = $1
		RETURNING ` + blogColumns
	var blog models.Blog
	if err := r.pool.QueryRow(ctx, query, id).Scan(blogFields(&blog)...); err != nil {
		return models.Blog{}, translate(err)
	}
	return blog, nil
}

func blogFields(blog *models.Blog) []any {
	return []any{
		&blog.ID,
		&blog.Title,
		&blog.Description,
		&blog.CategoryID,
		&blog.Image,
		&blog.Author,
		&blog.ViewCount,
		&blog.Likes,
		&blog.Dislikes,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	}
}
