package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"koomia/api/internal/models"
	"koomia/api/internal/repository"
)

type ProductStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: map[string]models.Product{}}
}

func (s *ProductStore) Create(_ context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (s *ProductStore) GetByID(_ context.Context, id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return cloneProduct(product), nil
}

func (s *ProductStore) GetMany(_ context.Context, ids []string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, cloneProduct(product))
		}
	}
	return out, nil
}

func (s *ProductStore) List(_ context.Context, pageNum, limit int) ([]models.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.Product, 0, len(s.products))
	for _, product := range s.products {
		all = append(all, cloneProduct(product))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, pageNum, limit), len(all), nil
}

func (s *ProductStore) Update(_ context.Context, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *ProductStore) CountByCategories(_ context.Context, categoryIDs []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = struct{}{}
	}
	count := 0
	for _, product := range s.products {
		_, byCategory := wanted[product.CategoryID]
		_, byBrand := wanted[product.BrandID]
		if byCategory || byBrand {
			count++
		}
	}
	return count, nil
}

func cloneProduct(p models.Product) models.Product {
	p.Variants = append([]models.Variant(nil), p.Variants...)
	p.Images = append([]models.Media(nil), p.Images...)
	return p
}

type ReviewStore struct {
	mu      sync.RWMutex
	reviews []models.Review
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{}
}

func (s *ReviewStore) Create(_ context.Context, review models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.ProductID == review.ProductID && existing.AccountID == review.AccountID {
			return repository.ErrDuplicate
		}
	}
	review.CreatedAt = time.Now().UTC()
	s.reviews = append(s.reviews, review)
	return nil
}

func (s *ReviewStore) ListByProduct(_ context.Context, productID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if s.reviews[i].ProductID == productID {
			out = append(out, s.reviews[i])
		}
	}
	return out, nil
}

type BlogStore struct {
	mu    sync.RWMutex
	blogs map[string]models.Blog
	seq   []string
}

func NewBlogStore() *BlogStore {
	return &BlogStore{blogs: map[string]models.Blog{}}
}

func (s *BlogStore) CountByCategories(_ context.Context, categoryIDs []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	for _, blog := range s.blogs {
		for _, id := range categoryIDs {
			if blog.CategoryID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *BlogStore) Create(_ context.Context, blog models.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[blog.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	blog.CreatedAt, blog.UpdatedAt = now, now
	s.blogs[blog.ID] = cloneBlog(blog)
	s.seq = append(s.seq, blog.ID)
	return nil
}

func (s *BlogStore) GetByID(_ context.Context, id string) (models.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blog, ok := s.blogs[id]
	if !ok {
		return models.Blog{}, repository.ErrNotFound
	}
	return cloneBlog(blog), nil
}

func (s *BlogStore) List(_ context.Context, pageNum, limit int) ([]models.Blog, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Blog
	for i := len(s.seq) - 1; i >= 0; i-- {
		if blog, ok := s.blogs[s.seq[i]]; ok {
			all = append(all, cloneBlog(blog))
		}
	}
	return page(all, pageNum, limit), len(all), nil
}

func (s *BlogStore) Update(_ context.Context, blog models.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.blogs[blog.ID]
	if !ok {
		return repository.ErrNotFound
	}
	blog.ViewCount = existing.ViewCount
	blog.CreatedAt = existing.CreatedAt
	blog.UpdatedAt = time.Now().UTC()
	s.blogs[blog.ID] = cloneBlog(blog)
	return nil
}

func (s *BlogStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.blogs, id)
	return nil
}

func (s *BlogStore) IncrementViews(_ context.Context, id string) (models.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blog, ok := s.blogs[id]
	if !ok {
		return models.Blog{}, repository.ErrNotFound
	}
	blog.ViewCount++
	s.blogs[id] = blog
	return cloneBlog(blog), nil
}

func cloneBlog(b models.Blog) models.Blog {
	b.Likes = append([]string(nil), b.Likes...)
	b.Dislikes = append([]string(nil), b.Dislikes...)
	return b
}
