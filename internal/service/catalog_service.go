package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
	"koomia/api/internal/models"
	"koomia/api/internal/repository"
)

var (
	ErrCategoryNotFound   = apperr.New(apperr.NotFound, "Category not found.")
	ErrParentNotFound     = apperr.New(apperr.NotFound, "Parent category not found.")
	ErrCategoryExists     = apperr.New(apperr.Conflict, "A category with this name already exists.")
	ErrCategoryInUse      = apperr.New(apperr.Conflict, "Category is used by existing products or blogs.")
	ErrCategoryType       = apperr.New(apperr.BadRequest, "Invalid category type.")
	ErrParentTypeMismatch = apperr.New(apperr.BadRequest, "A sub-category must have the same type as its parent.")
	ErrVariantNotFound    = apperr.New(apperr.NotFound, "Variant not found.")
	ErrVariantShape       = apperr.New(apperr.BadRequest, "Variants must all be described by color or all by size.")
	ErrLastVariant        = apperr.New(apperr.BadRequest, "A product needs at least one variant.")
	ErrAlreadyReviewed    = apperr.New(apperr.Conflict, "You have already reviewed this product.")
)

type CatalogService struct {
	categories CategoryStore
	products   ProductStore
	reviews    ReviewStore
	blogs      BlogStore
	uploads    *UploadService
	log        zerolog.Logger
}

func NewCatalogService(categories CategoryStore, products ProductStore, reviews ReviewStore, blogs BlogStore, uploads *UploadService, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		reviews:    reviews,
		blogs:      blogs,
		uploads:    uploads,
		log:        log,
	}
}

func (s *CatalogService) CategoryTree(ctx context.Context, categoryType models.CategoryType) ([]models.CategoryNode, error) {
	if categoryType != "" && !categoryType.Valid() {
		return nil, ErrCategoryType
	}
	categories, err := s.categories.List(ctx, categoryType)
	if err != nil {
		return nil, err
	}
	return models.BuildCategoryTree(categories), nil
}

// Category returns the category with its direct and nested children.
func (s *CatalogService) Category(ctx context.Context, id string) (models.CategoryNode, error) {
	root, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return models.CategoryNode{}, notFound(err, ErrCategoryNotFound)
	}
	descendants, err := s.descendants(ctx, id)
	if err != nil {
		return models.CategoryNode{}, err
	}
	tree := models.BuildCategoryTree(append([]models.Category{root}, descendants...))
	return tree[0], nil
}

type CategoryInput struct {
	Name     string
	Type     models.CategoryType
	ParentID *string
}

func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (models.Category, error) {
	category := models.Category{
		ID:   ids.New(),
		Name: strings.TrimSpace(input.Name),
		Type: input.Type,
	}

	if input.ParentID != nil && *input.ParentID != "" {
		parent, err := s.categories.GetByID(ctx, *input.ParentID)
		if err != nil {
			return models.Category{}, notFound(err, ErrParentNotFound)
		}
		if category.Type == "" {
			category.Type = parent.Type
		}
		if category.Type != parent.Type {
			return models.Category{}, ErrParentTypeMismatch
		}
		category.ParentID = &parent.ID
	}
	if !category.Type.Valid() {
		return models.Category{}, ErrCategoryType
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Category{}, ErrCategoryExists
		}
		return models.Category{}, err
	}
	return category, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) (models.Category, error) {
	if err := s.categories.Rename(ctx, id, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Category{}, ErrCategoryExists
		}
		return models.Category{}, notFound(err, ErrCategoryNotFound)
	}
	category, err := s.categories.GetByID(ctx, id)
	return category, notFound(err, ErrCategoryNotFound)
}

// DeleteCategory removes the category and its whole subtree, refusing when
// any product still points into it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) (int, error) {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return 0, notFound(err, ErrCategoryNotFound)
	}
	descendants, err := s.descendants(ctx, id)
	if err != nil {
		return 0, err
	}

	subtree := []string{id}
	for _, c := range descendants {
		subtree = append(subtree, c.ID)
	}

	products, err := s.products.CountByCategories(ctx, subtree)
	if err != nil {
		return 0, err
	}
	blogs, err := s.blogs.CountByCategories(ctx, subtree)
	if err != nil {
		return 0, err
	}
	if products+blogs > 0 {
		return 0, ErrCategoryInUse
	}

	// A reference added after the counts still trips the foreign key.
	if err := s.categories.DeleteMany(ctx, subtree); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return 0, ErrCategoryInUse
		}
		return 0, notFound(err, ErrCategoryNotFound)
	}
	s.log.Info().Str("category_id", id).Int("deleted", len(subtree)).Msg("category subtree deleted")
	return len(subtree), nil
}

func (s *CatalogService) descendants(ctx context.Context, id string) ([]models.Category, error) {
	var (
		out   []models.Category
		queue = []string{id}
		seen  = map[string]struct{}{id: {}}
	)
	for len(queue) > 0 {
		children, err := s.categories.ListChildren(ctx, queue[0])
		if err != nil {
			return nil, err
		}
		queue = queue[1:]
		for _, child := range children {
			if _, dup := seen[child.ID]; dup {
				continue
			}
			seen[child.ID] = struct{}{}
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

type ProductPage struct {
	CurrentPage int                     `json:"currentPage"`
	Products    []models.ProductSummary `json:"products"`
	Total       int                     `json:"total"`
	TotalPages  int                     `json:"totalPages"`
}

func (s *CatalogService) ListProducts(ctx context.Context, paging Paging) (ProductPage, error) {
	paging = paging.normalize()
	products, total, err := s.products.List(ctx, paging.Page, paging.Limit)
	if err != nil {
		return ProductPage{}, err
	}

	summaries := make([]models.ProductSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, p.Summary())
	}
	return ProductPage{
		CurrentPage: paging.Page,
		Products:    summaries,
		Total:       total,
		TotalPages:  totalPages(total, paging.Limit),
	}, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

type VariantInput struct {
	Color         string
	Size          string
	StockQuantity int
	Price         int64
}

type ProductInput struct {
	Name        string
	Description string
	BrandID     string
	CategoryID  string
	Variants    []VariantInput
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (models.Product, error) {
	if err := s.requireCategory(ctx, input.BrandID, models.CategoryBrand); err != nil {
		return models.Product{}, err
	}
	if err := s.requireCategory(ctx, input.CategoryID, models.CategoryProduct); err != nil {
		return models.Product{}, err
	}

	variantType, err := variantTypeOf(input.Variants)
	if err != nil {
		return models.Product{}, err
	}

	product := models.Product{
		ID:           ids.New(),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		BrandID:      input.BrandID,
		CategoryID:   input.CategoryID,
		VariantType:  variantType,
		Images:       []models.Media{},
		IsNewArrival: true,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, newVariant(v))
	}

	if err := s.products.Create(ctx, product); err != nil {
		return models.Product{}, err
	}
	return s.Product(ctx, product.ID)
}

func (s *CatalogService) requireCategory(ctx context.Context, id string, categoryType models.CategoryType) error {
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && category.Type != categoryType) {
		return apperr.Newf(apperr.BadRequest, "Unknown %s category.", categoryType)
	}
	return err
}

func variantTypeOf(variants []VariantInput) (models.VariantType, error) {
	if len(variants) == 0 {
		return "", ErrLastVariant
	}
	var colors, sizes int
	for _, v := range variants {
		hasColor, hasSize := strings.TrimSpace(v.Color) != "", strings.TrimSpace(v.Size) != ""
		switch {
		case hasColor && !hasSize:
			colors++
		case hasSize && !hasColor:
			sizes++
		default:
			return "", ErrVariantShape
		}
	}
	switch {
	case colors == len(variants):
		return models.VariantColor, nil
	case sizes == len(variants):
		return models.VariantSize, nil
	}
	return "", ErrVariantShape
}

func newVariant(v VariantInput) models.Variant {
	return models.Variant{
		ID:            ids.New(),
		Color:         strings.TrimSpace(v.Color),
		Size:          strings.TrimSpace(v.Size),
		StockQuantity: v.StockQuantity,
		Price:         v.Price,
	}
}

type ProductUpdate struct {
	Name         *string
	Description  *string
	IsNewArrival *bool
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input ProductUpdate) (models.Product, error) {
	product, err := s.Product(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsNewArrival != nil {
		product.IsNewArrival = *input.IsNewArrival
	}
	if err := s.products.Update(ctx, product); err != nil {
		return models.Product{}, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.Product(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound)
	}
	for i := range product.Images {
		s.uploads.Discard(ctx, &product.Images[i])
	}
	return nil
}

// AddVariant appends a variant that must match the product's variant type.
func (s *CatalogService) AddVariant(ctx context.Context, productID string, input VariantInput) (models.Product, error) {
	product, err := s.Product(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	variantType, err := variantTypeOf([]VariantInput{input})
	if err != nil {
		return models.Product{}, err
	}
	if variantType != product.VariantType {
		return models.Product{}, ErrVariantShape
	}

	product.Variants = append(product.Variants, newVariant(input))
	if err := s.products.Update(ctx, product); err != nil {
		return models.Product{}, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *CatalogService) RemoveVariant(ctx context.Context, productID, variantID string) (models.Product, error) {
	product, err := s.Product(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	if _, ok := product.Variant(variantID); !ok {
		return models.Product{}, ErrVariantNotFound
	}
	if len(product.Variants) == 1 {
		return models.Product{}, ErrLastVariant
	}

	kept := make([]models.Variant, 0, len(product.Variants)-1)
	for _, v := range product.Variants {
		if v.ID != variantID {
			kept = append(kept, v)
		}
	}
	product.Variants = kept
	if err := s.products.Update(ctx, product); err != nil {
		return models.Product{}, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *CatalogService) AddImages(ctx context.Context, productID string, uploads []UploadInput) (models.Product, error) {
	product, err := s.Product(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	if len(uploads) == 0 {
		return models.Product{}, ErrEmptyFile
	}

	stored := make([]models.Media, 0, len(uploads))
	discard := func() {
		for i := range stored {
			s.uploads.Discard(ctx, &stored[i])
		}
	}
	for _, upload := range uploads {
		media, err := s.uploads.Store(ctx, "products/"+product.ID, upload)
		if err != nil {
			discard()
			return models.Product{}, err
		}
		stored = append(stored, media)
	}

	product.Images = append(product.Images, stored...)
	if err := s.products.Update(ctx, product); err != nil {
		discard()
		return models.Product{}, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *CatalogService) Reviews(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.Product(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (s *CatalogService) AddReview(ctx context.Context, accountID, productID string, rating int, comment string) (models.Review, error) {
	if _, err := s.Product(ctx, productID); err != nil {
		return models.Review{}, err
	}
	review := models.Review{
		ID:        ids.New(),
		ProductID: productID,
		AccountID: accountID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Review{}, ErrAlreadyReviewed
		}
		return models.Review{}, err
	}
	return review, nil
}
