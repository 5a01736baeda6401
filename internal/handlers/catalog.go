package handlers

import (
	"github.com/gin-gonic/gin"

	"koomia/api/internal/middleware"
	"koomia/api/internal/models"
	"koomia/api/internal/response"
	"koomia/api/internal/service"
)

type categoryQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=product blog brand"`
}

func (h HandlerSet) CategoryTree(c *gin.Context) {
	var q categoryQuery
	if !bindQuery(c, &q) {
		return
	}

	tree, err := h.catalog.CategoryTree(c.Request.Context(), models.CategoryType(q.Type))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tree, "")
}

func (h HandlerSet) Category(c *gin.Context) {
	node, err := h.catalog.Category(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, node, "")
}

type createCategoryRequest struct {
	Name     string  `json:"name" binding:"required,max=50"`
	Type     string  `json:"type" binding:"omitempty,oneof=product blog brand"`
	ParentID *string `json:"parentId" binding:"omitempty,entityid"`
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), service.CategoryInput{
		Name:     req.Name,
		Type:     models.CategoryType(req.Type),
		ParentID: req.ParentID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category, "Category created.")
}

type renameCategoryRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func (h HandlerSet) RenameCategory(c *gin.Context) {
	var req renameCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.RenameCategory(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, category, "Category renamed.")
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	if _, err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c, "Category deleted.")
}

func (h HandlerSet) ListProducts(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), q.paging())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page, "")
}

func (h HandlerSet) Product(c *gin.Context) {
	product, err := h.catalog.Product(c.Request.Context(), c.Param("productId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, product, "")
}

type variantRequest struct {
	Color         string `json:"color" binding:"max=30"`
	Size          string `json:"size" binding:"max=30"`
	StockQuantity int    `json:"stockQuantity" binding:"min=0"`
	Price         int64  `json:"price" binding:"required,min=1"`
}

func (r variantRequest) input() service.VariantInput {
	return service.VariantInput{
		Color:         r.Color,
		Size:          r.Size,
		StockQuantity: r.StockQuantity,
		Price:         r.Price,
	}
}

type createProductRequest struct {
	Name        string           `json:"name" binding:"required,max=120"`
	Description string           `json:"description" binding:"max=5000"`
	BrandID     string           `json:"brandId" binding:"required,entityid"`
	CategoryID  string           `json:"categoryId" binding:"required,entityid"`
	Variants    []variantRequest `json:"variants" binding:"required,min=1,dive"`
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
	}
	for _, v := range req.Variants {
		input.Variants = append(input.Variants, v.input())
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product, "Product created.")
}

type updateProductRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description  *string `json:"description" binding:"omitempty,max=5000"`
	IsNewArrival *bool   `json:"isNewArrival"`
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("productId"), service.ProductUpdate{
		Name:         req.Name,
		Description:  req.Description,
		IsNewArrival: req.IsNewArrival,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, product, "Product updated.")
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("productId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c, "Product deleted.")
}

func (h HandlerSet) AddVariant(c *gin.Context) {
	var req variantRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.AddVariant(c.Request.Context(), c.Param("productId"), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product, "Variant added.")
}

func (h HandlerSet) RemoveVariant(c *gin.Context) {
	product, err := h.catalog.RemoveVariant(c.Request.Context(), c.Param("productId"), c.Param("variantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, product, "Variant removed.")
}

func (h HandlerSet) AddImages(c *gin.Context) {
	uploads, closeAll, err := formUploads(c, "images", maxImagesPerRequest)
	defer closeAll()
	if err != nil {
		response.Error(c, err)
		return
	}

	product, err := h.catalog.AddImages(c.Request.Context(), c.Param("productId"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product, "Images uploaded.")
}

func (h HandlerSet) Reviews(c *gin.Context) {
	reviews, err := h.catalog.Reviews(c.Request.Context(), c.Param("productId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reviews, "")
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required,max=1000"`
}

func (h HandlerSet) AddReview(c *gin.Context, p middleware.Principal) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.catalog.AddReview(c.Request.Context(), p.Account.ID, c.Param("productId"), req.Rating, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review, "Review added.")
}

func (h HandlerSet) AddToWishlist(c *gin.Context, p middleware.Principal) {
	if err := h.commerce.AddToWishlist(c.Request.Context(), p.Account.ID, c.Param("productId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Added to wishlist.")
}

func (h HandlerSet) RemoveFromWishlist(c *gin.Context, p middleware.Principal) {
	if err := h.commerce.RemoveFromWishlist(c.Request.Context(), p.Account.ID, c.Param("productId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Removed from wishlist.")
}
