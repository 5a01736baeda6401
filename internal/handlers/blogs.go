package handlers

import (
	"github.com/gin-gonic/gin"

	"koomia/api/internal/middleware"
	"koomia/api/internal/models"
	"koomia/api/internal/response"
	"koomia/api/internal/service"
)

func (h HandlerSet) ListBlogs(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.blogs.List(c.Request.Context(), q.paging())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page, "")
}

func (h HandlerSet) Blog(c *gin.Context) {
	blog, err := h.blogs.View(c.Request.Context(), c.Param("blogId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blog, "")
}

type createBlogRequest struct {
	Title       string `json:"title" binding:"required,max=150"`
	Description string `json:"description" binding:"required"`
	CategoryID  string `json:"categoryId" binding:"required,entityid"`
	Image       string `json:"image" binding:"omitempty,url"`
}

func (h HandlerSet) CreateBlog(c *gin.Context, p middleware.Principal) {
	var req createBlogRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.Create(c.Request.Context(), p.Account, service.BlogInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blog, "Blog created.")
}

type updateBlogRequest struct {
	Title       string `json:"title" binding:"max=150"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId" binding:"omitempty,entityid"`
	Image       string `json:"image" binding:"omitempty,url"`
}

func (h HandlerSet) UpdateBlog(c *gin.Context) {
	var req updateBlogRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.blogs.Update(c.Request.Context(), c.Param("blogId"), service.BlogInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blog, "Blog updated.")
}

func (h HandlerSet) DeleteBlog(c *gin.Context) {
	if err := h.blogs.Delete(c.Request.Context(), c.Param("blogId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c, "Blog deleted.")
}

func (h HandlerSet) LikeBlog(c *gin.Context, p middleware.Principal) {
	h.react(c, p, models.ReactionLike)
}

func (h HandlerSet) DislikeBlog(c *gin.Context, p middleware.Principal) {
	h.react(c, p, models.ReactionDislike)
}

func (h HandlerSet) react(c *gin.Context, p middleware.Principal, reaction models.Reaction) {
	blog, err := h.blogs.React(c.Request.Context(), p.Account.ID, c.Param("blogId"), reaction)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blog, "")
}
