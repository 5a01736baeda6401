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
	ErrBlogNotFound    = apperr.New(apperr.NotFound, "Blog not found.")
	ErrBlogCategory    = apperr.New(apperr.BadRequest, "Unknown blog category.")
	ErrInvalidReaction = apperr.New(apperr.BadRequest, "Reaction must be like or dislike.")
)

type BlogService struct {
	blogs      BlogStore
	categories CategoryStore
	log        zerolog.Logger
}

func NewBlogService(blogs BlogStore, categories CategoryStore, log zerolog.Logger) *BlogService {
	return &BlogService{blogs: blogs, categories: categories, log: log}
}

type BlogPage struct {
	CurrentPage int           `json:"currentPage"`
	Blogs       []models.Blog `json:"blogs"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
}

func (s *BlogService) List(ctx context.Context, paging Paging) (BlogPage, error) {
	paging = paging.normalize()
	blogs, total, err := s.blogs.List(ctx, paging.Page, paging.Limit)
	if err != nil {
		return BlogPage{}, err
	}
	if blogs == nil {
		blogs = []models.Blog{}
	}
	return BlogPage{
		CurrentPage: paging.Page,
		Blogs:       blogs,
		Total:       total,
		TotalPages:  totalPages(total, paging.Limit),
	}, nil
}

// View returns the post and counts the read.
func (s *BlogService) View(ctx context.Context, id string) (models.Blog, error) {
	blog, err := s.blogs.IncrementViews(ctx, id)
	if err != nil {
		return models.Blog{}, notFound(err, ErrBlogNotFound)
	}
	return blog, nil
}

type BlogInput struct {
	Title       string
	Description string
	CategoryID  string
	Image       string
}

func (s *BlogService) Create(ctx context.Context, author models.Account, input BlogInput) (models.Blog, error) {
	if err := s.requireBlogCategory(ctx, input.CategoryID); err != nil {
		return models.Blog{}, err
	}
	blog := models.Blog{
		ID:          ids.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		Image:       strings.TrimSpace(input.Image),
		Author:      strings.TrimSpace(author.FirstName + " " + author.LastName),
		Likes:       []string{},
		Dislikes:    []string{},
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return models.Blog{}, err
	}
	return s.get(ctx, blog.ID)
}

func (s *BlogService) Update(ctx context.Context, id string, input BlogInput) (models.Blog, error) {
	blog, err := s.get(ctx, id)
	if err != nil {
		return models.Blog{}, err
	}
	if input.CategoryID != "" && input.CategoryID != blog.CategoryID {
		if err := s.requireBlogCategory(ctx, input.CategoryID); err != nil {
			return models.Blog{}, err
		}
		blog.CategoryID = input.CategoryID
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		blog.Title = title
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		blog.Description = description
	}
	if image := strings.TrimSpace(input.Image); image != "" {
		blog.Image = image
	}
	if err := s.blogs.Update(ctx, blog); err != nil {
		return models.Blog{}, notFound(err, ErrBlogNotFound)
	}
	return s.get(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	return notFound(s.blogs.Delete(ctx, id), ErrBlogNotFound)
}

func (s *BlogService) React(ctx context.Context, accountID, id string, reaction models.Reaction) (models.Blog, error) {
	if reaction != models.ReactionLike && reaction != models.ReactionDislike {
		return models.Blog{}, ErrInvalidReaction
	}
	blog, err := s.get(ctx, id)
	if err != nil {
		return models.Blog{}, err
	}
	blog.React(accountID, reaction)
	if err := s.blogs.Update(ctx, blog); err != nil {
		return models.Blog{}, notFound(err, ErrBlogNotFound)
	}
	return blog, nil
}

func (s *BlogService) get(ctx context.Context, id string) (models.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return models.Blog{}, notFound(err, ErrBlogNotFound)
	}
	return blog, nil
}

func (s *BlogService) requireBlogCategory(ctx context.Context, id string) error {
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && category.Type != models.CategoryBlog) {
		return ErrBlogCategory
	}
	return err
}
