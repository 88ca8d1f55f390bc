package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/validate"
)

// ThumbnailFolder is where blog thumbnails are uploaded.
const ThumbnailFolder = "images"

// BlogService lists, reads and creates blog posts.
type BlogService struct {
	api      BlogAPI
	uploader domain.FileUploader
	pageSize int
}

// NewBlogService creates a new BlogService. pageSize is the number of posts
// per listing page.
func NewBlogService(api BlogAPI, uploader domain.FileUploader, pageSize int) *BlogService {
	return &BlogService{api: api, uploader: uploader, pageSize: pageSize}
}

// PageSize returns the number of posts per listing page.
func (s *BlogService) PageSize() int { return s.pageSize }

// List fetches the listing page selected by q.
func (s *BlogService) List(ctx context.Context, creds domain.Credentials, q listing.Query) (*domain.BlogPage, error) {
	return s.api.ListBlogs(ctx, creds, domain.BlogListQuery{
		Page:   max(q.Page, 1),
		Take:   s.pageSize,
		Search: q.Search,
	})
}

// Fetcher returns a listing.Fetcher that lists with creds.
func (s *BlogService) Fetcher(creds domain.Credentials) listing.Fetcher {
	return func(ctx context.Context, q listing.Query) (*domain.BlogPage, error) {
		return s.List(ctx, creds, q)
	}
}

// Get fetches a post by slug.
func (s *BlogService) Get(ctx context.Context, creds domain.Credentials, slug string) (*domain.Blog, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, domain.ErrNotFound
	}
	return s.api.GetBlog(ctx, creds, slug)
}

// Create uploads the thumbnail and then creates the post. An uploaded
// thumbnail is not removed when creating the post fails.
func (s *BlogService) Create(ctx context.Context, store SessionStore, form validate.CreateBlogForm) (*domain.Blog, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if store.Current() == nil {
		return nil, domain.ErrNoSession
	}

	up, err := s.uploader.Upload(ctx, store, ThumbnailFolder, *form.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	blog, err := s.api.CreateBlog(ctx, store, domain.NewBlog{
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		Category:    form.Category,
		Author:      strings.TrimSpace(form.Author),
		Thumbnail:   up.URL,
		Content:     form.Content,
	})
	if err != nil {
		slog.Warn("blog creation failed after thumbnail upload", "path", up.Path, "error", err)
		return nil, err
	}
	return blog, nil
}
