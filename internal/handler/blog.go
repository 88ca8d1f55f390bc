package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/validate"
	"github.com/msomdec/blogapp/internal/view"
)

// BlogHandler serves the listing, post and new-post pages.
type BlogHandler struct {
	pages
	blogs    *service.BlogService
	views    *listing.Registry
	debounce []listing.Option
}

// NewBlogHandler creates a new BlogHandler. Listing controllers for rendered
// home pages are kept in views.
func NewBlogHandler(blogs *service.BlogService, views *listing.Registry, googleEnabled bool, opts ...listing.Option) *BlogHandler {
	return &BlogHandler{
		pages:    pages{googleEnabled: googleEnabled},
		blogs:    blogs,
		views:    views,
		debounce: opts,
	}
}

// HandleHome renders the listing selected by the page and search URL
// parameters. A page past the end redirects to the last page. The live view
// for the page is registered when its stream first connects.
func (h *BlogHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	q := listing.ParseQuery(r.URL.Query())

	c := listing.NewController(h.blogs.Fetcher(store), q, h.debounce...)
	defer c.Close()
	c.Start()
	c.Wait()

	res, _ := c.Latest()
	if res.Err != nil {
		slog.Error("list blogs", "page", q.Page, "search", q.Search, "error", res.Err)
	}
	if res.Query != q {
		http.Redirect(w, r, res.Query.URL(), http.StatusSeeOther)
		return
	}

	id := uuid.NewString()
	render(w, r, http.StatusOK, view.HomePage(view.Home{
		Layout:      h.layout(w, r),
		ViewID:      id,
		StreamQuery: streamQuery(res.Query, time.Now()),
		Query:       res.Query,
		Result:      res,
		Pagination: view.Pagination{
			Pager:  res.Pager(),
			Query:  res.Query,
			ViewID: id,
		},
	}))
}

// HandleBlog renders one post.
func (h *BlogHandler) HandleBlog(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())

	blog, err := h.blogs.Get(r.Context(), store, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			render(w, r, http.StatusNotFound, view.NotFoundPage(h.layout(w, r)))
			return
		}
		slog.Error("get blog", "slug", r.PathValue("slug"), "error", err)
		render(w, r, http.StatusBadGateway, view.ErrorPage(h.layout(w, r), "The post could not be loaded. Please try again."))
		return
	}
	render(w, r, http.StatusOK, view.BlogPage(h.layout(w, r), *blog))
}

// HandleCreatePage renders the new-post form with the author prefilled.
func (h *BlogHandler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if user := UserFromContext(r.Context()); user != nil {
		values = map[string]string{"author": user.Name}
	}
	render(w, r, http.StatusOK, view.CreateBlogPage(h.layout(w, r), view.Form{Values: values}))
}

// HandleCreate uploads the thumbnail, creates the post and sends the
// visitor home.
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())

	var form validate.CreateBlogForm
	err := parseUpload(w, r, "thumbnail")
	if err == nil {
		form = validate.CreateBlogForm{
			Title:       strings.TrimSpace(r.PostFormValue("title")),
			Description: strings.TrimSpace(r.PostFormValue("description")),
			Category:    r.PostFormValue("category"),
			Author:      strings.TrimSpace(r.PostFormValue("author")),
			Content:     r.PostFormValue("content"),
		}
		form.Thumbnail, err = formFile(r, "thumbnail")
	}
	if err == nil {
		err = guard(store, "create-blog", func() error {
			_, err := h.blogs.Create(r.Context(), store, form)
			return err
		})
	}

	if errors.Is(err, domain.ErrNoSession) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		f, status := formFailure(map[string]string{
			"title":       form.Title,
			"description": form.Description,
			"category":    form.Category,
			"author":      form.Author,
			"content":     form.Content,
		}, err)
		render(w, r, status, view.CreateBlogPage(h.layout(w, r), f))
		return
	}

	setFlash(w, view.FlashSuccess, "Blog created successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
