package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/domain"
)

// Endpoint paths on the two backends.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathGoogle         = "/auth/google"
	PathLogout         = "/auth/logout"
	PathRefresh        = "/auth/refresh"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathBlogs          = "/blogs"
	PathFiles          = "/api/files"
	PathUsers          = "/users"
	PathUserPhoto      = "/users/photo"
)

// API groups the typed endpoint calls. Auth, blogs and password reset live on
// the primary backend; forgot-password, files and users on the legacy one.
type API struct {
	Primary *Client
	Legacy  *Client
}

// NewAPI returns an API backed by the given clients.
func NewAPI(primary, legacy *Client) *API {
	return &API{Primary: primary, Legacy: legacy}
}

// Login exchanges credentials for a session record.
func (a *API) Login(ctx context.Context, creds domain.Credentials, email, password string) (*domain.User, error) {
	var user domain.User
	err := a.Primary.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		JSON:   map[string]string{"email": email, "password": password},
	}, &user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &user, nil
}

// Register creates an account.
func (a *API) Register(ctx context.Context, creds domain.Credentials, name, email, password string) error {
	err := a.Primary.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathRegister,
		JSON:   map[string]string{"name": name, "email": email, "password": password},
	}, nil)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// GoogleLogin exchanges an OAuth provider access token for a session record.
func (a *API) GoogleLogin(ctx context.Context, creds domain.Credentials, providerToken string) (*domain.User, error) {
	var user domain.User
	err := a.Primary.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathGoogle,
		JSON:   map[string]string{"accessToken": providerToken},
	}, &user)
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	return &user, nil
}

// Logout tells the server to end the session.
func (a *API) Logout(ctx context.Context, creds domain.Credentials) error {
	if err := a.Primary.Do(ctx, creds, Request{Method: http.MethodPost, Path: PathLogout}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh rotates the session credential explicitly. Requests made through
// Do refresh on their own when the credential expires.
func (a *API) Refresh(ctx context.Context, creds domain.Credentials) error {
	if err := a.Primary.refreshCredentials(ctx, creds); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// ForgotPassword asks the server to email a reset link.
func (a *API) ForgotPassword(ctx context.Context, creds domain.Credentials, email string) error {
	err := a.Legacy.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathForgotPassword,
		JSON:   map[string]string{"email": email},
	}, nil)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using the single-use reset credential.
func (a *API) ResetPassword(ctx context.Context, creds domain.Credentials, token, password string) error {
	err := a.Primary.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathResetPassword,
		JSON:   map[string]string{"password": password},
		Bearer: token,
	}, nil)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// ListBlogs fetches one page of the blog listing.
func (a *API) ListBlogs(ctx context.Context, creds domain.Credentials, q domain.BlogListQuery) (*domain.BlogPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("take", strconv.Itoa(q.Take))
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var page domain.BlogPage
	err := a.Primary.Do(ctx, creds, Request{Method: http.MethodGet, Path: PathBlogs, Query: params}, &page)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	if page.Data == nil {
		page.Data = []domain.Blog{}
	}
	return &page, nil
}

// GetBlog fetches a post by slug.
func (a *API) GetBlog(ctx context.Context, creds domain.Credentials, slug string) (*domain.Blog, error) {
	var blog domain.Blog
	err := a.Primary.Do(ctx, creds, Request{Method: http.MethodGet, Path: PathBlogs + "/" + url.PathEscape(slug)}, &blog)
	if err != nil {
		return nil, fmt.Errorf("get blog %q: %w", slug, err)
	}
	return &blog, nil
}

// CreateBlog creates a post.
func (a *API) CreateBlog(ctx context.Context, creds domain.Credentials, nb domain.NewBlog) (*domain.Blog, error) {
	var blog domain.Blog
	err := a.Primary.Do(ctx, creds, Request{Method: http.MethodPost, Path: PathBlogs, JSON: nb}, &blog)
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	return &blog, nil
}

// GetUser fetches a user record, returning only the fields the server sent.
func (a *API) GetUser(ctx context.Context, creds domain.Credentials, id int64) (domain.UserPatch, error) {
	var patch domain.UserPatch
	err := a.Legacy.Do(ctx, creds, Request{Method: http.MethodGet, Path: PathUsers + "/" + strconv.FormatInt(id, 10)}, &patch)
	if err != nil {
		return domain.UserPatch{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return patch, nil
}

// UpdatePhoto uploads a new profile photo for the current user.
func (a *API) UpdatePhoto(ctx context.Context, creds domain.Credentials, photo domain.File) error {
	err := a.Legacy.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathUserPhoto,
		Form:   &Multipart{Field: "photo", File: photo},
	}, nil)
	if err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	return nil
}

// Uploader stores files through the legacy file endpoint.
type Uploader struct {
	client *Client
}

// NewUploader returns a domain.FileUploader that posts to client.
func NewUploader(client *Client) *Uploader {
	return &Uploader{client: client}
}

// Upload posts the file as multipart field "file" under a generated name.
func (u *Uploader) Upload(ctx context.Context, creds domain.Credentials, folder string, file domain.File) (*domain.Uploaded, error) {
	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
	var out domain.Uploaded
	err := u.client.Do(ctx, creds, Request{
		Method: http.MethodPost,
		Path:   PathFiles + "/" + url.PathEscape(folder) + "/" + name,
		Form:   &Multipart{Field: "file", File: file},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("upload file: response carried no file URL")
	}
	return &out, nil
}
