package service

import (
	"context"

	"github.com/msomdec/blogapp/internal/domain"
)

// SessionStore is the visitor session the services read and update.
// *session.Store implements it.
type SessionStore interface {
	domain.Credentials
	Current() *domain.User
	Login(ctx context.Context, user domain.User) error
	Logout(ctx context.Context, notify func(ctx context.Context) error)
	UpdateUser(ctx context.Context, patch domain.UserPatch) bool
}

// AuthAPI is the remote authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials, email, password string) (*domain.User, error)
	Register(ctx context.Context, creds domain.Credentials, name, email, password string) error
	GoogleLogin(ctx context.Context, creds domain.Credentials, providerToken string) (*domain.User, error)
	Logout(ctx context.Context, creds domain.Credentials) error
	ForgotPassword(ctx context.Context, creds domain.Credentials, email string) error
	ResetPassword(ctx context.Context, creds domain.Credentials, token, password string) error
}

// BlogAPI is the remote blog surface.
type BlogAPI interface {
	ListBlogs(ctx context.Context, creds domain.Credentials, q domain.BlogListQuery) (*domain.BlogPage, error)
	GetBlog(ctx context.Context, creds domain.Credentials, slug string) (*domain.Blog, error)
	CreateBlog(ctx context.Context, creds domain.Credentials, nb domain.NewBlog) (*domain.Blog, error)
}

// UserAPI is the remote user surface.
type UserAPI interface {
	GetUser(ctx context.Context, creds domain.Credentials, id int64) (domain.UserPatch, error)
	UpdatePhoto(ctx context.Context, creds domain.Credentials, photo domain.File) error
}
