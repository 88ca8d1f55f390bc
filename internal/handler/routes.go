package handler

import (
	"net/http"

	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/session"
)

// Options tunes the routes.
type Options struct {
	// CookieSecure marks the visitor and OAuth cookies Secure.
	CookieSecure bool
	// OAuth enables Google sign-in when set.
	OAuth *service.GoogleOAuth
	// Limiter throttles auth form POSTs per client IP when set.
	Limiter *service.TokenBucket
	// Listing configures the live listing controllers.
	Listing []listing.Option
	// Files serves locally stored uploads under /files/ when set.
	Files FileSource
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	sessions *session.Manager,
	auth *service.AuthService,
	blogs *service.BlogService,
	profile *service.ProfileService,
	views *listing.Registry,
	opts Options,
) {
	google := opts.OAuth != nil
	authH := NewAuthHandler(auth, opts.OAuth, opts.CookieSecure)
	blogH := NewBlogHandler(blogs, views, google, opts.Listing...)
	profileH := NewProfileHandler(profile, google)

	visitor := func(h http.Handler) http.Handler {
		return WithSession(sessions, opts.CookieSecure, h)
	}
	guest := func(fn http.HandlerFunc) http.Handler {
		return visitor(RedirectIfAuthenticated(fn))
	}
	member := func(fn http.HandlerFunc) http.Handler {
		return visitor(RequireAuth(fn))
	}
	limited := func(h http.Handler) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return RateLimit(opts.Limiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if opts.Files != nil {
		mux.HandleFunc("GET /files/{key...}", NewFileHandler(opts.Files).HandleServe)
	}

	mux.Handle("GET /{$}", visitor(http.HandlerFunc(blogH.HandleHome)))
	mux.Handle("GET /blogs/{slug}", visitor(http.HandlerFunc(blogH.HandleBlog)))
	mux.Handle("GET /views/{id}/stream", visitor(http.HandlerFunc(blogH.HandleViewStream)))
	mux.Handle("POST /views/{id}/input", visitor(http.HandlerFunc(blogH.HandleViewInput)))
	mux.Handle("POST /views/{id}/page", visitor(http.HandlerFunc(blogH.HandleViewPage)))

	mux.Handle("GET /create", member(blogH.HandleCreatePage))
	mux.Handle("POST /create", member(blogH.HandleCreate))
	mux.Handle("GET /profile", member(profileH.HandleProfilePage))
	mux.Handle("POST /profile", member(profileH.HandleUploadPhoto))
	mux.Handle("POST /profile/reset-password", limited(member(profileH.HandleSendResetLink)))

	mux.Handle("GET /login", guest(authH.HandleLoginPage))
	mux.Handle("POST /login", limited(guest(authH.HandleLogin)))
	mux.Handle("GET /register", guest(authH.HandleRegisterPage))
	mux.Handle("POST /register", limited(guest(authH.HandleRegister)))
	mux.Handle("GET /auth/google", guest(authH.HandleGoogleStart))
	mux.Handle("GET /auth/google/callback", guest(authH.HandleGoogleCallback))
	mux.Handle("POST /logout", visitor(http.HandlerFunc(authH.HandleLogout)))

	mux.Handle("GET /forgot-password", visitor(http.HandlerFunc(authH.HandleForgotPasswordPage)))
	mux.Handle("POST /forgot-password", limited(visitor(http.HandlerFunc(authH.HandleForgotPassword))))
	mux.Handle("GET /reset-password/{token}", visitor(http.HandlerFunc(authH.HandleResetPasswordPage)))
	mux.Handle("POST /reset-password/{token}", limited(visitor(http.HandlerFunc(authH.HandleResetPassword))))
}
