package handler

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/session"
	"github.com/starfederation/datastar-go/datastar"
)

type contextKey string

const storeContextKey contextKey = "session"

// StoreFromContext returns the visitor's session store, or nil outside
// WithSession.
func StoreFromContext(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeContextKey).(*session.Store)
	return store
}

// UserFromContext returns a copy of the signed-in user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	if store := StoreFromContext(ctx); store != nil {
		return store.Current()
	}
	return nil
}

// WithSession resolves the visitor from the signed visitor cookie and injects
// their session store into the request context. First-time visitors are
// issued a cookie.
func WithSession(sessions *session.Manager, secure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(session.VisitorCookie); err == nil {
			token = c.Value
		}

		store, newToken, err := sessions.Visitor(r.Context(), token)
		if err != nil {
			slog.Error("resolve visitor session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if newToken != "" {
			http.SetCookie(w, sessions.Cookie(newToken, secure))
		}

		ctx := context.WithValue(r.Context(), storeContextKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth sends visitors without a session to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := StoreFromContext(r.Context())
		if store == nil || !store.Authenticated() {
			redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectIfAuthenticated sends signed-in visitors away from guest-only
// pages.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store := StoreFromContext(r.Context()); store != nil && store.Authenticated() {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets the response headers every page carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles POST requests per client IP. Other methods pass
// through.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !limiter.Allow(ip) {
			wait := limiter.RetryAfter(ip)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			slog.Warn("rate limited", "ip", ip, "path", r.URL.Path)
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// redirect navigates the visitor to url. Datastar requests get the redirect
// as an SSE event since the browser does not follow redirects for them.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isDatastar(r) {
		sse := datastar.NewSSE(w, r)
		sse.Redirect(url)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}
