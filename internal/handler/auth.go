package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/validate"
	"github.com/msomdec/blogapp/internal/view"
)

const oauthCookie = "blog_oauth"

// AuthHandler serves the sign-in, sign-up and password pages.
type AuthHandler struct {
	pages
	auth   *service.AuthService
	oauth  *service.GoogleOAuth
	secure bool
}

// NewAuthHandler creates a new AuthHandler. oauth may be nil to disable
// Google sign-in.
func NewAuthHandler(auth *service.AuthService, oauth *service.GoogleOAuth, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		pages:  pages{googleEnabled: oauth != nil},
		auth:   auth,
		oauth:  oauth,
		secure: cookieSecure,
	}
}

// HandleLoginPage renders the sign-in form.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.LoginPage(h.layout(w, r), view.Form{}))
}

// HandleLogin signs the visitor in and sends them home.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form := validate.LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	store := StoreFromContext(r.Context())

	err := guard(store, "login", func() error {
		_, err := h.auth.Login(r.Context(), store, form)
		return err
	})
	if err != nil {
		f, status := formFailure(map[string]string{"email": form.Email}, err)
		render(w, r, status, view.LoginPage(h.layout(w, r), f))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegisterPage renders the sign-up form.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.RegisterPage(h.layout(w, r), view.Form{}))
}

// HandleRegister creates an account and sends the visitor to the login page.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	form := validate.RegisterForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	store := StoreFromContext(r.Context())

	err := guard(store, "register", func() error {
		return h.auth.Register(r.Context(), store, form)
	})
	if err != nil {
		f, status := formFailure(map[string]string{"name": form.Name, "email": form.Email}, err)
		render(w, r, status, view.RegisterPage(h.layout(w, r), f))
		return
	}
	setFlash(w, view.FlashSuccess, "Register success!")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleForgotPasswordPage renders the reset-link request form.
func (h *AuthHandler) HandleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.ForgotPasswordPage(h.layout(w, r), view.Form{}))
}

// HandleForgotPassword asks the API to email a reset link.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	form := validate.ForgotPasswordForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
	store := StoreFromContext(r.Context())

	err := guard(store, "forgot-password", func() error {
		return h.auth.ForgotPassword(r.Context(), store, form)
	})
	if err != nil {
		f, status := formFailure(map[string]string{"email": form.Email}, err)
		render(w, r, status, view.ForgotPasswordPage(h.layout(w, r), f))
		return
	}
	setFlash(w, view.FlashSuccess, "Check your email for a link to reset your password.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleResetPasswordPage renders the new-password form.
func (h *AuthHandler) HandleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.ResetPasswordPage(h.layout(w, r), r.PathValue("token"), view.Form{}))
}

// HandleResetPassword sets a new password with the token from the link.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	form := validate.ResetPasswordForm{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	store := StoreFromContext(r.Context())

	var performed bool
	err := guard(store, "reset-password", func() error {
		var err error
		performed, err = h.auth.ResetPassword(r.Context(), store, token, form)
		return err
	})
	if err != nil {
		f, status := formFailure(nil, err)
		render(w, r, status, view.ResetPasswordPage(h.layout(w, r), token, f))
		return
	}
	if performed {
		setFlash(w, view.FlashSuccess, "Your password has been reset. Please log in.")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLogout ends the session and sends the visitor home. The session is
// cleared even when the API call fails.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if store := StoreFromContext(r.Context()); store != nil {
		h.auth.Logout(r.Context(), store)
	}
	redirect(w, r, "/")
}

// HandleGoogleStart sends the visitor to Google's consent screen.
func (h *AuthHandler) HandleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		http.NotFound(w, r)
		return
	}

	authURL, pending, err := h.oauth.Begin()
	if err != nil {
		slog.Error("begin google sign-in", "error", err)
		setFlash(w, view.FlashError, "Google sign-in is unavailable right now.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthCookie,
		Value:    pending,
		Path:     "/auth/google",
		MaxAge:   int(service.OAuthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleGoogleCallback finishes Google sign-in and exchanges the provider
// token for a session.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		http.NotFound(w, r)
		return
	}

	var pending string
	if c, err := r.Cookie(oauthCookie); err == nil {
		pending = c.Value
	}
	http.SetCookie(w, &http.Cookie{Name: oauthCookie, Path: "/auth/google", MaxAge: -1})

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		slog.Info("google sign-in declined", "reason", reason)
		setFlash(w, view.FlashError, "Google sign-in was cancelled.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	store := StoreFromContext(r.Context())
	err := guard(store, "google", func() error {
		providerToken, err := h.oauth.Complete(r.Context(), pending, q.Get("state"), q.Get("code"))
		if err != nil {
			return err
		}
		_, err = h.auth.GoogleLogin(r.Context(), store, providerToken)
		return err
	})
	if err != nil {
		slog.Error("complete google sign-in", "error", err)
		setFlash(w, view.FlashError, upstreamMessage(err, "Google sign-in failed. Please try again."))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
