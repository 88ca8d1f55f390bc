package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/session"
	"github.com/msomdec/blogapp/internal/validate"
)

func newAuth(t *testing.T) (*service.AuthService, *fakeAPI, *session.Store) {
	t.Helper()
	api := &fakeAPI{user: &domain.User{ID: 7, Name: "Ann", AccessToken: "tok"}}
	return service.NewAuthService(api), api, session.NewStore("visitor", nil)
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, _, store := newAuth(t)

	user, err := auth.Login(context.Background(), store, validate.LoginForm{Email: "ann@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("unexpected user %+v", user)
	}
	if cur := store.Current(); cur == nil || cur.Email != "ann@example.com" || cur.AccessToken != "tok" {
		t.Fatalf("expected session to be stored, got %+v", cur)
	}
}

func TestAuthService_Login_InvalidFormSkipsAPI(t *testing.T) {
	auth, api, store := newAuth(t)

	_, err := auth.Login(context.Background(), store, validate.LoginForm{Email: "nope", Password: "1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(api.Calls()) != 0 {
		t.Fatalf("no API call expected, got %v", api.Calls())
	}
	if store.Current() != nil {
		t.Fatal("no session expected")
	}
}

func TestAuthService_Login_APIErrorLeavesNoSession(t *testing.T) {
	auth, api, store := newAuth(t)
	api.loginErr = domain.ErrUnauthorized

	_, err := auth.Login(context.Background(), store, validate.LoginForm{Email: "ann@example.com", Password: "secret1"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if store.Current() != nil {
		t.Fatal("no session expected after a failed login")
	}
}

func TestAuthService_GoogleLogin(t *testing.T) {
	auth, api, store := newAuth(t)

	if _, err := auth.GoogleLogin(context.Background(), store, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty token, got %v", err)
	}
	if _, err := auth.GoogleLogin(context.Background(), store, "provider-token"); err != nil {
		t.Fatalf("GoogleLogin: %v", err)
	}
	if calls := api.Calls(); len(calls) != 1 || calls[0] != "google:provider-token" {
		t.Fatalf("unexpected calls %v", calls)
	}
	if store.Current() == nil {
		t.Fatal("expected session")
	}
}

func TestAuthService_LogoutClearsSessionWhenAPIFails(t *testing.T) {
	auth, api, store := newAuth(t)
	api.logoutErr = errors.New("connection refused")
	store.Login(context.Background(), domain.User{ID: 7})

	auth.Logout(context.Background(), store)

	if store.Current() != nil {
		t.Fatal("expected session to be cleared")
	}
	if calls := api.Calls(); len(calls) != 1 || calls[0] != "logout" {
		t.Fatalf("expected a logout call, got %v", calls)
	}
}

func TestAuthService_ResetPassword(t *testing.T) {
	auth, api, store := newAuth(t)
	form := validate.ResetPasswordForm{Password: "newpass", ConfirmPassword: "newpass"}

	performed, err := auth.ResetPassword(context.Background(), store, "", form)
	if err != nil || performed {
		t.Fatalf("missing token should be a silent no-op, got performed=%v err=%v", performed, err)
	}
	if len(api.Calls()) != 0 {
		t.Fatal("no API call expected without a token")
	}

	performed, err = auth.ResetPassword(context.Background(), store, "reset-tok", form)
	if err != nil || !performed {
		t.Fatalf("ResetPassword: performed=%v err=%v", performed, err)
	}
	if api.resetWith[0] != "reset-tok" || api.resetWith[1] != "newpass" {
		t.Fatalf("unexpected reset call %v", api.resetWith)
	}

	_, err = auth.ResetPassword(context.Background(), store, "reset-tok", validate.ResetPasswordForm{Password: "newpass", ConfirmPassword: "other"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected mismatch to be rejected, got %v", err)
	}
}

func TestAuthService_RegisterDoesNotSignIn(t *testing.T) {
	auth, api, store := newAuth(t)

	if err := auth.Register(context.Background(), store, validate.RegisterForm{Name: "Ann", Email: "ann@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if store.Current() != nil {
		t.Fatal("register must not create a session")
	}
	if calls := api.Calls(); len(calls) != 1 || calls[0] != "register" {
		t.Fatalf("unexpected calls %v", calls)
	}
}
