package service

import (
	"context"
	"fmt"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/validate"
)

// AuthService runs the sign-in, sign-up and password flows against the
// remote API and keeps the visitor session in step.
type AuthService struct {
	api AuthAPI
}

// NewAuthService creates a new AuthService.
func NewAuthService(api AuthAPI) *AuthService {
	return &AuthService{api: api}
}

// Login verifies credentials with the API and stores the returned session
// record.
func (s *AuthService) Login(ctx context.Context, store SessionStore, form validate.LoginForm) (*domain.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	user, err := s.api.Login(ctx, store, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	if err := store.Login(ctx, *user); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return user, nil
}

// GoogleLogin exchanges a Google access token for a session record.
func (s *AuthService) GoogleLogin(ctx context.Context, store SessionStore, providerToken string) (*domain.User, error) {
	if providerToken == "" {
		return nil, fmt.Errorf("%w: missing provider token", domain.ErrInvalidInput)
	}

	user, err := s.api.GoogleLogin(ctx, store, providerToken)
	if err != nil {
		return nil, err
	}
	if err := store.Login(ctx, *user); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return user, nil
}

// Register creates an account. It does not sign the visitor in.
func (s *AuthService) Register(ctx context.Context, store SessionStore, form validate.RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	return s.api.Register(ctx, store, form.Name, form.Email, form.Password)
}

// ForgotPassword asks the API to email a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, store SessionStore, form validate.ForgotPasswordForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	return s.api.ForgotPassword(ctx, store, form.Email)
}

// ResetPassword sets a new password with the reset credential taken from the
// link. Without a credential nothing is sent and performed is false.
func (s *AuthService) ResetPassword(ctx context.Context, store SessionStore, token string, form validate.ResetPasswordForm) (performed bool, err error) {
	if err := form.Validate(); err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	if err := s.api.ResetPassword(ctx, store, token, form.Password); err != nil {
		return false, err
	}
	return true, nil
}

// Logout notifies the API and clears the session. The session is cleared
// even when the API call fails.
func (s *AuthService) Logout(ctx context.Context, store SessionStore) {
	store.Logout(ctx, func(ctx context.Context) error {
		return s.api.Logout(ctx, store)
	})
}
