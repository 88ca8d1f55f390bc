package service

import (
	"context"
	"fmt"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/validate"
)

// ProfileService manages the signed-in user's profile.
type ProfileService struct {
	users UserAPI
	auth  *AuthService
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users UserAPI, auth *AuthService) *ProfileService {
	return &ProfileService{users: users, auth: auth}
}

// UploadPhoto replaces the profile photo, then refetches the user record and
// merges it into the session.
func (s *ProfileService) UploadPhoto(ctx context.Context, store SessionStore, form validate.PhotoForm) (*domain.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	user := store.Current()
	if user == nil {
		return nil, domain.ErrNoSession
	}

	if err := s.users.UpdatePhoto(ctx, store, *form.Photo); err != nil {
		return nil, err
	}

	patch, err := s.users.GetUser(ctx, store, user.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh profile: %w", err)
	}
	if !store.UpdateUser(ctx, patch) {
		return nil, domain.ErrNoSession
	}
	return store.Current(), nil
}

// SendResetLink emails a password reset link to the signed-in user.
func (s *ProfileService) SendResetLink(ctx context.Context, store SessionStore) error {
	user := store.Current()
	if user == nil {
		return domain.ErrNoSession
	}
	return s.auth.ForgotPassword(ctx, store, validate.ForgotPasswordForm{Email: user.Email})
}
