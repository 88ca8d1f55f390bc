package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/validate"
	"github.com/msomdec/blogapp/internal/view"
)

// ProfileHandler serves the signed-in user's profile page.
type ProfileHandler struct {
	pages
	profile *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profile *service.ProfileService, googleEnabled bool) *ProfileHandler {
	return &ProfileHandler{pages: pages{googleEnabled: googleEnabled}, profile: profile}
}

// HandleProfilePage renders the profile.
func (h *ProfileHandler) HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.ProfilePage(h.layout(w, r), view.Form{}))
}

// HandleUploadPhoto replaces the profile photo.
func (h *ProfileHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())

	var form validate.PhotoForm
	err := parseUpload(w, r, "photo")
	if err == nil {
		form.Photo, err = formFile(r, "photo")
	}
	if err == nil {
		err = guard(store, "profile-photo", func() error {
			_, err := h.profile.UploadPhoto(r.Context(), store, form)
			return err
		})
	}

	if errors.Is(err, domain.ErrNoSession) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		f, status := formFailure(nil, err)
		render(w, r, status, view.ProfilePage(h.layout(w, r), f))
		return
	}

	setFlash(w, view.FlashSuccess, "Profile photo updated.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// HandleSendResetLink emails a password reset link to the signed-in user.
func (h *ProfileHandler) HandleSendResetLink(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())

	err := guard(store, "forgot-password", func() error {
		return h.profile.SendResetLink(r.Context(), store)
	})
	switch {
	case errors.Is(err, domain.ErrNoSession):
		redirect(w, r, "/login")
		return
	case err != nil:
		slog.Error("send reset link", "error", err)
		setFlash(w, view.FlashError, upstreamMessage(err, "The reset link could not be sent. Please try again."))
	default:
		setFlash(w, view.FlashSuccess, "Check your email for a link to reset your password.")
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
