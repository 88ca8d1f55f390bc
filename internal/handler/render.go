package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/msomdec/blogapp/internal/apiclient"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/validate"
	"github.com/msomdec/blogapp/internal/view"
)

const genericError = "An unexpected error occurred. Please try again."

// pages builds the layout shared by every rendered page.
type pages struct {
	googleEnabled bool
}

func (p pages) layout(w http.ResponseWriter, r *http.Request) view.Layout {
	return view.Layout{
		User:          UserFromContext(r.Context()),
		Flash:         popFlash(w, r),
		GoogleEnabled: p.googleEnabled,
	}
}

// render writes c with status. The page is buffered so a template failure
// still yields a clean 500.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write page", "error", err)
	}
}

// formFailure turns a failed submission into the form to re-render and its
// status. Validation errors become per-field messages; anything else becomes
// a form-level notice.
func formFailure(values map[string]string, err error) (view.Form, int) {
	f := view.Form{Values: values}

	var fields validate.Errors
	switch {
	case errors.As(err, &fields):
		f.Errors = fields
		return f, http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSubmissionInFlight):
		f.Error = "This form is already being submitted."
		return f, http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		f.Error = upstreamMessage(err, "You are not allowed to do that. Please log in again.")
		return f, http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		f.Error = upstreamMessage(err, "The request was rejected. Please check your input.")
		return f, http.StatusUnprocessableEntity
	}

	slog.Error("form submission", "error", err)
	if status := apiclient.StatusCode(err); status >= 500 {
		f.Error = upstreamMessage(err, genericError)
		return f, http.StatusBadGateway
	}
	f.Error = genericError
	return f, http.StatusInternalServerError
}

func upstreamMessage(err error, fallback string) string {
	if msg := apiclient.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
