package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/session"
	"github.com/msomdec/blogapp/internal/validate"
)

// maxUploadBody bounds multipart bodies. Images a little above the accepted
// size still parse so they are rejected with a field message.
const maxUploadBody = validate.MaxImageSize + 1<<20

// guard runs fn as the visitor's only in-flight submission of form.
func guard(store *session.Store, form string, fn func() error) error {
	done, err := store.Begin(form)
	if err != nil {
		return err
	}
	defer done()
	return fn()
}

// parseUpload parses a multipart body of bounded size. An oversized body is
// reported as a validation error on field.
func parseUpload(w http.ResponseWriter, r *http.Request, field string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e := validate.Errors{}
			e.Add(field, fmt.Sprintf("Max file size is %dMB", validate.MaxImageSize>>20))
			return e
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// formFile reads the uploaded file in field, or returns nil when none was
// sent. The content type is sniffed from the data rather than trusted from
// the client.
func formFile(r *http.Request, field string) (*domain.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &domain.File{
		Name:        hdr.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
