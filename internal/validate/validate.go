// Package validate checks form submissions field by field before anything is
// sent to the remote API.
package validate

import (
	"fmt"
	"net/mail"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/blogapp/internal/domain"
)

// Errors maps a form field name to its first validation message.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Has reports whether field failed validation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Err returns e as an error, or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Unwrap() error { return domain.ErrInvalidInput }

// Required checks that v is not blank.
func (e Errors) Required(field, v, msg string) {
	if strings.TrimSpace(v) == "" {
		e.Add(field, msg)
	}
}

// Email checks that v is a bare email address.
func (e Errors) Email(field, v string) {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || addr.Name != "" {
		e.Add(field, "Invalid email address")
	}
}

// MinLen checks that v has at least n characters.
func (e Errors) MinLen(field, v string, n int, msg string) {
	if utf8.RuneCountInString(v) < n {
		e.Add(field, msg)
	}
}

// MaxLen checks that v has at most n characters.
func (e Errors) MaxLen(field, v string, n int, msg string) {
	if utf8.RuneCountInString(v) > n {
		e.Add(field, msg)
	}
}

// OneOf checks that v is one of allowed.
func (e Errors) OneOf(field, v string, allowed []string, msg string) {
	if !slices.Contains(allowed, v) {
		e.Add(field, msg)
	}
}

// MaxImageSize is the largest accepted image upload.
const MaxImageSize = 2 << 20

// ImageTypes are the accepted image MIME types.
var ImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Image checks that f is present, at most MaxImageSize bytes and of an
// accepted image type.
func (e Errors) Image(field string, f *domain.File) {
	switch {
	case f == nil || f.Size() == 0:
		e.Add(field, "Image is required")
	case f.Size() > MaxImageSize:
		e.Add(field, fmt.Sprintf("Max file size is %dMB", MaxImageSize>>20))
	case !slices.Contains(ImageTypes, f.ContentType):
		e.Add(field, "Only .jpg, .jpeg, .png and .webp formats are supported")
	}
}
