package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/validate"
)

func fieldErrors(t *testing.T, err error) validate.Errors {
	t.Helper()
	if err == nil {
		return nil
	}
	var ve validate.Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validate.Errors, got %T", err)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatal("validation errors should unwrap to ErrInvalidInput")
	}
	return ve
}

func png(size int) *domain.File {
	return &domain.File{Name: "a.png", ContentType: "image/png", Data: make([]byte, size)}
}

func TestLoginForm(t *testing.T) {
	tests := []struct {
		name   string
		form   validate.LoginForm
		fields []string
	}{
		{"valid", validate.LoginForm{Email: "ann@example.com", Password: "secret"}, nil},
		{"bad email", validate.LoginForm{Email: "ann", Password: "secret"}, []string{"email"}},
		{"display name email", validate.LoginForm{Email: "Ann <ann@example.com>", Password: "secret"}, []string{"email"}},
		{"short password", validate.LoginForm{Email: "ann@example.com", Password: "12345"}, []string{"password"}},
		{"both", validate.LoginForm{}, []string{"email", "password"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ve := fieldErrors(t, tc.form.Validate())
			if len(ve) != len(tc.fields) {
				t.Fatalf("expected errors on %v, got %v", tc.fields, ve)
			}
			for _, f := range tc.fields {
				if !ve.Has(f) {
					t.Fatalf("expected error on %q, got %v", f, ve)
				}
			}
		})
	}
}

func TestRegisterForm(t *testing.T) {
	ve := fieldErrors(t, validate.RegisterForm{Name: "Al", Email: "al@example.com", Password: "secret"}.Validate())
	if !ve.Has("name") || len(ve) != 1 {
		t.Fatalf("expected only a name error, got %v", ve)
	}
	if err := (validate.RegisterForm{Name: "Ann", Email: "ann@example.com", Password: "secret"}).Validate(); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}
}

func TestResetPasswordForm(t *testing.T) {
	ve := fieldErrors(t, validate.ResetPasswordForm{Password: "secret1", ConfirmPassword: "secret2"}.Validate())
	if !ve.Has("confirmPassword") || ve.Has("password") {
		t.Fatalf("expected mismatch error only, got %v", ve)
	}
}

func TestCreateBlogForm(t *testing.T) {
	valid := validate.CreateBlogForm{
		Title:       "Hello",
		Description: "A post",
		Category:    "Travel",
		Author:      "Ann",
		Content:     "Body",
		Thumbnail:   png(1024),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	bad := valid
	bad.Title = strings.Repeat("x", 256)
	bad.Description = ""
	bad.Category = "Gardening"
	bad.Author = strings.Repeat("y", 101)
	bad.Content = "   "
	bad.Thumbnail = nil
	ve := fieldErrors(t, bad.Validate())
	for _, f := range []string{"title", "description", "category", "author", "content", "thumbnail"} {
		if !ve.Has(f) {
			t.Fatalf("expected error on %q, got %v", f, ve)
		}
	}
}

func TestPhotoForm(t *testing.T) {
	tests := []struct {
		name  string
		photo *domain.File
		ok    bool
	}{
		{"png at limit", png(validate.MaxImageSize), true},
		{"jpeg", &domain.File{ContentType: "image/jpeg", Data: []byte{1}}, true},
		{"webp", &domain.File{ContentType: "image/webp", Data: []byte{1}}, true},
		{"too large", png(validate.MaxImageSize + 1), false},
		{"gif", &domain.File{ContentType: "image/gif", Data: []byte{1}}, false},
		{"pdf", &domain.File{ContentType: "application/pdf", Data: []byte{1}}, false},
		{"missing", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.PhotoForm{Photo: tc.photo}.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid photo, got %v", err)
			}
			if !tc.ok && !fieldErrors(t, err).Has("photo") {
				t.Fatalf("expected photo error, got %v", err)
			}
		})
	}
}

func TestErrors_KeepsFirstMessage(t *testing.T) {
	e := validate.Errors{}
	e.Add("title", "first")
	e.Add("title", "second")
	if e["title"] != "first" {
		t.Fatalf("expected first message to win, got %q", e["title"])
	}
	if (validate.Errors{}).Err() != nil {
		t.Fatal("empty Errors should be a nil error")
	}
}
