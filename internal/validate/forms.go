package validate

import "github.com/msomdec/blogapp/internal/domain"

const minPassword = 6

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Validate() error {
	e := Errors{}
	e.Email("email", f.Email)
	e.MinLen("password", f.Password, minPassword, "Password must be at least 6 characters")
	return e.Err()
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name     string
	Email    string
	Password string
}

func (f RegisterForm) Validate() error {
	e := Errors{}
	e.MinLen("name", f.Name, 3, "Name must be at least 3 characters")
	e.Email("email", f.Email)
	e.MinLen("password", f.Password, minPassword, "Password must be at least 6 characters")
	return e.Err()
}

// ForgotPasswordForm requests a reset link.
type ForgotPasswordForm struct {
	Email string
}

func (f ForgotPasswordForm) Validate() error {
	e := Errors{}
	e.Email("email", f.Email)
	return e.Err()
}

// ResetPasswordForm sets a new password.
type ResetPasswordForm struct {
	Password        string
	ConfirmPassword string
}

func (f ResetPasswordForm) Validate() error {
	e := Errors{}
	e.MinLen("password", f.Password, minPassword, "Password must be at least 6 characters")
	if f.ConfirmPassword != f.Password {
		e.Add("confirmPassword", "Passwords do not match")
	}
	return e.Err()
}

// CreateBlogForm is the new-post form.
type CreateBlogForm struct {
	Title       string
	Description string
	Category    string
	Author      string
	Content     string
	Thumbnail   *domain.File
}

func (f CreateBlogForm) Validate() error {
	e := Errors{}
	e.Required("title", f.Title, "Title is required")
	e.MaxLen("title", f.Title, 255, "Title must be at most 255 characters")
	e.Required("description", f.Description, "Description is required")
	e.MaxLen("description", f.Description, 500, "Description must be at most 500 characters")
	e.OneOf("category", f.Category, domain.BlogCategories, "Please select a valid category")
	e.Required("author", f.Author, "Author is required")
	e.MaxLen("author", f.Author, 100, "Author must be at most 100 characters")
	e.Required("content", f.Content, "Content is required")
	e.Image("thumbnail", f.Thumbnail)
	return e.Err()
}

// PhotoForm uploads a profile photo.
type PhotoForm struct {
	Photo *domain.File
}

func (f PhotoForm) Validate() error {
	e := Errors{}
	e.Image("photo", f.Photo)
	return e.Err()
}
