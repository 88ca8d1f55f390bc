// Package view renders the HTML pages and Datastar fragments. Every
// constructor returns a templ.Component so handlers render pages and SSE
// patches the same way. The listing fragments are templ components
// (listing.templ); the pages are embedded html/template files.
package view

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/listing"
)

//go:embed templates/*.html
var files embed.FS

var (
	fragments *template.Template
	pages     = map[string]*template.Template{}
)

var pageNames = []string{
	"home", "blog", "notfound", "login", "register", "forgot",
	"reset", "create", "profile", "error",
}

func init() {
	fragments = template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials.html"))
	for _, name := range pageNames {
		t := template.Must(fragments.Clone())
		pages[name] = template.Must(t.ParseFS(files, "templates/"+name+".html"))
	}
}

var funcs = template.FuncMap{
	"longDate":   func(t time.Time) string { return t.Format("January 2, 2006") },
	"paragraphs": Paragraphs,
	"initial":    initial,
	"signals":    signals,
	"blogGrid":   func(r listing.Result) (template.HTML, error) { return inline(BlogGrid(r)) },
	"pagination": func(p Pagination) (template.HTML, error) { return inline(PaginationControl(p)) },
}

// inline renders a component into a page template.
func inline(c templ.Component) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), c)
}

func shortDate(t time.Time) string { return t.Format("Jan 2, 2006") }

func postPage(viewID, n string) string {
	return "@post('/views/" + viewID + "/page?n=" + n + "')"
}

// Paragraphs splits text into paragraphs on blank lines.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func signals(kv ...any) (string, error) {
	if len(kv)%2 != 0 {
		return "", fmt.Errorf("signals: odd argument count")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return "", fmt.Errorf("signals: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", data)
	})
}

func fragment(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fragments.ExecuteTemplate(w, name, data)
	})
}

// Flash is a one-shot notification shown at the top of the next page.
type Flash struct {
	Kind    string
	Message string
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Layout is the data every page shares.
type Layout struct {
	Title         string
	User          *domain.User
	Flash         *Flash
	GoogleEnabled bool
}

// Form carries submitted values and validation messages back into a form.
type Form struct {
	Values map[string]string
	Errors map[string]string
	Error  string
}

// Value returns the submitted value of field.
func (f Form) Value(field string) string { return f.Values[field] }

// Err returns the validation message for field.
func (f Form) Err(field string) string { return f.Errors[field] }

// Pagination is the data for the pagination control.
type Pagination struct {
	Pager  listing.Pager
	Query  listing.Query
	ViewID string
}

// Home is the data for the listing page.
type Home struct {
	Layout
	ViewID      string
	StreamQuery string
	Query       listing.Query
	Result      listing.Result
	Pagination  Pagination
}

// HomePage renders the listing page.
func HomePage(d Home) templ.Component { return page("home", d) }

// Navbar renders the site header for l.
func Navbar(l Layout) templ.Component { return fragment("navbar", l) }

type blogData struct {
	Layout
	Blog domain.Blog
}

// BlogPage renders a post.
func BlogPage(l Layout, b domain.Blog) templ.Component {
	l.Title = b.Title
	return page("blog", blogData{Layout: l, Blog: b})
}

// NotFoundPage renders the not-found notice.
func NotFoundPage(l Layout) templ.Component {
	l.Title = "Not found"
	return page("notfound", l)
}

type formData struct {
	Layout
	Form       Form
	Token      string
	Categories []string
}

// LoginPage renders the sign-in form.
func LoginPage(l Layout, f Form) templ.Component {
	l.Title = "Login"
	return page("login", formData{Layout: l, Form: f})
}

// RegisterPage renders the sign-up form.
func RegisterPage(l Layout, f Form) templ.Component {
	l.Title = "Register"
	return page("register", formData{Layout: l, Form: f})
}

// ForgotPasswordPage renders the reset-link request form.
func ForgotPasswordPage(l Layout, f Form) templ.Component {
	l.Title = "Forgot password"
	return page("forgot", formData{Layout: l, Form: f})
}

// ResetPasswordPage renders the new-password form for token.
func ResetPasswordPage(l Layout, token string, f Form) templ.Component {
	l.Title = "Reset password"
	return page("reset", formData{Layout: l, Form: f, Token: token})
}

// CreateBlogPage renders the new-post form.
func CreateBlogPage(l Layout, f Form) templ.Component {
	l.Title = "Write a post"
	return page("create", formData{Layout: l, Form: f, Categories: domain.BlogCategories})
}

// ProfilePage renders the signed-in user's profile.
func ProfilePage(l Layout, f Form) templ.Component {
	l.Title = "Profile"
	return page("profile", formData{Layout: l, Form: f})
}

type errorData struct {
	Layout
	Message string
}

// ErrorPage renders a generic failure notice.
func ErrorPage(l Layout, message string) templ.Component {
	l.Title = "Something went wrong"
	return page("error", errorData{Layout: l, Message: message})
}
