package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/blogapp/internal/apiclient"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/handler"
	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/session"
)

const (
	testSecret   = "test-secret-for-handler-tests-0123456789"
	testPassword = "password123"
	testPageSize = 2
)

// upstream is a fake of both remote APIs.
type upstream struct {
	mu           sync.Mutex
	blogs        []domain.Blog
	listFails    bool
	logoutFails  bool
	logins       int
	logouts      int
	uploads      int
	photoUploads int
	created      []domain.NewBlog
	resetTokens  []string
}

func (u *upstream) count(n *int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return *n
}

func newUpstream(t *testing.T, blogs ...domain.Blog) (*upstream, *httptest.Server) {
	t.Helper()
	up := &upstream{blogs: blogs}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		up.mu.Lock()
		up.logins++
		up.mu.Unlock()
		if body.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "r1", Path: "/"})
		writeJSON(w, http.StatusOK, domain.User{ID: 1, Name: "Test User", Email: body.Email, AccessToken: "a1"})
	})
	mux.HandleFunc("POST /auth/google", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AccessToken string `json:"accessToken"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.AccessToken != "google-access-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid Google token"})
			return
		}
		writeJSON(w, http.StatusOK, domain.User{ID: 2, Name: "Google User", Email: "g@example.com"})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email == "taken@example.com" {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.logouts++
		fail := up.logoutFails
		up.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		up.mu.Lock()
		up.resetTokens = append(up.resetTokens, token)
		up.mu.Unlock()
		if token != "good-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid reset link"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /blogs", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		defer up.mu.Unlock()
		if up.listFails {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database down"})
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		take, _ := strconv.Atoi(r.URL.Query().Get("take"))
		search := r.URL.Query().Get("search")

		var match []domain.Blog
		for _, b := range up.blogs {
			if search == "" || strings.Contains(strings.ToLower(b.Title), strings.ToLower(search)) {
				match = append(match, b)
			}
		}
		start := min((page-1)*take, len(match))
		end := min(start+take, len(match))
		writeJSON(w, http.StatusOK, domain.BlogPage{
			Data: match[start:end],
			Meta: domain.PageMeta{Page: page, Take: take, Total: len(match)},
		})
	})
	mux.HandleFunc("GET /blogs/{slug}", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		defer up.mu.Unlock()
		for _, b := range up.blogs {
			if b.Slug == r.PathValue("slug") {
				writeJSON(w, http.StatusOK, b)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Blog not found"})
	})
	mux.HandleFunc("POST /blogs", func(w http.ResponseWriter, r *http.Request) {
		var nb domain.NewBlog
		json.NewDecoder(r.Body).Decode(&nb)
		up.mu.Lock()
		up.created = append(up.created, nb)
		up.mu.Unlock()
		writeJSON(w, http.StatusCreated, domain.Blog{ID: 99, Title: nb.Title, Slug: "new-post"})
	})
	mux.HandleFunc("POST /api/files/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.uploads++
		up.mu.Unlock()
		name := r.PathValue("name")
		writeJSON(w, http.StatusOK, domain.Uploaded{
			URL:  "https://files.example.com/images/" + name,
			Path: "images/" + name,
		})
	})
	mux.HandleFunc("POST /users/photo", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.photoUploads++
		up.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"image": "https://files.example.com/avatar.png"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return up, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// newTestApp wires the full handler stack against api.
func newTestApp(t *testing.T, api *httptest.Server, opts handler.Options) *httptest.Server {
	t.Helper()
	return newTestAppWithViews(t, api, opts, listing.NewRegistry())
}

func newTestAppWithViews(t *testing.T, api *httptest.Server, opts handler.Options, views *listing.Registry) *httptest.Server {
	t.Helper()

	primary, err := apiclient.New("primary", api.URL,
		apiclient.WithCredentialMode(apiclient.CookieCredentials),
		apiclient.WithRefresh(apiclient.PathRefresh, ""),
	)
	if err != nil {
		t.Fatalf("primary client: %v", err)
	}
	legacy, err := apiclient.New("legacy", api.URL)
	if err != nil {
		t.Fatalf("legacy client: %v", err)
	}
	client := apiclient.NewAPI(primary, legacy)

	auth := service.NewAuthService(client)
	blogs := service.NewBlogService(client, apiclient.NewUploader(legacy), testPageSize)
	profile := service.NewProfileService(client, auth)
	sessions := session.NewManager([]byte(testSecret), nil)

	if opts.Listing == nil {
		opts.Listing = []listing.Option{listing.WithDebounce(0)}
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, sessions, auth, blogs, profile, views, opts)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns a browser-like client that keeps cookies and does not
// follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 10 * time.Second,
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func get(t *testing.T, c *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp, readBody(t, resp)
}

func login(t *testing.T, c *http.Client, app *httptest.Server) {
	t.Helper()
	resp, err := c.PostForm(app.URL+"/login", map[string][]string{
		"email":    {"reader@example.com"},
		"password": {testPassword},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d", resp.StatusCode)
	}
}

var viewIDPattern = regexp.MustCompile(`/views/([0-9a-f-]{36})/stream`)

func viewID(t *testing.T, body string) string {
	t.Helper()
	m := viewIDPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no live view id in page")
	}
	return m[1]
}

func sampleBlogs(n int) []domain.Blog {
	blogs := make([]domain.Blog, n)
	for i := range blogs {
		blogs[i] = domain.Blog{
			ID:        int64(i + 1),
			Title:     "Post " + strconv.Itoa(i+1),
			Slug:      "post-" + strconv.Itoa(i+1),
			Content:   "First paragraph.\n\nSecond paragraph.",
			UserID:    7,
			User:      &domain.BlogAuthor{Name: "Ada"},
			CreatedAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		}
	}
	return blogs
}
