package service_test

import (
	"context"
	"sync"

	"github.com/msomdec/blogapp/internal/domain"
)

// fakeAPI records calls and returns canned responses for every remote surface.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	user      *domain.User
	loginErr  error
	logoutErr error
	resetWith []string
	forgotTo  []string

	blogs     *domain.BlogPage
	listQuery domain.BlogListQuery
	created   []domain.NewBlog
	createErr error

	photoErr  error
	userPatch domain.UserPatch
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Login(_ context.Context, _ domain.Credentials, email, _ string) (*domain.User, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u := *f.user
	u.Email = email
	return &u, nil
}

func (f *fakeAPI) Register(context.Context, domain.Credentials, string, string, string) error {
	f.record("register")
	return nil
}

func (f *fakeAPI) GoogleLogin(_ context.Context, _ domain.Credentials, token string) (*domain.User, error) {
	f.record("google:" + token)
	u := *f.user
	return &u, nil
}

func (f *fakeAPI) Logout(context.Context, domain.Credentials) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeAPI) ForgotPassword(_ context.Context, _ domain.Credentials, email string) error {
	f.record("forgot")
	f.forgotTo = append(f.forgotTo, email)
	return nil
}

func (f *fakeAPI) ResetPassword(_ context.Context, _ domain.Credentials, token, password string) error {
	f.record("reset")
	f.resetWith = []string{token, password}
	return nil
}

func (f *fakeAPI) ListBlogs(_ context.Context, _ domain.Credentials, q domain.BlogListQuery) (*domain.BlogPage, error) {
	f.record("list")
	f.listQuery = q
	return f.blogs, nil
}

func (f *fakeAPI) GetBlog(_ context.Context, _ domain.Credentials, slug string) (*domain.Blog, error) {
	f.record("get:" + slug)
	for _, b := range f.blogs.Data {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAPI) CreateBlog(_ context.Context, _ domain.Credentials, nb domain.NewBlog) (*domain.Blog, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, nb)
	return &domain.Blog{ID: 1, Title: nb.Title, Slug: "new-post", Thumbnail: nb.Thumbnail}, nil
}

func (f *fakeAPI) GetUser(context.Context, domain.Credentials, int64) (domain.UserPatch, error) {
	f.record("get-user")
	return f.userPatch, nil
}

func (f *fakeAPI) UpdatePhoto(context.Context, domain.Credentials, domain.File) error {
	f.record("photo")
	return f.photoErr
}

type fakeUploader struct {
	api     *fakeAPI
	folders []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, _ domain.Credentials, folder string, file domain.File) (*domain.Uploaded, error) {
	u.api.record("upload")
	if u.err != nil {
		return nil, u.err
	}
	u.folders = append(u.folders, folder)
	return &domain.Uploaded{URL: "https://files/" + folder + "/" + file.Name, Path: folder + "/" + file.Name}, nil
}
