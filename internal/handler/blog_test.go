package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/msomdec/blogapp/internal/handler"
	"github.com/msomdec/blogapp/internal/session"
)

func TestHome_RendersFirstPage(t *testing.T) {
	_, api := newUpstream(t, sampleBlogs(5)...)
	app := newTestApp(t, api, handler.Options{})
	c := newClient(t)

	resp, body := get(t, c, app.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{"Post 1", "Post 2", `id="blog-grid"`, `href="/?page=3"`, "Mar 5, 2024"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "Post 3") {
		t.Error("expected only the first page of posts")
	}
	viewID(t, body)

	var hasVisitor bool
	for _, ck := range resp.Cookies() {
		if ck.Name == session.VisitorCookie {
			hasVisitor = true
		}
	}
	if !hasVisitor {
		t.Fatal("expected visitor cookie on first visit")
	}
}

func TestHome_QueryFromURL(t *testing.T) {
	blogs := sampleBlogs(5)
	blogs[3].Title = "Learning Go"
	_, api := newUpstream(t, blogs...)
	app := newTestApp(t, api, handler.Options{})

	_, body := get(t, newClient(t), app.URL+"/?search=go")
	if !strings.Contains(body, "Learning Go") {
		t.Fatal("expected the matching post")
	}
	if strings.Contains(body, "Post 1") {
		t.Fatal("expected non-matching posts to be filtered out")
	}
	if !strings.Contains(body, `value="go"`) {
		t.Fatal("expected the search box to show the committed search")
	}

	_, body = get(t, newClient(t), app.URL+"/?page=2")
	if !strings.Contains(body, "Post 3") || strings.Contains(body, "Post 1") {
		t.Fatal("expected the second page of posts")
	}
}

func TestHome_PagePastEndRedirectsToLastPage(t *testing.T) {
	_, api := newUpstream(t, sampleBlogs(5)...)
	app := newTestApp(t, api, handler.Options{})

	resp, _ := get(t, newClient(t), app.URL+"/?page=9")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/?page=3" {
		t.Fatalf("expected redirect to /?page=3, got %q", loc)
	}
}

func TestHome_EmptyListing(t *testing.T) {
	_, api := newUpstream(t)
	app := newTestApp(t, api, handler.Options{})

	resp, body := get(t, newClient(t), app.URL+"/?search=nothing")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "No blogs found") {
		t.Fatal("expected empty-state notice")
	}
	if strings.Contains(body, `class="pagination"`) {
		t.Fatal("expected pagination to be hidden")
	}
}

func TestHome_UpstreamFailure(t *testing.T) {
	up, api := newUpstream(t, sampleBlogs(2)...)
	up.listFails = true
	app := newTestApp(t, api, handler.Options{})

	resp, body := get(t, newClient(t), app.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the page to render, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Could not load blogs") {
		t.Fatal("expected failure notice in the grid")
	}
}

func TestBlog_Detail(t *testing.T) {
	_, api := newUpstream(t, sampleBlogs(1)...)
	app := newTestApp(t, api, handler.Options{})

	resp, body := get(t, newClient(t), app.URL+"/blogs/post-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{"<h1>Post 1</h1>", "By Ada", "March 5, 2024", "<p>First paragraph.</p>", "<p>Second paragraph.</p>"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected post page to contain %q", want)
		}
	}
}

func TestBlog_NotFound(t *testing.T) {
	_, api := newUpstream(t)
	app := newTestApp(t, api, handler.Options{})

	resp, body := get(t, newClient(t), app.URL+"/blogs/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Blog not found") {
		t.Fatal("expected not-found page")
	}
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if data != nil {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postMultipart(t *testing.T, c *http.Client, url string, body *bytes.Buffer, contentType string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, readBody(t, resp)
}

var validPost = map[string]string{
	"title":       "A new post",
	"description": "Short summary",
	"category":    "Technology",
	"author":      "Test User",
	"content":     "Hello world",
}

func TestCreate_RequiresAuth(t *testing.T) {
	_, api := newUpstream(t)
	app := newTestApp(t, api, handler.Options{})

	resp, _ := get(t, newClient(t), app.URL+"/create")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected 303 to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestCreate_UploadsThumbnailAndCreates(t *testing.T) {
	up, api := newUpstream(t)
	app := newTestApp(t, api, handler.Options{})
	c := newClient(t)
	login(t, c, app)

	_, page := get(t, c, app.URL+"/create")
	if !strings.Contains(page, `value="Test User"`) {
		t.Fatal("expected author prefilled with the user's name")
	}

	body, ct := multipartBody(t, validPost, "thumbnail", "thumb.png", pngHeader)
	resp, _ := postMultipart(t, c, app.URL+"/create", body, ct)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	if n := up.count(&up.uploads); n != 1 {
		t.Fatalf("expected 1 upload, got %d", n)
	}
	up.mu.Lock()
	created := up.created
	up.mu.Unlock()
	if len(created) != 1 {
		t.Fatalf("expected 1 created post, got %d", len(created))
	}
	if !strings.HasPrefix(created[0].Thumbnail, "https://files.example.com/images/") {
		t.Fatalf("expected uploaded thumbnail URL, got %q", created[0].Thumbnail)
	}

	_, home := get(t, c, app.URL+"/")
	if !strings.Contains(home, "Blog created successfully!") {
		t.Fatal("expected success flash on the next page")
	}
}

func TestCreate_ValidationRejectsBeforeUpload(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		file    []byte
		wantMsg string
	}{
		{"missing thumbnail", validPost, nil, "Image is required"},
		{"gif thumbnail", validPost, []byte("GIF89a\x01\x00\x01\x00"), "Only .jpg, .jpeg, .png and .webp formats are supported"},
		{"oversized thumbnail", validPost, append(append([]byte{}, pngHeader...), make([]byte, 2<<20)...), "Max file size is 2MB"},
		{"bad category", map[string]string{
			"title": "t", "description": "d", "category": "Gardening", "author": "a", "content": "c",
		}, pngHeader, "Please select a valid category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, api := newUpstream(t)
			app := newTestApp(t, api, handler.Options{})
			c := newClient(t)
			login(t, c, app)

			body, ct := multipartBody(t, tt.fields, "thumbnail", "thumb", tt.file)
			resp, page := postMultipart(t, c, app.URL+"/create", body, ct)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", resp.StatusCode)
			}
			if !strings.Contains(page, tt.wantMsg) {
				t.Fatalf("expected message %q in form", tt.wantMsg)
			}
			if !strings.Contains(page, `value="`+tt.fields["title"]+`"`) {
				t.Fatal("expected submitted title to be kept")
			}
			if n := up.count(&up.uploads); n != 0 {
				t.Fatalf("expected no upload, got %d", n)
			}
		})
	}
}
