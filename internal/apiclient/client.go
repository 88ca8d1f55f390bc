package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/msomdec/blogapp/internal/domain"
)

// DefaultExpiredMessage is the message the primary API sends with a 401 when
// the access credential has expired and can be refreshed.
const DefaultExpiredMessage = "Token expired"

// CredentialMode selects how a client attaches the visitor's credential.
type CredentialMode int

const (
	// BearerCredentials sends the session access token as a bearer header.
	BearerCredentials CredentialMode = iota
	// CookieCredentials sends the upstream session cookies and records any
	// cookies the API sets.
	CookieCredentials
)

// Client issues REST calls against one backend.
type Client struct {
	name           string
	baseURL        *url.URL
	httpClient     *http.Client
	mode           CredentialMode
	refresh        *Client
	refreshPath    string
	expiredMessage string
	onAttempt      func(method, path string, a *Attempt)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. No timeout is set by
// default; the transport defaults apply.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCredentialMode selects how credentials are attached.
func WithCredentialMode(mode CredentialMode) Option {
	return func(c *Client) { c.mode = mode }
}

// WithRefresh enables silent reauthentication: a 401 carrying
// expiredMessage triggers one POST to refreshPath followed by one replay of
// the original request.
func WithRefresh(refreshPath, expiredMessage string) Option {
	return func(c *Client) {
		c.refreshPath = refreshPath
		c.expiredMessage = expiredMessage
	}
}

// WithAttemptHook registers a function called once per logical request with
// its finished attempt.
func WithAttemptHook(fn func(method, path string, a *Attempt)) Option {
	return func(c *Client) { c.onAttempt = fn }
}

// New creates a client for the backend at baseURL.
func New(name, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse %s base url: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s base url %q must be absolute", name, baseURL)
	}

	c := &Client{
		name:       name,
		baseURL:    u,
		httpClient: &http.Client{},
		mode:       BearerCredentials,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.refreshPath != "" {
		if c.expiredMessage == "" {
			c.expiredMessage = DefaultExpiredMessage
		}
		// The refresh client shares the transport but never intercepts.
		c.refresh = &Client{
			name:       name + "-refresh",
			baseURL:    c.baseURL,
			httpClient: c.httpClient,
			mode:       c.mode,
		}
	}
	return c, nil
}

// Name returns the client's name.
func (c *Client) Name() string { return c.name }

// Request describes one API call. At most one of JSON and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   *Multipart
	// Bearer overrides the session credential for this request.
	Bearer string
}

// Multipart is a multipart/form-data body with a single file part.
type Multipart struct {
	Field  string
	File   domain.File
	Values map[string]string
}

// Do performs req and decodes a successful JSON response into out (which may
// be nil). creds may be nil for anonymous calls.
func (c *Client) Do(ctx context.Context, creds domain.Credentials, req Request, out any) error {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
	}

	a := NewAttempt()
	defer func() {
		slog.Debug("api request finished", "client", c.name, "method", req.Method, "path", req.Path, "attempt", a.String())
		if c.onAttempt != nil {
			c.onAttempt(req.Method, req.Path, a)
		}
	}()

	for {
		respBody, err := c.send(ctx, creds, req, body, contentType)
		if err == nil {
			_ = a.Advance(StateSucceeded)
			return decode(respBody, out)
		}

		if !c.isExpired(err) {
			_ = a.Advance(StateFailed)
			return err
		}
		_ = a.Advance(StateUnauthorized)
		if advErr := a.Advance(StateRefreshing); advErr != nil {
			_ = a.Advance(StateFailed)
			return err
		}

		if refreshErr := c.refreshCredentials(ctx, creds); refreshErr != nil {
			slog.Warn("silent refresh failed", "client", c.name, "error", refreshErr)
			if creds != nil {
				creds.Invalidate(ctx)
			}
			_ = a.Advance(StateFailed)
			return err
		}
		_ = a.Advance(StateRetried)
	}
}

func (c *Client) isExpired(err error) bool {
	return c.refresh != nil && hasExpiryMarker(err, c.expiredMessage)
}

func (c *Client) refreshCredentials(ctx context.Context, creds domain.Credentials) error {
	if c.refresh == nil {
		return fmt.Errorf("%s client has no refresh endpoint", c.name)
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.refresh.Do(ctx, creds, Request{Method: http.MethodPost, Path: c.refreshPath}, &out); err != nil {
		return err
	}
	if out.AccessToken != "" && creds != nil {
		creds.SetAccessToken(ctx, out.AccessToken)
	}
	return nil
}

func (c *Client) send(ctx context.Context, creds domain.Credentials, req Request, body []byte, contentType string) ([]byte, error) {
	u := c.resolve(req.Path, req.Query)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	c.attachCredentials(httpReq, creds, req.Bearer)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", c.name, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	if c.mode == CookieCredentials && creds != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			creds.SetCookies(ctx, cookies)
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *Client) attachCredentials(req *http.Request, creds domain.Credentials, bearer string) {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if creds == nil {
		return
	}
	switch c.mode {
	case CookieCredentials:
		for _, ck := range creds.Cookies() {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	case BearerCredentials:
		if bearer == "" {
			if token := creds.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func encodeBody(req Request) ([]byte, string, error) {
	switch {
	case req.Form != nil:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range req.Form.Values {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, req.Form.Field, req.Form.File.Name))
		ct := req.Form.File.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.Form.File.Data); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), mw.FormDataContentType(), nil
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	}
	return nil, "", nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
