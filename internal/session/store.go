package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
)

// StorageKeyPrefix names the storage slot that holds a visitor's session.
const StorageKeyPrefix = "blog-storage"

// StorageKey returns the storage key for a visitor.
func StorageKey(visitorID string) string {
	return StorageKeyPrefix + ":" + visitorID
}

// Observer receives the session record after every change. The record is a
// copy and is nil when no session is active.
type Observer func(user *domain.User)

// Store is one visitor's session: the authenticated user record plus the
// upstream cookies issued to that visitor. It is safe for concurrent use and
// implements domain.Credentials.
type Store struct {
	key     string
	backend Backend

	mu        sync.Mutex
	user      *domain.User
	cookies   []Cookie
	observers map[int]Observer
	nextObs   int
	inflight  map[string]bool
	lastSeen  time.Time
	now       func() time.Time
}

// NewStore returns an empty store for visitorID. backend may be nil for a
// memory-only store.
func NewStore(visitorID string, backend Backend) *Store {
	return &Store{
		key:       StorageKey(visitorID),
		backend:   backend,
		observers: make(map[int]Observer),
		inflight:  make(map[string]bool),
		lastSeen:  time.Now(),
		now:       time.Now,
	}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Restore loads previously persisted state.
func (s *Store) Restore(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	st, err := s.backend.Load(ctx, s.key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = st.User.Clone()
	s.cookies = append([]Cookie(nil), st.Cookies...)
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the session record, or nil.
func (s *Store) Current() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Login replaces the session record.
func (s *Store) Login(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	s.user = user.Clone()
	err := s.persistLocked(ctx)
	snap := s.user.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// Logout runs notify on a best-effort basis and then clears the session
// record and upstream cookies. A notify failure is logged and does not stop
// the session from being cleared.
func (s *Store) Logout(ctx context.Context, notify func(ctx context.Context) error) {
	if notify != nil {
		if err := notify(ctx); err != nil {
			slog.Warn("logout notification failed", "key", s.key, "error", err)
		}
	}
	s.clear(ctx)
}

// Invalidate drops the session after the upstream refused to refresh it.
func (s *Store) Invalidate(ctx context.Context) {
	slog.Info("session invalidated", "key", s.key)
	s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	had := s.user != nil
	s.user = nil
	s.cookies = nil
	if err := s.persistLocked(ctx); err != nil {
		slog.Error("failed to clear session record", "key", s.key, "error", err)
	}
	s.mu.Unlock()

	if had {
		s.notify(nil)
	}
}

// UpdateUser merges patch into the session record. It reports false and
// changes nothing when no session is active.
func (s *Store) UpdateUser(ctx context.Context, patch domain.UserPatch) bool {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return false
	}
	merged := s.user.Apply(patch)
	s.user = &merged
	if err := s.persistLocked(ctx); err != nil {
		slog.Error("failed to persist session update", "key", s.key, "error", err)
	}
	snap := s.user.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Subscribe registers fn to run after each change. The returned function
// removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(user *domain.User) {
	s.mu.Lock()
	fns := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user.Clone())
	}
}

// Begin marks form as submitting. It returns domain.ErrSubmissionInFlight if
// a submission of the same form is already running; otherwise done must be
// called when the submission finishes.
func (s *Store) Begin(form string) (done func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[form] {
		return nil, domain.ErrSubmissionInFlight
	}
	s.inflight[form] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.inflight, form)
			s.mu.Unlock()
		})
	}, nil
}

// AccessToken returns the session's access token, or "".
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.AccessToken
}

// SetAccessToken records a refreshed access token on the active session.
func (s *Store) SetAccessToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.AccessToken == token {
		return
	}
	s.user.AccessToken = token
	if err := s.persistLocked(ctx); err != nil {
		slog.Error("failed to persist refreshed token", "key", s.key, "error", err)
	}
}

// Cookies returns the unexpired upstream cookies.
func (s *Store) Cookies() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]*http.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// SetCookies merges cookies set by the upstream API. Cookies the upstream
// expires are removed.
func (s *Store) SetCookies(ctx context.Context, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, c := range cookies {
		s.cookies = removeCookie(s.cookies, c.Name)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		s.cookies = append(s.cookies, Cookie{Name: c.Name, Value: c.Value, Expires: expires})
	}
	if err := s.persistLocked(ctx); err != nil {
		slog.Error("failed to persist upstream cookies", "key", s.key, "error", err)
	}
}

func removeCookie(cookies []Cookie, name string) []Cookie {
	out := cookies[:0]
	for _, c := range cookies {
		if c.Name != name {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	st := State{User: s.user.Clone(), Cookies: append([]Cookie(nil), s.cookies...)}
	if st.Empty() {
		return s.backend.Remove(ctx, s.key)
	}
	return s.backend.Save(ctx, s.key, st)
}
