package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// VisitorCookie is the cookie carrying the signed visitor token.
const VisitorCookie = "blog_visitor"

const visitorTTL = 365 * 24 * time.Hour

// DefaultMaxStores caps the stores held in memory.
const DefaultMaxStores = 10000

// Manager maps signed visitor tokens to their Stores.
type Manager struct {
	secret    []byte
	backend   Backend
	maxStores int

	mu     sync.Mutex
	stores map[string]*Store
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxStores sets how many stores are held in memory. The least recently
// used store is dropped to make room; its persisted state is restored on the
// visitor's next request.
func WithMaxStores(n int) ManagerOption {
	return func(m *Manager) { m.maxStores = max(n, 1) }
}

// NewManager returns a Manager that signs visitor tokens with secret and
// persists stores through backend (nil for memory only).
func NewManager(secret []byte, backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		secret:    secret,
		backend:   backend,
		maxStores: DefaultMaxStores,
		stores:    make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Visitor resolves the Store for token. When token is empty or invalid a new
// visitor is created and its signed token is returned as newToken; otherwise
// newToken is "".
func (m *Manager) Visitor(ctx context.Context, token string) (store *Store, newToken string, err error) {
	id, err := m.parse(token)
	if err != nil {
		id = uuid.NewString()
		newToken, err = m.issue(id)
		if err != nil {
			return nil, "", fmt.Errorf("issue visitor token: %w", err)
		}
	}

	store, err = m.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	store.touch()
	return store, newToken, nil
}

func (m *Manager) load(ctx context.Context, id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s, nil
	}
	s := NewStore(id, m.backend)
	if err := s.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if len(m.stores) >= m.maxStores {
		m.evictLeastRecentLocked()
	}
	m.stores[id] = s
	return s, nil
}

// Len returns the number of stores held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *Manager) evictLeastRecentLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range m.stores {
		if t := s.idleSince(); oldestID == "" || t.Before(oldest) {
			oldestID, oldest = id, t
		}
	}
	delete(m.stores, oldestID)
}

// Cookie builds the visitor cookie for token.
func (m *Manager) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     VisitorCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(visitorTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) issue(id string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": id,
		"iat": now.Unix(),
		"exp": now.Add(visitorTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", jwt.ErrTokenMalformed
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(sub); err != nil {
		return "", fmt.Errorf("visitor id: %w", err)
	}
	return sub, nil
}

// Sweep drops cached stores idle for longer than idle. Persisted state is
// kept and restored on the visitor's next request.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.stores {
		if s.idleSince().Before(cutoff) {
			delete(m.stores, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps idle stores every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(idle); n > 0 {
					slog.Debug("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}
