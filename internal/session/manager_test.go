package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/session"
)

func TestManager_IssuesAndResolvesVisitor(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager([]byte("visitor-secret"), nil)

	first, token, err := m.Visitor(ctx, "")
	if err != nil {
		t.Fatalf("Visitor: %v", err)
	}
	if token == "" {
		t.Fatal("expected a new visitor token")
	}

	again, newToken, err := m.Visitor(ctx, token)
	if err != nil {
		t.Fatalf("Visitor: %v", err)
	}
	if newToken != "" {
		t.Fatal("a valid token should not be reissued")
	}
	if again != first {
		t.Fatal("expected the same store for the same visitor")
	}
}

func TestManager_InvalidTokenStartsNewVisitor(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager([]byte("visitor-secret"), nil)
	other := session.NewManager([]byte("another-secret"), nil)

	_, foreign, _ := other.Visitor(ctx, "")
	for _, tok := range []string{"garbage", foreign} {
		s, newToken, err := m.Visitor(ctx, tok)
		if err != nil {
			t.Fatalf("Visitor(%q): %v", tok, err)
		}
		if newToken == "" || s == nil {
			t.Fatalf("expected a fresh visitor for token %q", tok)
		}
	}
}

func TestManager_SweepKeepsPersistedSession(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager([]byte("visitor-secret"), newBackend(t, newMemRecords()))

	s, token, _ := m.Visitor(ctx, "")
	s.Login(ctx, domain.User{ID: 3, Name: "Ann"})

	time.Sleep(5 * time.Millisecond)
	if n := m.Sweep(time.Millisecond); n != 1 {
		t.Fatalf("expected 1 evicted store, got %d", n)
	}

	restored, _, err := m.Visitor(ctx, token)
	if err != nil {
		t.Fatalf("Visitor: %v", err)
	}
	if restored == s {
		t.Fatal("expected a freshly restored store after eviction")
	}
	if u := restored.Current(); u == nil || u.ID != 3 {
		t.Fatalf("expected session to survive eviction, got %+v", u)
	}
}

func TestManager_CookieAttributes(t *testing.T) {
	m := session.NewManager([]byte("visitor-secret"), nil)
	c := m.Cookie("tok", true)
	if c.Name != session.VisitorCookie || !c.HttpOnly || !c.Secure || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

func TestManager_CapsStoresInMemory(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager([]byte("visitor-secret"), newBackend(t, newMemRecords()), session.WithMaxStores(3))

	s, token, _ := m.Visitor(ctx, "")
	s.Login(ctx, domain.User{ID: 5, Name: "Ann"})
	time.Sleep(time.Millisecond)

	for i := 0; i < 20; i++ {
		if _, _, err := m.Visitor(ctx, ""); err != nil {
			t.Fatalf("Visitor: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	if n := m.Len(); n != 3 {
		t.Fatalf("expected 3 stores in memory, got %d", n)
	}

	restored, _, err := m.Visitor(ctx, token)
	if err != nil {
		t.Fatalf("Visitor: %v", err)
	}
	if u := restored.Current(); u == nil || u.ID != 5 {
		t.Fatalf("expected the evicted session to be restored, got %+v", u)
	}
}
