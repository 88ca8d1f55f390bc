package domain

import (
	"context"
	"net/http"
)

// Credentials supplies and records a visitor's upstream API credentials.
// The session store is the only implementation used in production.
type Credentials interface {
	AccessToken() string
	SetAccessToken(ctx context.Context, token string)
	Cookies() []*http.Cookie
	SetCookies(ctx context.Context, cookies []*http.Cookie)
	// Invalidate drops the session after a failed silent refresh.
	Invalidate(ctx context.Context)
}

// SessionRecordRepository persists serialized session records under a
// storage key.
type SessionRecordRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
