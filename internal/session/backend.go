package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
)

// Cookie is an upstream API cookie held on the visitor's behalf.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitzero"`
}

// State is the persisted form of a Store.
type State struct {
	User    *domain.User `json:"user"`
	Cookies []Cookie     `json:"cookies,omitempty"`
}

// Empty reports whether there is nothing worth persisting.
func (s State) Empty() bool {
	return s.User == nil && len(s.Cookies) == 0
}

// Backend persists store state under a storage key.
type Backend interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, state State) error
	Remove(ctx context.Context, key string) error
}

// SealedBackend stores state as sealed JSON in a record repository.
type SealedBackend struct {
	records domain.SessionRecordRepository
	sealer  *Sealer
}

// NewSealedBackend returns a Backend over records.
func NewSealedBackend(records domain.SessionRecordRepository, sealer *Sealer) *SealedBackend {
	return &SealedBackend{records: records, sealer: sealer}
}

// Load returns the stored state, or an empty state when nothing is stored.
// A record that cannot be opened is discarded.
func (b *SealedBackend) Load(ctx context.Context, key string) (State, error) {
	data, err := b.records.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load %s: %w", key, err)
	}

	plain, err := b.sealer.Open(data)
	if err != nil {
		slog.Warn("discarding unreadable session record", "key", key, "error", err)
		if err := b.records.Delete(ctx, key); err != nil {
			slog.Error("failed to delete unreadable session record", "key", key, "error", err)
		}
		return State{}, nil
	}

	var st State
	if err := json.Unmarshal(plain, &st); err != nil {
		slog.Warn("discarding malformed session record", "key", key, "error", err)
		return State{}, nil
	}
	return st, nil
}

// Save seals and stores state.
func (b *SealedBackend) Save(ctx context.Context, key string, state State) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	sealed, err := b.sealer.Seal(plain)
	if err != nil {
		return err
	}
	if err := b.records.Put(ctx, key, sealed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Remove deletes the stored state.
func (b *SealedBackend) Remove(ctx context.Context, key string) error {
	if err := b.records.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
