package listing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultViewsPerOwner caps how many live views one visitor may hold.
const DefaultViewsPerOwner = 8

// DefaultMaxViews caps the live views across all visitors.
const DefaultMaxViews = 4096

// Registry holds the live controllers of rendered home views, keyed by view
// id and owned by a visitor.
type Registry struct {
	mu       sync.Mutex
	views    map[string]*view
	perOwner int
	max      int
}

type view struct {
	owner      string
	controller *Controller
	opened     time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxViews sets the global view cap.
func WithMaxViews(n int) RegistryOption {
	return func(r *Registry) { r.max = n }
}

// WithViewsPerOwner sets the per-visitor view cap.
func WithViewsPerOwner(n int) RegistryOption {
	return func(r *Registry) { r.perOwner = n }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		views:    make(map[string]*view),
		perOwner: DefaultViewsPerOwner,
		max:      DefaultMaxViews,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open registers c for owner under a new view id and returns the id.
func (r *Registry) Open(owner string, c *Controller) string {
	id := uuid.NewString()
	r.Claim(id, owner, c)
	return id
}

// Claim registers c for owner under id. It reports false, leaving the
// registry unchanged, when id is already taken. The oldest views are closed
// when the owner's cap or the global cap is reached.
func (r *Registry) Claim(id, owner string, c *Controller) bool {
	r.mu.Lock()
	if _, taken := r.views[id]; taken {
		r.mu.Unlock()
		return false
	}

	var owned, all []string
	for vid, v := range r.views {
		all = append(all, vid)
		if v.owner == owner {
			owned = append(owned, vid)
		}
	}
	evicted := r.evictOldest(owned, r.perOwner)
	if len(all)-len(evicted) >= r.max {
		live := all[:0]
		for _, vid := range all {
			if _, ok := r.views[vid]; ok {
				live = append(live, vid)
			}
		}
		evicted = append(evicted, r.evictOldest(live, r.max)...)
	}
	r.views[id] = &view{owner: owner, controller: c, opened: time.Now()}
	r.mu.Unlock()

	for _, ec := range evicted {
		ec.Close()
	}
	return true
}

// evictOldest removes the oldest of ids so that one more view fits under
// limit. r.mu must be held.
func (r *Registry) evictOldest(ids []string, limit int) []*Controller {
	limit = max(limit, 1)
	if len(ids) < limit {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.views[ids[i]].opened.Before(r.views[ids[j]].opened)
	})
	var evicted []*Controller
	for _, vid := range ids[:len(ids)-limit+1] {
		evicted = append(evicted, r.views[vid].controller)
		delete(r.views, vid)
	}
	return evicted
}

// Get returns the controller for id if it belongs to owner.
func (r *Registry) Get(id, owner string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok || v.owner != owner {
		return nil, false
	}
	return v.controller, true
}

// Close removes the view and stops its controller.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	v, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()
	if ok {
		v.controller.Close()
	}
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep closes views idle for longer than idle and returns how many.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	var stale []*Controller
	for id, v := range r.views {
		if v.controller.idleSince().Before(cutoff) {
			stale = append(stale, v.controller)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// StartJanitor sweeps idle views every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(idle); n > 0 {
					slog.Debug("closed idle listing views", "count", n)
				}
			}
		}
	}()
}
