package listing_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/listing"
)

type fakeTimer struct {
	clock   *fakeClock
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock collects scheduled functions until Fire is called.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) listing.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Fire runs every timer that is still active.
func (c *fakeClock) Fire() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.timers = nil
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Active returns the number of scheduled timers not yet stopped or fired.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeBlogs serves a listing of total posts, six per page.
type fakeBlogs struct {
	mu    sync.Mutex
	total int
	calls []listing.Query
}

func (f *fakeBlogs) fetch(_ context.Context, q listing.Query) (*domain.BlogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	return &domain.BlogPage{
		Data: []domain.Blog{{Title: fmt.Sprintf("%s#%d", q.Search, q.Page)}},
		Meta: domain.PageMeta{Page: q.Page, Take: 6, Total: f.total},
	}, nil
}

func (f *fakeBlogs) Calls() []listing.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listing.Query(nil), f.calls...)
}
