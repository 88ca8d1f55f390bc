package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// search is committed.
const DefaultDebounce = 500 * time.Millisecond

// Fetcher loads the listing page selected by q.
type Fetcher func(ctx context.Context, q Query) (*domain.BlogPage, error)

// Result is an accepted fetch outcome for the committed query.
type Result struct {
	Query      Query
	Blogs      []domain.Blog
	Meta       domain.PageMeta
	TotalPages int
	Err        error
}

// Pager returns the pagination model for the result.
func (r Result) Pager() Pager {
	return NewPager(r.Query.Page, r.TotalPages)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the search debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithAfterFunc replaces the timer used by the search debouncer.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.after = fn }
}

// Controller owns the listing state of one rendered home view: the committed
// query, the debounced search input and the latest accepted result.
//
// Each change of the committed query starts exactly one fetch. Fetches are
// never cancelled; a result whose query differs from the committed query at
// the time it completes is discarded.
type Controller struct {
	fetch  Fetcher
	delay  time.Duration
	after  AfterFunc
	search *Debounced[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	query      Query
	totalPages int
	known      bool
	latest     *Result
	observers  map[int]func(Result)
	nextObs    int
	closed     bool
	lastUsed   time.Time

	notifyMu sync.Mutex
}

// NewController returns a controller whose committed query starts at initial.
// Nothing is fetched until Start.
func NewController(fetch Fetcher, initial Query, opts ...Option) *Controller {
	if initial.Page < 1 {
		initial.Page = 1
	}
	c := &Controller{
		fetch:     fetch,
		delay:     DefaultDebounce,
		query:     initial,
		observers: make(map[int]func(Result)),
		lastUsed:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.search = NewDebounced(initial.Search, c.delay, c.after, c.CommitSearch)
	return c
}

// Start fetches the initial query.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchLocked(c.query)
}

// Type feeds raw search input into the debouncer.
func (c *Controller) Type(raw string) {
	c.touch()
	c.search.Set(raw)
}

// FlushSearch commits pending search input immediately.
func (c *Controller) FlushSearch() bool {
	return c.search.Flush()
}

// CommitSearch sets the committed search and resets the page to 1, fetching
// if the committed query changed.
func (c *Controller) CommitSearch(search string) {
	c.search.Reset(search)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	next := Query{Page: 1, Search: search}
	if next == c.query {
		return
	}
	if next.Search != c.query.Search {
		c.known = false
	}
	c.query = next
	c.fetchLocked(next)
}

// SetPage moves to page n, clamped to [1, TotalPages] once the page count is
// known.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	c.setPageLocked(n)
}

// Prev moves one page back. It does nothing on the first page.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	if c.query.Page <= 1 {
		return
	}
	c.setPageLocked(c.query.Page - 1)
}

// Next moves one page forward. It does nothing on the last page or while the
// page count is unknown.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	if !c.known || c.query.Page >= c.totalPages {
		return
	}
	c.setPageLocked(c.query.Page + 1)
}

func (c *Controller) setPageLocked(n int) {
	if n < 1 {
		n = 1
	}
	if c.known {
		n = min(n, max(c.totalPages, 1))
	}
	if n == c.query.Page {
		return
	}
	c.query.Page = n
	c.fetchLocked(c.query)
}

func (c *Controller) fetchLocked(q Query) {
	if c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetch(c.ctx, q)
		c.complete(q, page, err)
	}()
}

func (c *Controller) complete(q Query, page *domain.BlogPage, err error) {
	c.mu.Lock()
	if c.closed || q != c.query {
		c.mu.Unlock()
		slog.Debug("discarding stale listing result", "page", q.Page, "search", q.Search)
		return
	}

	r := &Result{Query: q}
	if err != nil {
		r.Err = err
	} else {
		tp := page.Meta.TotalPages()
		c.totalPages = tp
		c.known = true
		if last := max(tp, 1); q.Page > last {
			c.query.Page = last
			c.fetchLocked(c.query)
			c.mu.Unlock()
			return
		}
		r.Blogs = page.Data
		r.Meta = page.Meta
		r.TotalPages = tp
	}
	c.latest = r
	fns := make([]func(Result), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	// A newer result may have been accepted while waiting.
	c.mu.Lock()
	current := c.latest == r
	c.mu.Unlock()
	if !current {
		return
	}
	for _, fn := range fns {
		fn(*r)
	}
}

// Subscribe registers fn to receive each accepted result. The returned
// function removes it.
func (c *Controller) Subscribe(fn func(Result)) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Latest returns the most recent accepted result.
func (c *Controller) Latest() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Result{}, false
	}
	return *c.latest, true
}

// Query returns the committed query.
func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// TotalPages returns the page count and whether it is known yet.
func (c *Controller) TotalPages() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages, c.known
}

// RawSearch returns the uncommitted search input.
func (c *Controller) RawSearch() string {
	return c.search.Raw()
}

// Wait blocks until every started fetch has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops the debouncer and drops the results of in-flight fetches.
func (c *Controller) Close() {
	c.search.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}
