package listing

import (
	"sync"
	"time"
)

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debounced holds a raw value and a committed value. The raw value is
// promoted to committed once it has stayed unchanged for the delay, and
// onCommit is then called with it. Promotion is skipped when the raw value
// equals the committed one.
type Debounced[T comparable] struct {
	delay    time.Duration
	after    AfterFunc
	onCommit func(T)

	mu        sync.Mutex
	raw       T
	committed T
	pending   bool
	timer     Timer
	gen       uint64
}

// NewDebounced returns a Debounced starting at initial. after may be nil to
// use time.AfterFunc.
func NewDebounced[T comparable](initial T, delay time.Duration, after AfterFunc, onCommit func(T)) *Debounced[T] {
	if after == nil {
		after = realAfterFunc
	}
	return &Debounced[T]{
		delay:     delay,
		after:     after,
		onCommit:  onCommit,
		raw:       initial,
		committed: initial,
	}
}

// Set records a new raw value and restarts the delay.
func (d *Debounced[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.raw = v
	if v == d.committed {
		return
	}
	d.pending = true
	gen := d.gen
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

func (d *Debounced[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.gen++
	d.committed = d.raw
	v := d.committed
	d.mu.Unlock()

	if d.onCommit != nil {
		d.onCommit(v)
	}
}

// Flush promotes a pending raw value immediately. It reports whether a
// value was committed.
func (d *Debounced[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.committed = d.raw
	v := d.committed
	d.mu.Unlock()

	if d.onCommit != nil {
		d.onCommit(v)
	}
	return true
}

// Reset sets both values to v without calling onCommit.
func (d *Debounced[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.raw = v
	d.committed = v
}

// Stop cancels any pending promotion.
func (d *Debounced[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debounced[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.gen++
}

// Raw returns the latest value passed to Set.
func (d *Debounced[T]) Raw() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Committed returns the last promoted value.
func (d *Debounced[T]) Committed() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Pending reports whether a raw value is waiting to be promoted.
func (d *Debounced[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
