// Package governor admits requests under a sliding-window rate limit
// Each variant owns one Governor; admissions are recorded per rolling window
package governor

import (
	"context"
	"sync"
	"time"

	perr "lexiscan/internal/platform/errors"
)

// DefaultWindow is the rolling window the service enforces
const DefaultWindow = 60 * time.Second

// slack added to computed waits so the oldest entry has surely left the window
const slack = time.Millisecond

// Options configures a Governor
type Options struct {
	Limit  int           // admissions per window, required
	Window time.Duration // default 60s

	// clock seams
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// Governor is a sliding-window admission controller safe for concurrent use
type Governor struct {
	limit  int
	window time.Duration
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	entries []time.Time // oldest first
}

// New builds a Governor, applying defaults
func New(opt Options) (*Governor, error) {
	if opt.Limit <= 0 {
		return nil, perr.InvalidArgf("governor: limit must be positive, got %d", opt.Limit)
	}
	if opt.Window <= 0 {
		opt.Window = DefaultWindow
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.After == nil {
		opt.After = time.After
	}
	return &Governor{
		limit:   opt.Limit,
		window:  opt.Window,
		now:     opt.Now,
		after:   opt.After,
		entries: make([]time.Time, 0, opt.Limit),
	}, nil
}

// Acquire blocks until an admission is available, then records it
// Returns ctx.Err() if the context ends while waiting; nothing is recorded then
func (g *Governor) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, ok := g.admit()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.after(wait):
		}
	}
}

// TryAcquire records an admission if one is available right now
// When the window is full it returns false and the time until the oldest entry expires
func (g *Governor) TryAcquire() (bool, time.Duration) {
	wait, ok := g.admit()
	return ok, wait
}

// Len returns the number of admissions currently inside the window
func (g *Governor) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(g.now())
	return len(g.entries)
}

// Limit returns the configured admissions per window
func (g *Governor) Limit() int { return g.limit }

// Window returns the configured window
func (g *Governor) Window() time.Duration { return g.window }

// admit is the prune-check-record critical section
func (g *Governor) admit() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)
	if len(g.entries) >= g.limit {
		wait := g.window - now.Sub(g.entries[0]) + slack
		if wait < slack {
			wait = slack
		}
		return wait, false
	}
	g.entries = append(g.entries, now)
	return 0, true
}

// pruneLocked drops entries that are at least one window old
func (g *Governor) pruneLocked(now time.Time) {
	cut := 0
	for cut < len(g.entries) && now.Sub(g.entries[cut]) >= g.window {
		cut++
	}
	if cut == 0 {
		return
	}
	n := copy(g.entries, g.entries[cut:])
	g.entries = g.entries[:n]
}
