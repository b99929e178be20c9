// Package frontier enumerates an autocomplete vocabulary by adaptive prefix expansion
//
// A prefix whose response reaches the variant threshold may hide more names and is
// expanded by every valid next character; a prefix below the threshold is complete.
// A single coordinator owns the pending queue and the set of enqueued prefixes,
// workers only run queries.
package frontier

import (
	"context"

	"lexiscan/internal/core/normalize"
	"lexiscan/internal/core/runstats"
	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
)

// Order selects how pending prefixes are taken from the frontier
type Order int

const (
	// OrderDepthFirst explores the newest prefix first (stack)
	OrderDepthFirst Order = iota
	// OrderBreadthFirst explores the oldest prefix first (queue)
	OrderBreadthFirst
)

// ParseOrder maps "dfs"/"bfs" to an Order; anything else is depth-first
func ParseOrder(s string) Order {
	if s == "bfs" {
		return OrderBreadthFirst
	}
	return OrderDepthFirst
}

// String implements fmt.Stringer
func (o Order) String() string {
	if o == OrderBreadthFirst {
		return "bfs"
	}
	return "dfs"
}

// Querier resolves one prefix to the names the service returns for it
type Querier interface {
	Query(ctx context.Context, text string) ([]string, error)
}

// Options configures a Search
type Options struct {
	Profile variant.Profile
	Querier Querier
	Stats   *runstats.Stats // optional; attempts are counted here
	Results *ResultSet      // optional; a fresh set is used when nil
	Workers int             // concurrent queries; <=0 -> 1
	Order   Order
	Log     *logger.Logger

	// OnResolved is called by the coordinator after each prefix resolves
	OnResolved func(prefix string, count int, expanded bool)
}

// Search runs one enumeration for one variant
type Search struct {
	opt Options
	log *logger.Logger
}

// New validates opt and builds a Search
func New(opt Options) (*Search, error) {
	if opt.Querier == nil {
		return nil, perr.InvalidArgf("frontier: querier is required")
	}
	if opt.Profile.Threshold() <= 0 {
		return nil, perr.InvalidArgf("frontier: profile is required")
	}
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	if opt.Results == nil {
		opt.Results = NewResultSet()
	}
	if opt.Stats == nil {
		opt.Stats = runstats.New(nil)
	}
	log := opt.Log
	if log == nil {
		log = logger.Named("frontier")
	}
	return &Search{opt: opt, log: log}, nil
}

// Results returns the set this search fills
func (s *Search) Results() *ResultSet { return s.opt.Results }

type resolved struct {
	prefix string
	names  []string
	err    error
}

// Run explores the frontier until it empties or ctx ends
// On cancellation it stops dispatching, waits for in-flight queries and returns
// the partial result set together with the context error
func (s *Search) Run(ctx context.Context) (*ResultSet, error) {
	p := s.opt.Profile
	q := newFrontier(s.opt.Order)
	enqueued := make(map[string]struct{})

	push := func(prefixes []string) {
		fresh := make([]string, 0, len(prefixes))
		for _, pre := range prefixes {
			if _, seen := enqueued[pre]; seen {
				continue
			}
			enqueued[pre] = struct{}{}
			fresh = append(fresh, pre)
		}
		q.push(fresh)
	}
	push(p.Seeds())

	done := make(chan resolved, s.opt.Workers)
	inflight := 0
	var runErr error

	for q.len() > 0 || inflight > 0 {
		for runErr == nil && inflight < s.opt.Workers && q.len() > 0 {
			if err := ctx.Err(); err != nil {
				runErr = err
				break
			}
			prefix := q.pop()
			inflight++
			go func() {
				names, err := s.opt.Querier.Query(ctx, prefix)
				done <- resolved{prefix: prefix, names: names, err: err}
			}()
		}
		if inflight == 0 {
			break
		}

		r := <-done
		inflight--
		if r.err != nil {
			if runErr == nil {
				runErr = r.err
			}
			continue
		}

		s.opt.Stats.Attempt()
		s.opt.Results.Add(normalize.Names(r.names)...)

		expand := p.Truncated(len(r.names))
		if expand && runErr == nil {
			push(p.Expand(r.prefix))
		}
		if s.opt.OnResolved != nil {
			s.opt.OnResolved(r.prefix, len(r.names), expand)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && runErr == nil {
			runErr = ctxErr
		}
	}

	if runErr != nil {
		s.log.Info().Str("variant", p.Name()).Int("pending", q.len()).Int("results", s.opt.Results.Len()).
			Err(runErr).Msg("search stopped early")
	}
	return s.opt.Results, runErr
}

// frontier is a stack or a queue of pending prefixes
type frontier struct {
	order Order
	items []string
	head  int
}

func newFrontier(o Order) *frontier { return &frontier{order: o} }

func (f *frontier) len() int { return len(f.items) - f.head }

// push adds prefixes so they are taken in the given order
func (f *frontier) push(prefixes []string) {
	if f.order == OrderBreadthFirst {
		f.items = append(f.items, prefixes...)
		return
	}
	for i := len(prefixes) - 1; i >= 0; i-- {
		f.items = append(f.items, prefixes[i])
	}
}

func (f *frontier) pop() string {
	if f.order == OrderBreadthFirst {
		v := f.items[f.head]
		f.items[f.head] = ""
		f.head++
		if f.head > 1024 && f.head*2 > len(f.items) {
			f.items = append([]string(nil), f.items[f.head:]...)
			f.head = 0
		}
		return v
	}
	last := len(f.items) - 1
	v := f.items[last]
	f.items = f.items[:last]
	return v
}
