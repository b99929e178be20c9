// Package runstats holds the per-variant counters of an extraction run
package runstats

import (
	"sync/atomic"
	"time"
)

// Stats counts outcomes for one variant; all methods are safe for concurrent use
// Counters only grow
type Stats struct {
	attempts  atomic.Int64
	successes atomic.Int64
	throttled atomic.Int64
	failures  atomic.Int64
	requests  atomic.Int64

	start time.Time
	now   func() time.Time
}

// New starts a Stats clock at now()
func New(now func() time.Time) *Stats {
	if now == nil {
		now = time.Now
	}
	return &Stats{start: now(), now: now}
}

// Attempt counts one resolved prefix
func (s *Stats) Attempt() { s.attempts.Add(1) }

// Request counts one request sent on the wire
func (s *Stats) Request() { s.requests.Add(1) }

// Success counts one successful response
func (s *Stats) Success() { s.successes.Add(1) }

// Throttle counts one throttled response
func (s *Stats) Throttle() { s.throttled.Add(1) }

// Failure counts one non-throttle failure
func (s *Stats) Failure() { s.failures.Add(1) }

// Start returns when counting began
func (s *Stats) Start() time.Time { return s.start }

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Attempts  int64         `json:"attempts"`
	Successes int64         `json:"successes"`
	Throttled int64         `json:"rateLimited"`
	Failures  int64         `json:"failures"`
	Requests  int64         `json:"requests"`
	Results   int           `json:"results"`
	Elapsed   time.Duration `json:"elapsedNs"`
}

// Snapshot copies the counters; results is the current result-set size
func (s *Stats) Snapshot(results int) Snapshot {
	return Snapshot{
		Attempts:  s.attempts.Load(),
		Successes: s.successes.Load(),
		Throttled: s.throttled.Load(),
		Failures:  s.failures.Load(),
		Requests:  s.requests.Load(),
		Results:   results,
		Elapsed:   s.now().Sub(s.start),
	}
}

// Rate returns requests per second over the elapsed time, 0 when nothing elapsed
func (s Snapshot) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Requests) / s.Elapsed.Seconds()
}
