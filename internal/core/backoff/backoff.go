// Package backoff computes retry delays for throttled requests
package backoff

import (
	"math/rand/v2"
	"time"
)

const (
	defaultInitial = time.Second
	defaultMax     = 60 * time.Second
	defaultJitter  = time.Second
)

// Policy is an exponential backoff with an additive uniform jitter
// It never decides to give up; callers own any retry bound
type Policy struct {
	Initial time.Duration // delay before the first retry; <=0 -> 1s
	Max     time.Duration // cap on the exponential part; <=0 -> 60s
	Jitter  time.Duration // jitter is drawn from [0, Jitter); <0 -> none, 0 -> 1s

	// seam
	rand func(n int64) int64
}

// Default returns the policy used against the autocomplete service
func Default() Policy { return Policy{} }

// DelayFor returns min(Max, Initial*2^retry) + jitter for the given zero-based retry
func (p Policy) DelayFor(retry int) time.Duration {
	initial, maxD, jitter := p.Initial, p.Max, p.Jitter
	if initial <= 0 {
		initial = defaultInitial
	}
	if maxD <= 0 {
		maxD = defaultMax
	}
	if jitter == 0 {
		jitter = defaultJitter
	}
	if retry < 0 {
		retry = 0
	}

	// doubling stops at the cap, so large retry counts cannot overflow
	d := initial
	for i := 0; i < retry && d < maxD; i++ {
		d *= 2
	}
	if d > maxD {
		d = maxD
	}

	if jitter > 0 {
		rnd := p.rand
		if rnd == nil {
			rnd = rand.Int64N
		}
		d += time.Duration(rnd(int64(jitter)))
	}
	return d
}
