// Package query issues one logical autocomplete query under a rate governor,
// retrying throttled responses with backoff
package query

import (
	"context"
	"time"

	"lexiscan/internal/core/backoff"
	"lexiscan/internal/core/runstats"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
)

// Capability sends one request for text to a variant's endpoint
// A throttled response is an error with perr.ErrorCodeTooManyRequests; any other error is a failure
type Capability interface {
	Send(ctx context.Context, variant, text string) ([]string, error)
}

// CapabilityFunc adapts a function to Capability
type CapabilityFunc func(ctx context.Context, variant, text string) ([]string, error)

// Send implements Capability
func (f CapabilityFunc) Send(ctx context.Context, variant, text string) ([]string, error) {
	return f(ctx, variant, text)
}

// Acquirer grants admission to send one request
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// Outcome classifies how a logical query ended
type Outcome string

// Outcomes
const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCancelled Outcome = "cancelled"
)

// Probe describes one logical query after it resolved
type Probe struct {
	Variant string
	Prefix  string
	Outcome Outcome
	Results int
	Retries int
	Latency time.Duration
	At      time.Time
}

// ProbeRecorder receives probes; implementations must not block the caller for long
type ProbeRecorder interface {
	Record(ctx context.Context, p Probe)
}

// Options configures a Client
type Options struct {
	Variant    string
	Capability Capability
	Governor   Acquirer
	Stats      *runstats.Stats
	Backoff    backoff.Policy
	MaxRetries int // throttled retries per query; 0 -> unbounded
	Recorder   ProbeRecorder
	Log        *logger.Logger

	// clock seams
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// Client turns a prefix into the list of names the service returns for it
type Client struct {
	opt   Options
	log   *logger.Logger
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New validates opt and builds a Client
func New(opt Options) (*Client, error) {
	if opt.Capability == nil {
		return nil, perr.InvalidArgf("query: capability is required")
	}
	if opt.Governor == nil {
		return nil, perr.InvalidArgf("query: governor is required")
	}
	if opt.Variant == "" {
		return nil, perr.InvalidArgf("query: variant is required")
	}
	if opt.Stats == nil {
		opt.Stats = runstats.New(opt.Now)
	}
	if opt.MaxRetries < 0 {
		opt.MaxRetries = 0
	}
	c := &Client{opt: opt, log: opt.Log, now: opt.Now, after: opt.After}
	if c.log == nil {
		c.log = logger.Named("query")
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.after == nil {
		c.after = time.After
	}
	return c, nil
}

// Stats returns the counters this client updates
func (c *Client) Stats() *runstats.Stats { return c.opt.Stats }

// Query resolves text to names. Failures other than throttling degrade to an empty list
// The error is non-nil only when ctx ends; names gathered so far are then discarded
func (c *Client) Query(ctx context.Context, text string) ([]string, error) {
	start := c.now()
	retry := 0
	for {
		if err := c.opt.Governor.Acquire(ctx); err != nil {
			c.record(ctx, text, OutcomeCancelled, 0, retry, start)
			return nil, err
		}

		c.opt.Stats.Request()
		names, err := c.opt.Capability.Send(ctx, c.opt.Variant, text)
		if err == nil {
			c.opt.Stats.Success()
			if names == nil {
				names = []string{}
			}
			c.record(ctx, text, OutcomeSuccess, len(names), retry, start)
			return names, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.record(ctx, text, OutcomeCancelled, 0, retry, start)
			return nil, ctxErr
		}

		if !perr.IsThrottled(err) {
			c.opt.Stats.Failure()
			c.log.Warn().Err(err).Str("variant", c.opt.Variant).Str("prefix", text).
				Str("code", perr.CodeOf(err).String()).Msg("query failed; treating as empty")
			c.record(ctx, text, OutcomeFailure, 0, retry, start)
			return []string{}, nil
		}

		c.opt.Stats.Throttle()
		if c.opt.MaxRetries > 0 && retry >= c.opt.MaxRetries {
			c.opt.Stats.Failure()
			c.log.Warn().Str("variant", c.opt.Variant).Str("prefix", text).Int("retries", retry).
				Msg("throttled retries exhausted; treating as empty")
			c.record(ctx, text, OutcomeExhausted, 0, retry, start)
			return []string{}, nil
		}

		wait := c.opt.Backoff.DelayFor(retry)
		c.log.Debug().Str("variant", c.opt.Variant).Str("prefix", text).Int("retry", retry).
			Dur("retry_in", wait).Msg("throttled; backing off")
		select {
		case <-ctx.Done():
			c.record(ctx, text, OutcomeCancelled, 0, retry, start)
			return nil, ctx.Err()
		case <-c.after(wait):
		}
		retry++
	}
}

func (c *Client) record(ctx context.Context, text string, out Outcome, n, retries int, start time.Time) {
	if c.opt.Recorder == nil {
		return
	}
	now := c.now()
	c.opt.Recorder.Record(ctx, Probe{
		Variant: c.opt.Variant,
		Prefix:  text,
		Outcome: out,
		Results: n,
		Retries: retries,
		Latency: now.Sub(start),
		At:      now,
	})
}
