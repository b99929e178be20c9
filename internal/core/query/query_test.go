package query

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"lexiscan/internal/core/backoff"
	"lexiscan/internal/core/runstats"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	kit "lexiscan/internal/platform/testkit"
)

// scripted replays one reply per Send call, repeating the last one
type scripted struct {
	mu      sync.Mutex
	replies []reply
	calls   []string
}

type reply struct {
	names []string
	err   error
}

func (s *scripted) Send(_ context.Context, variant, text string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, variant+":"+text)
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r.names, r.err
}

type countingGov struct {
	mu sync.Mutex
	n  int
}

func (g *countingGov) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.n++
	g.mu.Unlock()
	return nil
}

type memRecorder struct {
	mu     sync.Mutex
	probes []Probe
}

func (m *memRecorder) Record(_ context.Context, p Probe) {
	m.mu.Lock()
	m.probes = append(m.probes, p)
	m.mu.Unlock()
}

func throttled() error { return perr.Throttledf("429") }

func newClient(t *testing.T, fake Capability, clk *kit.FakeClock, mutate func(*Options)) (*Client, *countingGov) {
	t.Helper()
	gov := &countingGov{}
	opt := Options{
		Variant:    "v1",
		Capability: fake,
		Governor:   gov,
		Stats:      runstats.New(clk.Now),
		Backoff:    backoff.Policy{Jitter: -1},
		Log:        logger.Nop(),
		Now:        clk.Now,
		After:      clk.After,
	}
	if mutate != nil {
		mutate(&opt)
	}
	c, err := New(opt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, gov
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Variant: "v1", Governor: &countingGov{}}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing capability: %v", err)
	}
	if _, err := New(Options{Variant: "v1", Capability: &scripted{}}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing governor: %v", err)
	}
	if _, err := New(Options{Capability: &scripted{}, Governor: &countingGov{}}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing variant: %v", err)
	}
}

func TestQuery_Success(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{names: []string{"aa", "ab"}}}}
	rec := &memRecorder{}
	c, gov := newClient(t, fake, clk, func(o *Options) { o.Recorder = rec })

	got, err := c.Query(context.Background(), "a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"aa", "ab"}) {
		t.Fatalf("names = %v", got)
	}
	if gov.n != 1 || !reflect.DeepEqual(fake.calls, []string{"v1:a"}) {
		t.Fatalf("acquires=%d calls=%v", gov.n, fake.calls)
	}
	snap := c.Stats().Snapshot(0)
	if snap.Requests != 1 || snap.Successes != 1 || snap.Throttled != 0 || snap.Failures != 0 {
		t.Fatalf("stats = %+v", snap)
	}
	if len(rec.probes) != 1 || rec.probes[0].Outcome != OutcomeSuccess || rec.probes[0].Results != 2 {
		t.Fatalf("probes = %+v", rec.probes)
	}
}

func TestQuery_NilNamesBecomeEmpty(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	c, _ := newClient(t, &scripted{replies: []reply{{}}}, clk, nil)
	got, err := c.Query(context.Background(), "zz")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got %v, %v; want empty non-nil", got, err)
	}
}

func TestQuery_ThrottledThenSuccess(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{err: throttled()}, {err: throttled()}, {names: []string{"x"}}}}
	c, gov := newClient(t, fake, clk, nil)

	type result struct {
		names []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		n, err := c.Query(context.Background(), "x")
		done <- result{n, err}
	}()

	// first retry waits 1s, second 2s
	if !clk.BlockUntil(1, time.Second) {
		t.Fatalf("no backoff after first throttle")
	}
	clk.Advance(999 * time.Millisecond)
	if clk.Pending() != 1 {
		t.Fatalf("first backoff released early")
	}
	clk.Advance(time.Millisecond)
	if !clk.BlockUntil(1, time.Second) {
		t.Fatalf("no backoff after second throttle")
	}
	clk.Advance(2 * time.Second)

	select {
	case r := <-done:
		if r.err != nil || !reflect.DeepEqual(r.names, []string{"x"}) {
			t.Fatalf("got %v, %v", r.names, r.err)
		}
	case <-time.After(time.Second):
		t.Fatalf("query did not finish")
	}
	if gov.n != 3 {
		t.Fatalf("every attempt must pass the governor, acquires = %d", gov.n)
	}
	snap := c.Stats().Snapshot(0)
	if snap.Requests != 3 || snap.Throttled != 2 || snap.Successes != 1 || snap.Failures != 0 {
		t.Fatalf("stats = %+v", snap)
	}
}

func TestQuery_FailureIsEmptyAndNotRetried(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{err: perr.Malformedf("status 500")}, {names: []string{"never"}}}}
	rec := &memRecorder{}
	c, gov := newClient(t, fake, clk, func(o *Options) { o.Recorder = rec })

	got, err := c.Query(context.Background(), "q")
	if err != nil {
		t.Fatalf("failure must not surface as error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("failure must yield empty list, got %v", got)
	}
	if gov.n != 1 || len(fake.calls) != 1 {
		t.Fatalf("failure must not be retried: acquires=%d calls=%d", gov.n, len(fake.calls))
	}
	snap := c.Stats().Snapshot(0)
	if snap.Failures != 1 || snap.Requests != 1 || snap.Successes != 0 {
		t.Fatalf("stats = %+v", snap)
	}
	if rec.probes[0].Outcome != OutcomeFailure {
		t.Fatalf("probe outcome = %s", rec.probes[0].Outcome)
	}
}

func TestQuery_MaxRetriesExhausted(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{err: throttled()}}}
	c, _ := newClient(t, fake, clk, func(o *Options) { o.MaxRetries = 2 })

	done := make(chan []string, 1)
	go func() {
		n, _ := c.Query(context.Background(), "q")
		done <- n
	}()
	for i := 0; i < 2; i++ {
		if !clk.BlockUntil(1, time.Second) {
			t.Fatalf("retry %d did not back off", i)
		}
		clk.Advance(time.Minute)
	}
	select {
	case n := <-done:
		if n == nil || len(n) != 0 {
			t.Fatalf("exhausted query must yield empty list, got %v", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("query did not give up")
	}
	snap := c.Stats().Snapshot(0)
	if snap.Requests != 3 || snap.Throttled != 3 || snap.Failures != 1 {
		t.Fatalf("stats = %+v", snap)
	}
}

func TestQuery_CancelDuringBackoff(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{err: throttled()}}}
	c, _ := newClient(t, fake, clk, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Query(ctx, "q")
		done <- err
	}()
	if !clk.BlockUntil(1, time.Second) {
		t.Fatalf("no backoff")
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancel did not interrupt backoff")
	}
}

func TestQuery_CancelledBeforeAdmission(t *testing.T) {
	clk := kit.NewFakeClock(time.Unix(0, 0))
	fake := &scripted{replies: []reply{{names: []string{"a"}}}}
	rec := &memRecorder{}
	c, _ := newClient(t, fake, clk, func(o *Options) { o.Recorder = rec })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Query(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("no request may be sent without admission")
	}
	if len(rec.probes) != 1 || rec.probes[0].Outcome != OutcomeCancelled {
		t.Fatalf("probes = %+v", rec.probes)
	}
}

func TestCapabilityFunc(t *testing.T) {
	f := CapabilityFunc(func(_ context.Context, v, q string) ([]string, error) { return []string{v + q}, nil })
	got, _ := f.Send(context.Background(), "v2", "ab")
	if got[0] != "v2ab" {
		t.Fatalf("got %v", got)
	}
}
