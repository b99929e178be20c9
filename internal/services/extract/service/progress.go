package service

import (
	"context"
	"sync"

	"lexiscan/internal/core/frontier"
	"lexiscan/internal/core/runstats"
	"lexiscan/internal/core/variant"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/services/extract/domain"

	"github.com/rs/zerolog"
)

// watch publishes a snapshot every ProgressEvery until the returned stop is called
// Purely observational; it never touches the search
func (s *Svc) watch(
	ctx context.Context,
	log *logger.Logger,
	name string,
	prof variant.Profile,
	stats *runstats.Stats,
	results *frontier.ResultSet,
) (stop func()) {
	s.publish(name, prof, domain.StateRunning, stats.Snapshot(results.Len()))

	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			case <-ctx.Done():
				return
			case <-s.tick(s.cfg.ProgressEvery):
				snap := stats.Snapshot(results.Len())
				s.publish(name, prof, domain.StateRunning, snap)
				logSnapshot(log.Info(), snap).Msg("progress")
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
		})
	}
}

func logSnapshot(evt *zerolog.Event, snap runstats.Snapshot) *zerolog.Event {
	return evt.Dur("elapsed", snap.Elapsed).
		Int64("attempts", snap.Attempts).
		Int64("successes", snap.Successes).
		Int64("rate_limited", snap.Throttled).
		Int64("failures", snap.Failures).
		Int64("requests", snap.Requests).
		Int("results", snap.Results).
		Float64("req_per_sec", snap.Rate())
}
