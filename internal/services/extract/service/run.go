package service

import (
	"context"
	"errors"

	"lexiscan/internal/core/frontier"
	"lexiscan/internal/core/governor"
	"lexiscan/internal/core/query"
	"lexiscan/internal/core/runstats"
	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/services/extract/domain"

	"golang.org/x/sync/errgroup"
)

// Run enumerates every named variant; an empty list means every registered variant
// Summaries come back in the order of variants, skipping variants that never started
// A sink failure aborts the run and is returned; cancellation returns the partial
// summaries (already saved, marked Cancelled) together with the context error
func (s *Svc) Run(ctx context.Context, variants []string) ([]domain.Summary, error) {
	variants = dedupe(variants)
	if len(variants) == 0 {
		variants = s.deps.Registry.Names()
	}
	runID := s.newID()
	s.board.begin(runID, s.now(), variants)

	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Strs("variants", variants).Bool("parallel", s.cfg.Parallel).
		Int("workers", s.cfg.Workers).Str("order", s.cfg.Order.String()).
		Strs("sinks", s.Sinks()).Msg("extraction started")

	out := make([]domain.Summary, len(variants))
	ran := make([]bool, len(variants))
	var err error

	if s.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, name := range variants {
			g.Go(func() error {
				sum, err := s.runVariant(gctx, runID, name)
				if err != nil {
					return err
				}
				out[i], ran[i] = sum, true
				return nil
			})
		}
		err = g.Wait()
	} else {
		for i, name := range variants {
			if ctx.Err() != nil {
				break
			}
			sum, verr := s.runVariant(ctx, runID, name)
			if verr != nil {
				err = verr
				break
			}
			out[i], ran[i] = sum, true
		}
	}

	res := make([]domain.Summary, 0, len(variants))
	var total int
	for i := range out {
		if ran[i] {
			res = append(res, out[i])
			total += out[i].Count()
		}
	}
	if err == nil {
		err = ctx.Err()
	}

	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Int("variants_done", len(res)).Int("names", total).Msg("extraction finished")
	return res, err
}

// runVariant only returns an error for sink failures or broken wiring; a cancelled
// search still yields a saved summary
func (s *Svc) runVariant(ctx context.Context, runID, name string) (domain.Summary, error) {
	prof, fellBack := s.deps.Registry.Resolve(name)
	ctx = logger.WithRun(ctx, runID, name)
	log := s.log.With().Str("run_id", runID).Str("variant", name).Logger()
	if fellBack {
		log.Warn().Str("profile", prof.Name()).Msg("unknown variant; using the default profile")
	}

	gov, err := governor.New(governor.Options{
		Limit:  prof.RateLimit(),
		Window: s.cfg.Window,
		Now:    s.now,
		After:  s.after,
	})
	if err != nil {
		return domain.Summary{}, err
	}
	stats := runstats.New(s.now)
	results := frontier.NewResultSet()

	client, err := query.New(query.Options{
		Variant:    name,
		Capability: s.deps.Capability,
		Governor:   gov,
		Stats:      stats,
		Backoff:    s.cfg.Backoff,
		MaxRetries: s.cfg.MaxRetries,
		Recorder:   s.deps.Recorder,
		Log:        &log,
		Now:        s.now,
		After:      s.after,
	})
	if err != nil {
		return domain.Summary{}, err
	}
	search, err := frontier.New(frontier.Options{
		Profile: prof,
		Querier: client,
		Stats:   stats,
		Results: results,
		Workers: s.cfg.Workers,
		Order:   s.cfg.Order,
		Log:     &log,
		OnResolved: func(prefix string, count int, expanded bool) {
			if expanded {
				log.Debug().Str("prefix", prefix).Int("count", count).Msg("prefix truncated; expanding")
			}
		},
	})
	if err != nil {
		return domain.Summary{}, err
	}

	known := s.knownNames(ctx, name, &log)

	log.Info().Str("profile", prof.Name()).Int("threshold", prof.Threshold()).
		Int("rate_limit", prof.RateLimit()).Int("alphabet", len(prof.Alphabet())).Msg("variant started")

	stop := s.watch(ctx, &log, name, prof, stats, results)
	_, runErr := search.Run(ctx)
	stop()

	cancelled := false
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
			s.publish(name, prof, domain.StateFailed, stats.Snapshot(results.Len()))
			return domain.Summary{}, runErr
		}
		cancelled = true
	}

	snap := stats.Snapshot(results.Len())
	sum := domain.Summary{
		RunID:       runID,
		Variant:     name,
		Profile:     prof.Name(),
		Attempts:    snap.Attempts,
		Successes:   snap.Successes,
		RateLimited: snap.Throttled,
		Failures:    snap.Failures,
		Requests:    snap.Requests,
		Elapsed:     snap.Elapsed,
		StartedAt:   stats.Start(),
		FinishedAt:  stats.Start().Add(snap.Elapsed),
		Names:       results.Sorted(),
		Known:       countKnown(known, results),
		Cancelled:   cancelled,
	}
	logSnapshot(log.Info(), snap).Bool("cancelled", cancelled).Int("known", sum.Known).Msg("variant finished")

	if err := s.save(ctx, &log, sum); err != nil {
		s.publish(name, prof, domain.StateFailed, snap)
		return sum, err
	}
	state := domain.StateDone
	if cancelled {
		state = domain.StateCancelled
	}
	s.publish(name, prof, state, snap)
	return sum, nil
}

// save hands sum to every sink; cancellation of the run does not cancel the save
func (s *Svc) save(ctx context.Context, log *logger.Logger, sum domain.Summary) error {
	if len(s.deps.Sinks) == 0 {
		return nil
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SaveTimeout)
	defer cancel()
	for _, k := range s.deps.Sinks {
		if err := k.Save(sctx, sum); err != nil {
			log.Error().Err(err).Str("sink", k.Name()).Msg("save failed")
			if _, ok := perr.As(err); ok {
				return perr.WithOp(err, "sink "+k.Name())
			}
			return perr.Wrapf(err, perr.ErrorCodeStore, "sink %s", k.Name())
		}
		log.Debug().Str("sink", k.Name()).Int("names", sum.Count()).Msg("saved")
	}
	return nil
}

// knownNames returns nil when no history is wired or it cannot be read
func (s *Svc) knownNames(ctx context.Context, name string, log *logger.Logger) map[string]struct{} {
	if s.deps.History == nil {
		return nil
	}
	prev, err := s.deps.History.Names(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable; known count disabled")
		return nil
	}
	out := make(map[string]struct{}, len(prev))
	for _, n := range prev {
		out[n] = struct{}{}
	}
	log.Info().Int("known", len(out)).Msg("history loaded")
	return out
}

func countKnown(known map[string]struct{}, results *frontier.ResultSet) int {
	if known == nil {
		return -1
	}
	n := 0
	for k := range known {
		if results.Contains(k) {
			n++
		}
	}
	return n
}

func (s *Svc) publish(name string, prof variant.Profile, st domain.State, snap runstats.Snapshot) {
	s.board.publish(domain.Progress{
		Variant:  name,
		Profile:  prof.Name(),
		State:    st,
		Snapshot: snap,
		At:       s.now(),
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
