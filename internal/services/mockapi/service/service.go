// Package service answers autocomplete queries over a stored vocabulary,
// truncating at the variant threshold and throttling at the variant rate
package service

import (
	"context"
	"time"

	"lexiscan/internal/core/governor"
	"lexiscan/internal/core/normalize"
	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/services/mockapi/domain"
)

// Config carries runtime knobs
type Config struct {
	Version  string
	Throttle bool
	Window   time.Duration // throttle window, default governor.DefaultWindow
}

// Svc implements domain.ServerPort
type Svc struct {
	cfg   Config
	reg   *variant.Registry
	vocab domain.Vocabulary
	log   *logger.Logger
	gov   map[string]*governor.Governor

	now func() time.Time
}

var _ domain.ServerPort = (*Svc)(nil)

// New builds one governor per known variant
func New(reg *variant.Registry, vocab domain.Vocabulary, cfg Config, log *logger.Logger) (*Svc, error) {
	if vocab == nil {
		return nil, perr.InvalidArgf("mockapi: vocabulary is required")
	}
	if reg == nil {
		reg = variant.Builtin()
	}
	if log == nil {
		log = logger.Named("mockapi")
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	s := &Svc{cfg: cfg, reg: reg, vocab: vocab, log: log, gov: map[string]*governor.Governor{}, now: time.Now}
	for _, name := range reg.Names() {
		p, _ := reg.Lookup(name)
		g, err := governor.New(governor.Options{Limit: p.RateLimit(), Window: cfg.Window, Now: s.clock})
		if err != nil {
			return nil, err
		}
		s.gov[name] = g
	}
	return s, nil
}

func (s *Svc) clock() time.Time { return s.now() }

func (s *Svc) profile(name string) (variant.Profile, error) {
	p, ok := s.reg.Lookup(name)
	if !ok {
		return variant.Profile{}, perr.NotFoundf("unknown variant %q", name)
	}
	return p, nil
}

// Complete implements domain.ServerPort
// Throttled calls fail with a TooManyRequests error wrapping *domain.Throttled
func (s *Svc) Complete(ctx context.Context, name, query string) (domain.Completion, error) {
	p, err := s.profile(name)
	if err != nil {
		return domain.Completion{}, err
	}
	if s.cfg.Throttle {
		if ok, wait := s.gov[name].TryAcquire(); !ok {
			return domain.Completion{}, perr.Wrap(&domain.Throttled{Wait: wait}, perr.ErrorCodeTooManyRequests, "rate limited")
		}
	}
	results, err := s.vocab.Complete(ctx, name, query, p.Threshold())
	if err != nil {
		return domain.Completion{}, err
	}
	if results == nil {
		results = []string{}
	}
	return domain.Completion{Version: s.cfg.Version, Count: len(results), Results: results}, nil
}

// Add implements domain.ServerPort; names the variant cannot reach are rejected
func (s *Svc) Add(ctx context.Context, name string, names []string) (domain.AddResult, error) {
	p, err := s.profile(name)
	if err != nil {
		return domain.AddResult{}, err
	}
	ok := make([]string, 0, len(names))
	for _, n := range names {
		n = normalize.Name(n)
		if n != "" && p.Accepts(n) {
			ok = append(ok, n)
		}
	}
	if err := s.vocab.Add(ctx, name, ok...); err != nil {
		return domain.AddResult{}, err
	}
	size, err := s.vocab.Len(ctx, name)
	if err != nil {
		return domain.AddResult{}, err
	}
	return domain.AddResult{Variant: name, Accepted: len(ok), Rejected: len(names) - len(ok), Size: size}, nil
}

// Seed distributes names to every variant that accepts them
func (s *Svc) Seed(ctx context.Context, names []string) error {
	for _, v := range s.reg.Names() {
		res, err := s.Add(ctx, v, names)
		if err != nil {
			return err
		}
		s.log.Info().Str("variant", v).Int("accepted", res.Accepted).Int("size", res.Size).Msg("vocabulary seeded")
	}
	return nil
}

// Stats implements domain.ServerPort
func (s *Svc) Stats(ctx context.Context, name string) (domain.VariantStats, error) {
	p, err := s.profile(name)
	if err != nil {
		return domain.VariantStats{}, err
	}
	size, err := s.vocab.Len(ctx, name)
	if err != nil {
		return domain.VariantStats{}, err
	}
	return domain.VariantStats{
		Variant:   name,
		Size:      size,
		Threshold: p.Threshold(),
		RateLimit: p.RateLimit(),
		InWindow:  s.gov[name].Len(),
	}, nil
}

// Variants lists the served variant names
func (s *Svc) Variants() []string { return s.reg.Names() }

// Registry returns the served profiles
func (s *Svc) Registry() *variant.Registry { return s.reg }
