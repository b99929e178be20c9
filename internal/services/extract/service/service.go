// Package service runs extractions: one adaptive search per variant, progress
// reporting and hand-off of the results to every configured sink
package service

import (
	"time"

	"lexiscan/internal/core/backoff"
	"lexiscan/internal/core/frontier"
	"lexiscan/internal/core/governor"
	"lexiscan/internal/core/query"
	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/services/extract/domain"

	"github.com/google/uuid"
)

const (
	defaultProgressEvery = 5 * time.Second
	defaultSaveTimeout   = 30 * time.Second
)

// Config carries runtime knobs for a run
type Config struct {
	Workers       int // concurrent queries per variant
	Order         frontier.Order
	MaxRetries    int // throttled retries per query; 0 -> unbounded
	Backoff       backoff.Policy // zero value -> backoff.Default()
	ProgressEvery time.Duration
	Parallel      bool // run variants concurrently
	Window        time.Duration
	SaveTimeout   time.Duration
}

// Deps are the collaborators of a run
type Deps struct {
	Registry   *variant.Registry
	Capability query.Capability
	Sinks      []domain.Sink
	History    domain.History      // optional
	Recorder   query.ProbeRecorder // optional
	Log        *logger.Logger
}

// Svc implements domain.RunnerPort and domain.StatusPort
type Svc struct {
	cfg   Config
	deps  Deps
	log   *logger.Logger
	board *Board

	// seams
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	tick  func(time.Duration) <-chan time.Time // progress cadence, apart from the governor clock
	newID func() string
}

var (
	_ domain.RunnerPort = (*Svc)(nil)
	_ domain.StatusPort = (*Svc)(nil)
)

// New validates deps and fills config defaults
func New(d Deps, cfg Config) (*Svc, error) {
	if d.Capability == nil {
		return nil, perr.InvalidArgf("extract: capability is required")
	}
	if d.Registry == nil {
		d.Registry = variant.Builtin()
	}
	if d.Log == nil {
		d.Log = logger.Named("extract")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	if cfg.Window <= 0 {
		cfg.Window = governor.DefaultWindow
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = defaultSaveTimeout
	}
	return &Svc{
		cfg:   cfg,
		deps:  d,
		log:   d.Log,
		board: NewBoard(),
		now:   time.Now,
		after: time.After,
		tick:  time.After,
		newID: func() string { return uuid.NewString() },
	}, nil
}

// Status implements domain.StatusPort
func (s *Svc) Status() domain.Status { return s.board.Status() }

// Sinks lists the names of the configured sinks
func (s *Svc) Sinks() []string {
	out := make([]string, 0, len(s.deps.Sinks))
	for _, k := range s.deps.Sinks {
		out = append(out, k.Name())
	}
	return out
}
