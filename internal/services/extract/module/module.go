// Package module wires the extract service and exposes its ports
package module

import (
	"context"
	"errors"

	"lexiscan/internal/adapters/autocomplete"
	"lexiscan/internal/core/backoff"
	"lexiscan/internal/core/frontier"
	"lexiscan/internal/core/query"
	"lexiscan/internal/core/variant"
	"lexiscan/internal/modkit"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/services/extract/domain"
	exthttp "lexiscan/internal/services/extract/http"
	"lexiscan/internal/services/extract/repo"
	"lexiscan/internal/services/extract/service"
)

// Ports defines extract module ports exposed via the registry
type Ports struct {
	Runner domain.RunnerPort
	Status domain.StatusPort
}

// Module defines the extract module
type Module struct {
	deps     modkit.Deps
	opts     Options
	log      *logger.Logger
	registry *variant.Registry
	svc      *service.Svc
	ports    Ports
	built    modkit.Built

	pg     *repo.PG
	es     *repo.ES
	probes *repo.ProbeLog
}

// New constructs the extract module; overrides win over env
func New(deps modkit.Deps, overrides Options, mopts ...modkit.Option) (*Module, error) {
	opts := FromConfig(deps.Cfg).merge(overrides)
	log := deps.Named("extract")

	reg := variant.Builtin()
	if opts.ProfileFile != "" {
		r, err := variant.LoadFile(opts.ProfileFile)
		if err != nil {
			return nil, err
		}
		reg = r
	}

	client, err := autocomplete.NewClient(autocomplete.Options{
		BaseURL:   opts.BaseURL,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	m := &Module{
		deps:     deps,
		opts:     opts,
		log:      log,
		registry: reg,
		built:    modkit.Build(modkit.Built{Name: "extract"}, mopts...),
	}

	sinks, history, recorder, err := m.persistence()
	if err != nil {
		return nil, err
	}

	svc, err := service.New(service.Deps{
		Registry:   reg,
		Capability: client,
		Sinks:      sinks,
		History:    history,
		Recorder:   recorder,
		Log:        log,
	}, service.Config{
		Workers:       opts.Workers,
		Order:         frontier.ParseOrder(opts.Order),
		MaxRetries:    opts.MaxRetries,
		Backoff:       backoff.Policy{Initial: opts.BackoffInitial, Max: opts.BackoffMax},
		ProgressEvery: opts.ProgressEvery,
		Parallel:      opts.Parallel,
		Window:        opts.Window,
	})
	if err != nil {
		return nil, err
	}
	m.svc = svc
	m.ports = Ports{Runner: svc, Status: svc}
	return m, nil
}

// persistence builds the sinks from the output dir and whatever backends the store opened
func (m *Module) persistence() ([]domain.Sink, domain.History, query.ProbeRecorder, error) {
	var (
		sinks []domain.Sink
		file  *repo.FileSink
		rds   *repo.Redis
	)
	if m.opts.OutDir != "" && m.opts.OutDir != "-" {
		f, err := repo.NewFileSink(m.opts.OutDir)
		if err != nil {
			return nil, nil, nil, err
		}
		file = f
		sinks = append(sinks, f)
	}

	var recorder query.ProbeRecorder
	if st := m.deps.Store; st != nil {
		if st.PG != nil {
			m.pg = repo.NewPG(st.PG, m.log)
			sinks = append(sinks, m.pg)
		}
		if st.Redis != nil {
			rds = repo.NewRedis(st.Redis)
			sinks = append(sinks, rds)
		}
		if st.ES != nil {
			m.es = repo.NewES(st.ES, m.opts.ESIndex)
			sinks = append(sinks, m.es)
		}
		if st.CH != nil {
			m.probes = repo.NewProbeLog(st.CH, m.opts.ProbeBatch, m.log)
			recorder = m.probes
		}
	}

	var history domain.History
	switch m.opts.History {
	case HistoryNone:
	case HistoryFile:
		if file == nil {
			return nil, nil, nil, perr.Configf("extract: file history needs an output dir")
		}
		history = file
	case HistoryPG:
		if m.pg == nil {
			return nil, nil, nil, perr.Configf("extract: postgres history needs LEXISCAN_PG_ENABLED")
		}
		history = m.pg
	case HistoryRedis:
		if rds == nil {
			return nil, nil, nil, perr.Configf("extract: redis history needs LEXISCAN_REDIS_ENABLED")
		}
		history = rds
	default:
		switch {
		case m.pg != nil:
			history = m.pg
		case rds != nil:
			history = rds
		case file != nil:
			history = file
		}
	}

	if len(sinks) == 0 {
		return nil, nil, nil, perr.Configf("extract: no sink configured, set an output dir or enable a backend")
	}
	return sinks, history, recorder, nil
}

// Prepare creates tables and indexes the enabled backends need
func (m *Module) Prepare(ctx context.Context) error {
	if !m.opts.Migrate {
		return nil
	}
	if m.pg != nil {
		if err := m.pg.Migrate(ctx); err != nil {
			return err
		}
	}
	if m.es != nil {
		if err := m.es.EnsureIndex(ctx); err != nil {
			return err
		}
	}
	if m.probes != nil {
		if err := m.probes.Migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run extracts the configured variants
func (m *Module) Run(ctx context.Context) ([]domain.Summary, error) {
	return m.svc.Run(ctx, m.opts.Variants)
}

// Close flushes buffered probes
func (m *Module) Close(ctx context.Context) error {
	if m.probes == nil {
		return nil
	}
	return m.probes.Close(ctx)
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Sinks lists the configured sink names
func (m *Module) Sinks() []string { return m.svc.Sinks() }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports (Runner, Status)
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the read-only status surface
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(sr phttp.Router) {
		exthttp.Register(sr, m.svc, m.registry)
	})
}

// IsCancelled reports whether a run error is only the run context ending
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
