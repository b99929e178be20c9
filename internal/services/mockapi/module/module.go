// Package module wires the mock autocomplete service and exposes its ports
package module

import (
	"context"
	"net/http"

	"lexiscan/internal/core/variant"
	"lexiscan/internal/modkit"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/platform/net/middleware"
	"lexiscan/internal/services/mockapi/domain"
	mockhttp "lexiscan/internal/services/mockapi/http"
	"lexiscan/internal/services/mockapi/repo"
	"lexiscan/internal/services/mockapi/service"
)

// Ports defines mockapi module ports exposed via the registry
type Ports struct {
	Server     domain.ServerPort
	Vocabulary domain.Vocabulary
}

// Module defines the mockapi module
type Module struct {
	opts  Options
	log   *logger.Logger
	vocab domain.Vocabulary
	svc   *service.Svc
	ports Ports
	built modkit.Built
}

// New constructs the mock module from env
func New(deps modkit.Deps, mopts ...modkit.Option) (*Module, error) {
	return NewWith(deps, FromConfig(deps.Cfg), mopts...)
}

// NewWith constructs the mock module from explicit options
func NewWith(deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	log := deps.Named("mockapi")

	reg := variant.Builtin()
	if opts.ProfileFile != "" {
		r, err := variant.LoadFile(opts.ProfileFile)
		if err != nil {
			return nil, err
		}
		reg = r
	}

	var vocab domain.Vocabulary
	switch opts.Source {
	case SourceRedis:
		if deps.Store == nil || deps.Store.Redis == nil {
			return nil, perr.Configf("mockapi: redis source needs LEXISCAN_REDIS_ENABLED")
		}
		vocab = repo.NewRedis(deps.Store.Redis)
	default:
		vocab = repo.NewMemory()
	}

	svc, err := service.New(reg, vocab, service.Config{
		Version:  opts.Version,
		Throttle: opts.Throttle,
		Window:   opts.Window,
	}, log)
	if err != nil {
		return nil, err
	}

	defaults := modkit.Built{
		Name: "mockapi",
		Mw: []func(http.Handler) http.Handler{
			middleware.CORS(middleware.CORSOptions{
				AllowedOrigins: opts.CORSOrigins,
				ExposedHeaders: []string{"Retry-After"},
			}),
		},
	}
	return &Module{
		opts:  opts,
		log:   log,
		vocab: vocab,
		svc:   svc,
		ports: Ports{Server: svc, Vocabulary: vocab},
		built: modkit.Build(defaults, mopts...),
	}, nil
}

// Prepare loads the vocabulary; a redis source that already holds names is left alone
func (m *Module) Prepare(ctx context.Context) error {
	if m.opts.Source == SourceRedis {
		total := 0
		for _, v := range m.svc.Variants() {
			n, err := m.vocab.Len(ctx, v)
			if err != nil {
				return err
			}
			total += n
		}
		if total > 0 {
			m.log.Info().Int("names", total).Msg("vocabulary already loaded")
			return nil
		}
	}

	var names []string
	if m.opts.WordsFile != "" {
		ws, err := repo.LoadWords(m.opts.WordsFile)
		if err != nil {
			return err
		}
		names = ws
	} else {
		reg := m.svc.Registry()
		for i, v := range reg.Names() {
			p, _ := reg.Lookup(v)
			names = append(names, repo.Generate(p, repo.GenOptions{
				Count:  m.opts.Generate,
				MinLen: m.opts.MinLen,
				MaxLen: m.opts.MaxLen,
				Seed:   m.opts.Seed + uint64(i),
			})...)
		}
	}
	return m.svc.Seed(ctx, names)
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports (Server, Vocabulary)
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the autocomplete endpoints
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(sr phttp.Router) {
		mockhttp.Register(sr, m.svc, m.svc.Variants)
	})
}
