// Package api mounts a set of modules onto one router
package api

import (
	stdhttp "net/http"

	"lexiscan/internal/core/version"
	"lexiscan/internal/modkit/module"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
)

// Options are the API options
type Options struct {
	Service        string // reported by GET /version
	Modules        []module.Module
	Logger         *logger.Logger
	EnableProfiler bool
}

// Mount registers each module's ports and mounts its routes onto r
func Mount(r phttp.Router, opt Options) {
	log := opt.Logger
	if log == nil {
		log = logger.Named("api")
	}

	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	if opt.Service != "" {
		info := version.Info(opt.Service)
		phttp.GetJSON(r, "/version", func(*stdhttp.Request) (any, error) { return info, nil })
	}

	for _, m := range opt.Modules {
		if m == nil {
			continue
		}
		// ports are registered under the module name for cross-module lookups
		module.Register(m.Name(), m.Ports())
		m.MountRoutes(r)
		log.Debug().Str("module", m.Name()).Msg("module mounted")
	}
}
