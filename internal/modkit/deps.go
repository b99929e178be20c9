// Package modkit provides module wiring and the shared deps handed to every module
package modkit

import (
	"lexiscan/internal/platform/config"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// Store may be nil when no backend is enabled; modules nil check the handles they use
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Store *store.Store
}

// Named returns the deps logger tagged with a component field
func (d Deps) Named(component string) *logger.Logger {
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
