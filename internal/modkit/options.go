package modkit

import (
	"net/http"
	"strings"

	phttp "lexiscan/internal/platform/net/http"
)

// Option mutates build configuration for a module
type Option func(*Built)

// Built is the resolved mount configuration for a module
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// WithName sets a module name used in logs and registry
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPrefix mounts a module under a path prefix
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = prefix }
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// Build applies opts over defaults
func Build(defaults Built, opts ...Option) Built {
	b := defaults
	b.Mw = append([]func(http.Handler) http.Handler(nil), defaults.Mw...)
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	b.Prefix = normalizePrefix(b.Prefix)
	return b
}

// Mount attaches register under the built prefix with its middleware
// an empty prefix mounts in a root group so sibling modules keep their own stacks
func (b Built) Mount(r phttp.Router, register func(phttp.Router)) {
	if r == nil || register == nil {
		return
	}
	attach := func(sr phttp.Router) {
		if len(b.Mw) > 0 {
			sr.Use(b.Mw...)
		}
		register(sr)
	}
	if b.Prefix == "" {
		r.Group(attach)
		return
	}
	r.Route(b.Prefix, attach)
}

func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
