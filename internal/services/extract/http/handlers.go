// Package http provides http transport for extraction status
package http

import (
	stdhttp "net/http"
	"strings"

	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/services/extract/domain"
)

// Register mounts the read-only status endpoints on the given router
func Register(r phttp.Router, st domain.StatusPort, reg *variant.Registry) {
	h := &handlers{status: st, reg: reg}

	// live progress of the current run
	phttp.GetJSON(r, "/status", h.getStatus)

	// profiles the extractor knows
	phttp.GetJSON(r, "/variants", h.listVariants)
	phttp.GetJSON(r, "/variants/{name}", h.getVariant)
}

type handlers struct {
	status domain.StatusPort
	reg    *variant.Registry
}

func (h *handlers) getStatus(*stdhttp.Request) (any, error) { return h.status.Status(), nil }

func (h *handlers) listVariants(*stdhttp.Request) (any, error) {
	names := h.reg.Names()
	out := make([]variant.Definition, 0, len(names))
	for _, n := range names {
		if p, ok := h.reg.Lookup(n); ok {
			out = append(out, p.Definition())
		}
	}
	return out, nil
}

func (h *handlers) getVariant(r *stdhttp.Request) (any, error) {
	name := strings.TrimSpace(phttp.URLParam(r, "name"))
	p, ok := h.reg.Lookup(name)
	if !ok {
		return nil, perr.NotFoundf("unknown variant %q", name)
	}
	return p.Definition(), nil
}
