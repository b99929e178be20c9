// Package http provides http transport for the mock autocomplete service
package http

import (
	"errors"
	"math"
	stdhttp "net/http"
	"strconv"

	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/services/mockapi/domain"
)

// Register mounts the mock endpoints on the given router
func Register(r phttp.Router, s domain.ServerPort, variants func() []string) {
	h := &handlers{svc: s}

	// bare completion body, no envelope, as the real service answers
	r.Get("/{variant}/autocomplete", h.autocomplete)

	// grow a vocabulary at runtime
	phttp.PostJSON(r, "/{variant}/vocabulary", h.add)

	phttp.GetJSON(r, "/{variant}/stats", h.stats)

	phttp.GetJSON(r, "/variants", func(*stdhttp.Request) (any, error) { return variants(), nil })
}

type handlers struct{ svc domain.ServerPort }

func (h *handlers) autocomplete(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	out, err := h.svc.Complete(r.Context(), phttp.URLParam(r, "variant"), r.URL.Query().Get("query"))
	if err != nil {
		var th *domain.Throttled
		if errors.As(err, &th) {
			w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(th)))
		}
		phttp.RespondError(w, r, err)
		return
	}
	phttp.JSON(w, stdhttp.StatusOK, out)
}

func (h *handlers) add(r *stdhttp.Request, in domain.AddRequest) (any, error) {
	return h.svc.Add(r.Context(), phttp.URLParam(r, "variant"), in.Names)
}

func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context(), phttp.URLParam(r, "variant"))
}

// RetryAfterSeconds rounds the wait up to whole seconds, at least 1
func RetryAfterSeconds(t *domain.Throttled) int {
	return max(1, int(math.Ceil(t.Wait.Seconds())))
}
