package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/services/mockapi/domain"
	mockhttp "lexiscan/internal/services/mockapi/http"
	"lexiscan/internal/services/mockapi/repo"
	"lexiscan/internal/services/mockapi/service"

	"github.com/go-chi/chi/v5"
)

func newMux(t *testing.T, throttle bool) (http.Handler, *service.Svc) {
	t.Helper()
	svc, err := service.New(nil, repo.NewMemory(), service.Config{Throttle: throttle}, logger.Nop())
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	r := phttp.AdaptChi(chi.NewRouter())
	mockhttp.Register(r, svc, svc.Variants)
	return r.Mux(), svc
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAutocomplete_BareBody(t *testing.T) {
	h, svc := newMux(t, false)
	_, _ = svc.Add(t.Context(), "v1", []string{"abc", "abd", "b"})

	rec := do(h, http.MethodGet, "/v1/autocomplete?query=ab", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var out domain.Completion
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 || out.Results[0] != "abc" || out.Version == "" {
		t.Fatalf("completion = %+v", out)
	}
}

func TestAutocomplete_UnknownVariant404(t *testing.T) {
	h, _ := newMux(t, false)
	if rec := do(h, http.MethodGet, "/v7/autocomplete?query=a", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAutocomplete_ThrottledSetsRetryAfter(t *testing.T) {
	h, _ := newMux(t, true)
	for i := 0; i < 50; i++ {
		if rec := do(h, http.MethodGet, "/v2/autocomplete?query=a", ""); rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}
	rec := do(h, http.MethodGet, "/v2/autocomplete?query=a", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "61" && ra != "60" {
		t.Fatalf("Retry-After = %q", ra)
	}
}

func TestVocabulary_PostValidatesAndAdds(t *testing.T) {
	h, _ := newMux(t, false)

	rec := do(h, http.MethodPost, "/v1/vocabulary", `{"names":["zeta","eta","x1"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var env struct {
		Data domain.AddResult `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Data.Accepted != 2 || env.Data.Rejected != 1 || env.Data.Size != 2 {
		t.Fatalf("add result = %+v", env.Data)
	}

	if rec := do(h, http.MethodPost, "/v1/vocabulary", `{"names":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty names should fail validation, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/v1/vocabulary", `{"names":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("broken json should be 400, got %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/v1/stats", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"size":2`) {
		t.Fatalf("stats = %d %s", rec.Code, rec.Body)
	}
}

func TestVariants_List(t *testing.T) {
	h, _ := newMux(t, false)
	rec := do(h, http.MethodGet, "/variants", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `["v1","v2","v3"]`) {
		t.Fatalf("variants = %d %s", rec.Code, rec.Body)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]int{0: 1, 10 * time.Millisecond: 1, 1500 * time.Millisecond: 2, time.Minute: 60}
	for in, want := range cases {
		if got := mockhttp.RetryAfterSeconds(&domain.Throttled{Wait: in}); got != want {
			t.Fatalf("RetryAfterSeconds(%s) = %d, want %d", in, got, want)
		}
	}
}
