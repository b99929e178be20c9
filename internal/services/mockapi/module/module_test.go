package module_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexiscan/internal/modkit"
	"lexiscan/internal/modkit/module"
	"lexiscan/internal/platform/config"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/platform/testkit"
	mockmod "lexiscan/internal/services/mockapi/module"

	"github.com/go-chi/chi/v5"
)

func deps() modkit.Deps {
	return modkit.Deps{Log: *logger.Nop(), Cfg: config.New().Prefix("MOCKMODTEST_")}
}

func TestFromConfig_Defaults(t *testing.T) {
	o := mockmod.FromConfig(config.New().Prefix("MOCKMODTEST_"))
	if o.Source != mockmod.SourceMemory || o.Generate != 2000 || !o.Throttle || o.MaxLen != 8 {
		t.Fatalf("defaults = %+v", o)
	}
	if len(o.CORSOrigins) != 1 || o.CORSOrigins[0] != "*" {
		t.Fatalf("cors default = %v", o.CORSOrigins)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("MOCKMODTEST_MOCK_SOURCE", "REDIS")
	t.Setenv("MOCKMODTEST_MOCK_SEED", "9")
	t.Setenv("MOCKMODTEST_MOCK_THROTTLE", "false")
	o := mockmod.FromConfig(config.New().Prefix("MOCKMODTEST_"))
	if o.Source != mockmod.SourceRedis || o.Seed != 9 || o.Throttle {
		t.Fatalf("env = %+v", o)
	}
}

func TestNewWith_RedisSourceNeedsStore(t *testing.T) {
	_, err := mockmod.NewWith(deps(), mockmod.Options{Source: mockmod.SourceRedis})
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis config error, got %v", err)
	}
}

func TestPrepare_WordFileAndRoutes(t *testing.T) {
	words := testkit.WriteFile(t, "words.txt", "apple\napricot\nbanana\nb2b\n")

	m, err := mockmod.NewWith(deps(), mockmod.Options{WordsFile: words, CORSOrigins: []string{"*"}})
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}
	if err := m.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if m.Name() != "mockapi" {
		t.Fatalf("Name = %q", m.Name())
	}
	ports := module.MustPortsOf[mockmod.Ports](m)
	if n, _ := ports.Vocabulary.Len(context.Background(), "v2"); n != 4 {
		t.Fatalf("v2 size = %d", n)
	}

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	srv := httptest.NewServer(r.Mux())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/autocomplete?query=ap", nil)
	req.Header.Set("Origin", "http://example.test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("cors headers missing")
	}
}

func TestPrepare_GeneratedIsSeeded(t *testing.T) {
	m, err := mockmod.NewWith(deps(), mockmod.Options{Generate: 50, MinLen: 1, MaxLen: 4, Seed: 3})
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}
	if err := m.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	ports := module.MustPortsOf[mockmod.Ports](m)
	// v3 accepts everything v1 and v2 generated
	if n, _ := ports.Vocabulary.Len(context.Background(), "v3"); n < 50 {
		t.Fatalf("v3 size = %d", n)
	}
}
