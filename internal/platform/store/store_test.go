package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lexiscan/internal/platform/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// esStub answers like an elasticsearch node; status is used for every request
func esStub(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(`{"version":{"number":"8.18.1"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadRedis points at a closed port so every command fails fast
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
}

func TestOpen_NothingEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, Config{}, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.PG != nil || s.CH != nil || s.Redis != nil || s.ES != nil {
		t.Fatalf("no backend should be set: %+v", s)
	}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard on empty store: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpen_PGBadURL_BubblesError(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		PG: PGConfig{Enabled: true, URL: "://bad"},
	})
	if err == nil || s != nil {
		t.Fatalf("expected error and nil store, got %v %#v", err, s)
	}
}

func TestOpen_CHBadDSN_BubblesError(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		CH: CHConfig{Enabled: true, URL: "://bad"},
	})
	if err == nil || s != nil {
		t.Fatalf("expected error and nil store, got %v %#v", err, s)
	}
}

func TestOpen_RedisUnreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, Config{
		Redis: RedisConfig{Enabled: true, Addr: "127.0.0.1:1"},
	})
	if err == nil || s != nil {
		t.Fatalf("expected redis connect error, got %v", err)
	}
}

func TestOpen_ElasticsearchStub(t *testing.T) {
	t.Parallel()

	srv := esStub(t, http.StatusOK)
	ctx := context.Background()
	s, err := Open(ctx, Config{
		ES: ESConfig{Enabled: true, Addresses: []string{srv.URL}},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.ES == nil {
		t.Fatalf("ES client not set")
	}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	_ = s.Close(ctx)
}

func TestOpen_ElasticsearchDown(t *testing.T) {
	t.Parallel()

	srv := esStub(t, http.StatusServiceUnavailable)
	_, err := Open(context.Background(), Config{
		ES: ESConfig{Enabled: true, Addresses: []string{srv.URL}},
	})
	if err == nil {
		t.Fatalf("expected es connect error")
	}
}

func TestOpen_InjectedRedisSkipsDial(t *testing.T) {
	t.Parallel()

	rc := deadRedis()
	s, err := Open(context.Background(), Config{
		Redis: RedisConfig{Enabled: true, Addr: "ignored:1"},
	}, WithRedis(rc))
	if err != nil {
		t.Fatalf("Open should not dial an injected client: %v", err)
	}
	if s.Redis != rc {
		t.Fatalf("injected client not kept")
	}
	_ = s.Close(context.Background())
}

func TestConfig_Any(t *testing.T) {
	t.Parallel()

	if (Config{}).Any() {
		t.Fatalf("empty config should report no backends")
	}
	if !(Config{ES: ESConfig{Enabled: true}}).Any() {
		t.Fatalf("es enabled should count")
	}
}

func TestFromConfig_ReadsEnv(t *testing.T) {
	t.Setenv("LX_PG_ENABLED", "true")
	t.Setenv("LX_PG_DBURL", "postgres://u:p@db:5432/lexiscan")
	t.Setenv("LX_PG_MAX_CONNS", "9")
	t.Setenv("LX_REDIS_ENABLED", "1")
	t.Setenv("LX_REDIS_ADDR", "cache:6379")
	t.Setenv("LX_REDIS_DB", "3")
	t.Setenv("LX_ES_ADDRESSES", "http://es1:9200, http://es2:9200")

	cfg := FromConfig(config.New().Prefix("LX_"), "extract")
	if !cfg.PG.Enabled || cfg.PG.URL != "postgres://u:p@db:5432/lexiscan" || cfg.PG.MaxConns != 9 {
		t.Fatalf("pg config mismatch: %+v", cfg.PG)
	}
	if cfg.AppName != "lexiscan-extract" || cfg.CH.ClientTag != "extract" {
		t.Fatalf("role not applied: %q %q", cfg.AppName, cfg.CH.ClientTag)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 3 {
		t.Fatalf("redis config mismatch: %+v", cfg.Redis)
	}
	if cfg.ES.Enabled || len(cfg.ES.Addresses) != 2 || cfg.ES.Addresses[1] != "http://es2:9200" {
		t.Fatalf("es config mismatch: %+v", cfg.ES)
	}
	if cfg.CH.Enabled || cfg.CH.URL != "" {
		t.Fatalf("ch should stay disabled without a URL: %+v", cfg.CH)
	}
}
