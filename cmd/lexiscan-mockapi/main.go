package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"lexiscan/internal/core/version"
	"lexiscan/internal/modkit"
	"lexiscan/internal/modkit/module"
	"lexiscan/internal/platform/config"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/platform/net/middleware"
	"lexiscan/internal/platform/store"
	"lexiscan/internal/services/api"

	mockmod "lexiscan/internal/services/mockapi/module"

	"github.com/go-chi/chi/v5"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New().Prefix("LEXISCAN_")
	mockCfg := root.Prefix("MOCK_")

	var (
		fAddr  = flag.String("addr", mockCfg.MayString("ADDR", ":8000"), "listen address")
		fWords = flag.String("words", "", "newline separated word list seeding every variant")
		fPprof = flag.Bool("pprof", mockCfg.MayBool("PPROF", false), "mount pprof under /debug")
	)
	flag.Parse()

	mustSetEnv("LEXISCAN_MOCK_ADDR", *fAddr)
	mustSetEnv("LEXISCAN_MOCK_WORDS_FILE", *fWords)

	l := logger.Get()
	l.Info().Str("build", version.Info("lexiscan-mockapi").String()).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromConfig(root, "mockapi"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mm, err := mockmod.New(modkit.Deps{Log: *l, Cfg: root, Store: st})
	if err != nil {
		l.Fatal().Err(err).Msg("mockapi module setup failed")
	}
	if err := mm.Prepare(ctx); err != nil {
		l.Fatal().Err(err).Msg("vocabulary load failed")
	}

	// http server (reads LEXISCAN_MOCK_ADDR)
	srv := phttp.NewServer(mockCfg, func(m *chi.Mux) {
		m.Use(middleware.Defaults()...)
	})
	api.Mount(srv.Router(), api.Options{
		Service:        "lexiscan-mockapi",
		Modules:        []module.Module{mm},
		Logger:         l,
		EnableProfiler: *fPprof,
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
