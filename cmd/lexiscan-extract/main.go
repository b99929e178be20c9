package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lexiscan/internal/core/version"
	"lexiscan/internal/modkit"
	"lexiscan/internal/modkit/module"
	"lexiscan/internal/platform/config"
	"lexiscan/internal/platform/logger"
	phttp "lexiscan/internal/platform/net/http"
	"lexiscan/internal/platform/net/middleware"
	"lexiscan/internal/platform/store"
	"lexiscan/internal/services/api"

	extmod "lexiscan/internal/services/extract/module"

	"github.com/go-chi/chi/v5"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() { os.Exit(run()) }

// run returns the process exit code
func run() int {
	var (
		fVariants = flag.String("variants", "", "comma-separated variants to extract (default v1,v2,v3)")
		fWorkers  = flag.Int("workers", 0, "concurrent queries per variant")
		fOrder    = flag.String("order", "", "frontier order: dfs | bfs")
		fParallel = flag.Bool("parallel", false, "extract all variants at once")
		fRetries  = flag.Int("max-retries", 0, "retries per query after rate limiting (0 = env/default)")
		fBaseURL  = flag.String("base-url", "", "autocomplete service base url")
		fOut      = flag.String("out", "", "output directory, - disables the file sink")
		fHistory  = flag.String("history", "", "history source: auto | none | file | postgres | redis")
		fProfiles = flag.String("profiles", "", "YAML file with variant profiles")
		fStatus   = flag.String("status-addr", "", "serve live status on this address")
		fPprof    = flag.Bool("pprof", false, "mount pprof on the status server")
	)
	flag.Parse()

	// flags win over env; exported so the status server sees the same values
	mustSetEnv("LEXISCAN_EXTRACT_STATUS_ADDR", *fStatus)
	mustSetEnv("LEXISCAN_EXTRACT_HISTORY", *fHistory)

	root := config.New().Prefix("LEXISCAN_")
	l := logger.Get()
	l.Info().Str("build", version.Info("lexiscan-extract").String()).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromConfig(root, "extract"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Log: *l, Cfg: root, Store: st}

	var variants []string
	for _, v := range strings.Split(*fVariants, ",") {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}

	ex, err := extmod.New(deps, extmod.Options{
		Variants:    variants,
		Workers:     *fWorkers,
		Order:       *fOrder,
		Parallel:    *fParallel,
		MaxRetries:  *fRetries,
		BaseURL:     *fBaseURL,
		OutDir:      *fOut,
		ProfileFile: *fProfiles,
		Pprof:       *fPprof,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("extract module setup failed")
	}
	if err := ex.Prepare(ctx); err != nil {
		l.Fatal().Err(err).Msg("extract prepare failed")
	}

	opts := ex.Options()
	if opts.StatusAddr != "" {
		srv := phttp.NewServer(root.Prefix("EXTRACT_STATUS_"), func(m *chi.Mux) {
			m.Use(middleware.Defaults()...)
		})
		api.Mount(srv.Router(), api.Options{
			Service:        "lexiscan-extract",
			Modules:        []module.Module{ex},
			Logger:         l,
			EnableProfiler: opts.Pprof,
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	l.Info().
		Strs("variants", opts.Variants).
		Strs("sinks", ex.Sinks()).
		Str("base_url", opts.BaseURL).
		Msg("extraction starting")

	sums, runErr := ex.Run(ctx)

	cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ex.Close(cctx); err != nil {
		l.Error().Err(err).Msg("probe log flush failed")
	}

	for _, s := range sums {
		fmt.Printf("%s\t%d names\t%d attempts\t%s\n", s.Variant, s.Count(), s.Attempts, s.Elapsed.Round(time.Millisecond))
	}

	switch {
	case runErr == nil:
		return 0
	case extmod.IsCancelled(runErr):
		l.Warn().Msg("extraction cancelled, partial results saved")
		return 130
	default:
		l.Error().Err(runErr).Msg("extraction failed")
		return 1
	}
}
