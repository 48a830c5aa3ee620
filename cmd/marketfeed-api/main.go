// @title         marketfeed API
// @version       1.0
// @description   Marketplace listing feed with time bounded listing lifecycle

package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/store"

	"marketfeed/internal/services/api"
	"marketfeed/internal/services/listings/repo"
	"marketfeed/internal/services/sweeper/guardrails"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		fMigrate = flag.Bool("migrate", false, "apply the postgres schema and exit")
		fServe   = flag.Bool("serve", false, "with -migrate, keep serving after the schema is applied")
	)
	flag.Parse()

	// a missing .env is fine outside local dev
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if *fMigrate {
		if err := repo.Migrate(ctx, st.PG); err != nil {
			l.Panic().Err(err).Msg("listings migration failed")
		}
		if err := guardrails.Migrate(ctx, st.PG); err != nil {
			l.Panic().Err(err).Msg("lease migration failed")
		}
		l.Info().Msg("schema applied")
		if !*fServe {
			return
		}
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if addr := apiCfg.MayString("METRICS_ADDR", ""); addr != "" {
		metrics.StartServer(ctx, addr)
	}

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	mounted := api.Mount(
		srv.Router(),
		api.Options{
			Root:           root,
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
		},
	)

	// single binary deployments run the sweep loop in process
	if apiCfg.MayBool("EMBED_SWEEPER", false) {
		go func() {
			if err := mounted.Sweeper.Run(ctx); err != nil {
				l.Error().Err(err).Msg("embedded sweeper stopped")
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
