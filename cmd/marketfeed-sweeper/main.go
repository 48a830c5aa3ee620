package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"marketfeed/internal/modkit"
	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	"marketfeed/internal/platform/store"

	"marketfeed/internal/services/api"
	"marketfeed/internal/services/listings/domain"
	"marketfeed/internal/services/listings/repo"
	lsvc "marketfeed/internal/services/listings/service"
	sweepmod "marketfeed/internal/services/sweeper/module"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	fMode := flag.String("mode", "loop", "sweeper mode: loop | once")
	flag.Parse()

	_ = godotenv.Load()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "sweeper"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := api.DepsFromStore(root, st)

	// the sweeper only drives system transitions, so no geocoder or auth
	listings := lsvc.New(deps.PG, repo.NewPG(), lsvc.ConfigFromEnv(root),
		lsvc.WithSinks(
			domainSinks(deps)...,
		),
	)
	m := sweepmod.New(deps, modkit.WithPorts(sweepmod.Ports{Listings: listings}))
	runner := m.(*sweepmod.Module).Runner()

	switch *fMode {
	case "once":
		rep := runner.RunSweepOnce(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		if rep.Result() == "partial" {
			l.Warn().Int("errors", rep.Errors).Msg("sweep finished with failures")
		}
	case "loop":
		metrics.MustRegister(prometheus.DefaultRegisterer)
		if addr := root.MayString("SWEEPER_METRICS_ADDR", ":9101"); addr != "" {
			metrics.StartServer(ctx, addr)
		}
		if err := runner.Run(ctx); err != nil {
			l.Panic().Err(err).Msg("sweeper stopped")
		}
	default:
		l.Fatal().Str("mode", *fMode).Msg("unknown mode (want loop | once)")
	}
}

func domainSinks(deps modkit.Deps) []domain.EventSink {
	return []domain.EventSink{lsvc.NewNATSSink(deps.Bus), lsvc.NewClickhouseSink(deps.CH)}
}
