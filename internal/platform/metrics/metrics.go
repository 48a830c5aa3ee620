// Package metrics holds the process-wide Prometheus collectors
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketfeed/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketfeed"

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "network_request_duration_seconds",
		Help:      "Outbound call latency",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "network_request_total",
		Help:      "Outbound calls",
	}, []string{"component", "operation", "target", "status"})

	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_transitions_total",
		Help:      "Lifecycle transition attempts by operation and outcome",
	}, []string{"op", "outcome"})

	BulkItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_items_total",
		Help:      "Bulk operation items by transition and outcome",
	}, []string{"transition", "outcome"})

	SweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Expiration sweep runs by result (ok, partial, skipped)",
	}, []string{"result"})

	SweepArchivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_archived_total",
		Help:      "Listings archived by the expiration sweep",
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Expiration sweep wall time",
		Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	PGQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pg_query_duration_seconds",
		Help:      "Postgres statement latency by statement name and outcome (ok, no_rows, error)",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"statement", "outcome"})

	EventsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Lifecycle events a sink failed to accept",
	}, []string{"sink"})
)

// MustRegister registers every collector on r
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		HTTPRequestDuration,
		NetworkRequestDuration,
		NetworkRequestTotal,
		TransitionsTotal,
		BulkItemsTotal,
		SweepRunsTotal,
		SweepArchivedTotal,
		SweepDuration,
		PGQueryDuration,
		EventsDroppedTotal,
	)
}

// Handler serves the default gatherer
func Handler() http.Handler { return promhttp.Handler() }

// StartServer serves /metrics on addr until ctx is done
func StartServer(ctx context.Context, addr string) {
	log := logger.Named("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// ObserveHTTP records one served request; route is the matched pattern
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveNetworkRequest records duration and status of an outbound call
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	component, operation, target = orUnknown(component), orUnknown(operation), orUnknown(target)
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(time.Since(start).Seconds())
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
