// Package module wires the expiration sweep as a modkit.Module
package module

import (
	"net/http"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/net/middleware"
	"marketfeed/internal/services/sweeper/domain"
	"marketfeed/internal/services/sweeper/guardrails"
	shttp "marketfeed/internal/services/sweeper/http"
	"marketfeed/internal/services/sweeper/service"
)

// Ports the sweeper needs from other modules
type Ports struct {
	Listings domain.ListingsPort
	// Auth guards the admin trigger; without it no route is mounted
	Auth middleware.AuthPort
}

// Module implements modkit.Module for the sweeper
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	auth   middleware.AuthPort
	svc    *service.Service
}

// New constructs the sweeper module; Ports.Listings is required
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("sweeper"),
		modkit.WithPrefix("/listings/archive-expired"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Listings == nil {
		panic("sweeper module requires the Listings port (from services/listings)")
	}

	o := FromConfig(deps.Cfg)
	svc := service.New(injected.Listings, service.Config{
		Interval:    o.Interval,
		Batch:       o.Batch,
		MaxBatches:  o.MaxBatches,
		ItemTimeout: o.ItemTimeout,
		RunOnStart:  o.RunOnStart,
	})
	svc.Lease = leaseFor(deps, o)
	svc.Ledger = deps.CH

	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, auth: injected.Auth, svc: svc}
}

func leaseFor(deps modkit.Deps, o Options) guardrails.Lease {
	switch o.Lease {
	case "redis":
		if deps.RDS != nil {
			return guardrails.RedisLease(deps.RDS, o.LeaseKey, "sweeper", o.LeaseTTL)
		}
	case "pg":
		if deps.PG != nil {
			return guardrails.PGLease(deps.PG, o.LeaseKey, "sweeper", o.LeaseTTL)
		}
	default:
		return nil
	}
	logger.Named("sweeper").Warn().Str("lease", o.Lease).Msg("lease backend disabled; sweeping without a cross replica lock")
	return nil
}

// Runner returns the sweep service for loops and one-shot runs
func (m *Module) Runner() *service.Service { return m.svc }

// MountRoutes mounts the admin trigger when auth is configured
func (m *Module) MountRoutes(r httpkit.Router) {
	if m.auth == nil {
		return
	}
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		shttp.Register(rr, m.svc, m.auth)
	})
}

// Ports returns the sweep runner
func (m *Module) Ports() any { return domain.RunnerPort(m.svc) }

// Name returns the module name
func (m *Module) Name() string { return m.name }
