// Package api composes the listings and sweeper modules into the HTTP API
package api

import (
	"marketfeed/internal/platform/bus"
	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/metrics"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/net/middleware"
	"marketfeed/internal/platform/store"

	"marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/modkit/module"
	"marketfeed/internal/modkit/swaggerkit"

	listingsmod "marketfeed/internal/services/listings/module"
	metamod "marketfeed/internal/services/meta/module"
	sweepdom "marketfeed/internal/services/sweeper/domain"
	sweepmod "marketfeed/internal/services/sweeper/module"
	sweepsvc "marketfeed/internal/services/sweeper/service"
)

// Options are the API options
type Options struct {
	// Root is the unprefixed config; modules read their own prefixes from it
	Root           config.Conf
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
}

// Mounted is what the caller may still need after routes are up
type Mounted struct {
	Sweeper *sweepsvc.Service
}

// DepsFromStore maps the open backends onto module deps.
// The bus is only set when NATS is connected so sinks can skip it cleanly
func DepsFromStore(root config.Conf, st *store.Store) modkit.Deps {
	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		RDS: st.RDS,
		Log: st.Log,
	}
	if st.NATS != nil {
		prefix := root.MayString("SERVICE_NATS_SUBJECT_PREFIX", "marketfeed.listings")
		deps.Bus = bus.NewPublisher(st.NATS, prefix)
	}
	return deps
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Mounted {
	deps := DepsFromStore(opt.Root, opt.Store)

	// one verifier shared by both modules
	auth := listingsmod.AuthFromConfig(deps)

	listings := listingsmod.New(deps, modkit.WithPorts(listingsmod.Ports{Auth: auth}))
	port := module.MustPortsOf[sweepdom.ListingsPort](listings)

	sweeper := sweepmod.New(deps, modkit.WithPorts(sweepmod.Ports{
		Listings: port,
		Auth:     auth,
	}))

	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{NATS: opt.Store.NATS}))

	mods := []module.Module{
		meta,
		sweeper, // static route, registered before the listings wildcard
		listings,
	}

	r.Use(middleware.Heartbeat("/health"))
	if opt.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}
	swaggerkit.Mount(r, opt.Config, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(httpkit.StackOptionsFromConfig(opt.Config)), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	return Mounted{Sweeper: sweeper.(*sweepmod.Module).Runner()}
}
