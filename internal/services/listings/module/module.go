// Package module wires listings into the API using modkit
package module

import (
	"net/http"

	"marketfeed/internal/adapters/auth/jwtauth"
	"marketfeed/internal/adapters/geocode"
	modkit "marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/net/middleware"
	"marketfeed/internal/services/listings/domain"
	lhttp "marketfeed/internal/services/listings/http"
	"marketfeed/internal/services/listings/repo"
	"marketfeed/internal/services/listings/service"
)

// Module implements the listings API module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	auth middleware.AuthPort
	svc  service.Service
}

// Ports are optional injected collaborators; nil fields are built from config
type Ports struct {
	Auth     middleware.AuthPort
	Geocoder domain.Geocoder
	Sinks    []domain.EventSink
}

// New constructs the listings module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("listings"),
		modkit.WithPrefix("/listings"),
	}, opts...)...)
	if deps.PG == nil {
		panic("listings module requires postgres")
	}

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Auth == nil {
		injected.Auth = AuthFromConfig(deps)
	}
	if injected.Geocoder == nil {
		injected.Geocoder = GeocoderFromConfig(deps)
	}
	if injected.Sinks == nil {
		injected.Sinks = []domain.EventSink{
			service.NewNATSSink(deps.Bus),
			service.NewClickhouseSink(deps.CH),
		}
	}

	svc := service.New(deps.PG, repo.NewPG(), service.ConfigFromEnv(deps.Cfg),
		service.WithGeocoder(injected.Geocoder),
		service.WithSinks(injected.Sinks...),
	)
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		auth:   injected.Auth,
		svc:    svc,
	}
}

// AuthFromConfig builds the bearer verifier from AUTH_*
func AuthFromConfig(deps modkit.Deps) middleware.AuthPort {
	return httpkit.NewPortFunc(jwtauth.New(jwtauth.ConfigFromEnv(deps.Cfg)).Verify)
}

// GeocoderFromConfig builds the zip resolver from GEOCODE_*, cached in redis when enabled
func GeocoderFromConfig(deps modkit.Deps) domain.Geocoder {
	var cache geocode.Cache
	if deps.RDS != nil {
		cache = geocode.NewRedisCache(deps.RDS)
	}
	return Geocoder{c: geocode.New(geocode.ConfigFromEnv(deps.Cfg), cache)}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		lhttp.Register(rr, m.svc, m.auth)
	})
}

// Ports exposes the listings service for the sweeper and other modules
func (m *Module) Ports() any { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
