// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"fmt"
	"net/http"
	"time"

	modkit "marketfeed/internal/modkit"
	"marketfeed/internal/modkit/httpkit"
	ptime "marketfeed/internal/platform/time"

	metahttp "marketfeed/internal/services/meta/http"

	"github.com/nats-io/nats.go"
)

// Ports are optional collaborators the deps do not carry
type Ports struct {
	// NATS is probed for connection state when set
	NATS *nats.Conn
	// ServiceName defaults to marketfeed-api
	ServiceName string
	Clock       ptime.Clock
}

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	var p Ports
	if in, ok := b.Ports.(Ports); ok {
		p = in
	}
	if p.ServiceName == "" {
		p.ServiceName = "marketfeed-api"
	}
	if p.Clock == nil {
		p.Clock = ptime.System{}
	}

	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		deps: metahttp.Deps{
			ServiceName: p.ServiceName,
			StartedAt:   p.Clock.Now(),
			Clock:       p.Clock,
			Checks:      checks(deps, p.NATS),
		},
	}
}

// checks builds one probe per backend; disabled ones stay nil and report skipped
func checks(deps modkit.Deps, nc *nats.Conn) map[string]metahttp.Pinger {
	out := map[string]metahttp.Pinger{"pg": nil, "ch": nil, "redis": nil, "nats": nil}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		out["pg"] = p
	}
	if deps.CH != nil {
		out["ch"] = deps.CH
	}
	if deps.RDS != nil {
		out["redis"] = metahttp.PingFunc(func(ctx context.Context) error { return deps.RDS.Ping(ctx).Err() })
	}
	if nc != nil {
		out["nats"] = metahttp.PingFunc(func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("nats %s", nc.Status())
			}
			return nil
		})
	}
	return out
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		metahttp.Register(rr, m.deps)
	})
}

// StartedAt is when the module was built
func (m *Module) StartedAt() time.Time { return m.deps.StartedAt }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Prefix implements the modkit.Module interface
func (m *Module) Prefix() string { return m.prefix }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
