// Package http provides meta endpoints
package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"marketfeed/internal/modkit/httpkit"
	ptime "marketfeed/internal/platform/time"
	"marketfeed/internal/platform/version"
)

// Pinger is satisfied by backends that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Clock       ptime.Clock
	// Checks maps a backend name to its probe; nil entries report skipped
	Checks       map[string]Pinger
	CheckTimeout time.Duration
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Clock == nil {
		d.Clock = ptime.System{}
	}
	if d.CheckTimeout <= 0 {
		d.CheckTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"marketfeed-api"`
	Started string `json:"started"  example:"2026-03-02T12:00:00Z"`
	Now     string `json:"now"      example:"2026-03-02T12:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-03-02T12:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"marketfeed-api"`
	Started string `json:"started" example:"2026-03-02T12:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// health godoc
// @Summary Liveness
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.deps.Clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ready godoc
// @Summary Readiness with backend checks
// @Description pg is required; the optional backends degrade rather than fail
// @Tags ops
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.CheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps.Checks))
	for n := range h.deps.Checks {
		names = append(names, n)
	}
	sort.Strings(names)

	overall := "ok"
	checks := make([]ReadyCheck, 0, len(names))
	for _, n := range names {
		c := ReadyCheck{Name: n, Status: "ok"}
		p := h.deps.Checks[n]
		switch {
		case p == nil:
			c.Status = "skipped"
		default:
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				if n == "pg" {
					overall = "fail"
				} else if overall == "ok" {
					overall = "degraded"
				}
			}
		}
		checks = append(checks, c)
	}

	return ReadyResponse{
		Status: overall,
		Checks: checks,
		Now:    h.deps.Clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

// version godoc
// @Summary Build and version info
// @Tags ops
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

// service godoc
// @Summary Service info and uptime
// @Tags ops
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := h.deps.Clock.Now().Sub(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
	}, nil
}
