// Package http exposes the on-demand sweep
package http

import (
	stdhttp "net/http"

	"marketfeed/internal/modkit/httpkit"
	"marketfeed/internal/platform/net/middleware"
	"marketfeed/internal/services/sweeper/domain"
)

// Register mounts the admin-only trigger at the router root
func Register(r httpkit.Router, runner domain.RunnerPort, auth middleware.AuthPort) {
	h := &handlers{runner: runner}
	httpkit.Admin(r, auth, func(ar httpkit.Router) {
		httpkit.Post(ar, "/", h.archiveExpired)
	})
}

type handlers struct{ runner domain.RunnerPort }

// swagger:route POST /listings/archive-expired Listings archiveExpired
// @Summary Run the expiration sweep now
// @Tags Listings
// @Produce json
// @Security bearerAuth
// @Success 200 {object} domain.SweepReport "ok"
// @Failure 403 {object} httpkit.Envelope "admin only"
// @Router /listings/archive-expired [post]
func (h *handlers) archiveExpired(r *stdhttp.Request) (any, error) {
	return h.runner.RunSweepOnce(r.Context()), nil
}
