package middleware

import (
	"net/http"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	pnet "marketfeed/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the authenticated principal or an error
	Parse(r *http.Request) (pnet.Principal, error)
}

// Writer renders a status and body, usually phttp.JSON
type Writer func(w http.ResponseWriter, status int, body any)

// Auth requires a principal on every request. A nil port rejects everything
// so a route group cannot silently become public through a wiring mistake
func Auth(p AuthPort, write Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				fail(w, r, write, perr.Unauthorizedf("authentication is not configured"))
				return
			}
			pr, err := p.Parse(r)
			if err != nil {
				fail(w, r, write, err)
				return
			}
			next.ServeHTTP(w, attach(r, pr))
		})
	}
}

// OptionalAuth attaches a principal when the request carries credentials
// and lets anonymous requests through. Bad credentials are still rejected
func OptionalAuth(p AuthPort, write Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil || r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			pr, err := p.Parse(r)
			if err != nil {
				fail(w, r, write, err)
				return
			}
			next.ServeHTTP(w, attach(r, pr))
		})
	}
}

// RequireAdmin rejects callers whose principal is not an admin.
// Mount after Auth
func RequireAdmin(write Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pr, ok := pnet.PrincipalFrom(r.Context())
			if !ok {
				fail(w, r, write, perr.Unauthorizedf("missing bearer token"))
				return
			}
			if !pr.Admin {
				fail(w, r, write, perr.Forbiddenf("admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func attach(r *http.Request, pr pnet.Principal) *http.Request {
	ctx := pnet.WithPrincipal(r.Context(), pr)
	ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), pr.UserID)
	return r.WithContext(ctx)
}

func fail(w http.ResponseWriter, r *http.Request, write Writer, err error) {
	if perr.CodeOf(err) == perr.ErrorCodeUnknown {
		err = perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid bearer token")
	}
	status, body := pnet.Error(err, pnet.RequestID(r.Context()))
	write(w, status, body)
}
