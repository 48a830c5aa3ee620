package httpkit

import (
	"net/http"

	perrs "marketfeed/internal/platform/errors"
	pnet "marketfeed/internal/platform/net"
)

// Principal returns the caller attached by the auth middleware, if any
func Principal(r *http.Request) (pnet.Principal, bool) {
	return pnet.PrincipalFrom(r.Context())
}

// User returns the authenticated principal or Unauthorized
func User(r *http.Request) (pnet.Principal, error) {
	p, ok := Principal(r)
	if !ok {
		return pnet.Principal{}, perrs.Unauthorizedf("missing bearer token")
	}
	return p, nil
}
