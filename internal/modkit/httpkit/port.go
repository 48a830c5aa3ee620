package httpkit

import (
	"net/http"
	"strings"

	perrs "marketfeed/internal/platform/errors"
	pnet "marketfeed/internal/platform/net"
	"marketfeed/internal/platform/net/middleware"
)

// TokenFunc verifies a raw bearer token and returns the caller
type TokenFunc func(token string) (pnet.Principal, error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

var _ middleware.AuthPort = (*Port)(nil)

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse extracts the principal from an Authorization Bearer token.
// Missing, malformed, or rejected tokens are Unauthorized
func (p *Port) Parse(r *http.Request) (pnet.Principal, error) {
	raw, err := bearer(r)
	if err != nil {
		return pnet.Principal{}, err
	}
	if p == nil || p.parse == nil {
		return pnet.Principal{}, perrs.Unauthorizedf("invalid bearer token")
	}
	pr, err := p.parse(raw)
	if err != nil || pr.UserID == "" {
		return pnet.Principal{}, perrs.Unauthorizedf("invalid bearer token")
	}
	return pr, nil
}

// bearer returns the token after a case-insensitive "Bearer " scheme
func bearer(r *http.Request) (string, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
