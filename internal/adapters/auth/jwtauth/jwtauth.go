// Package jwtauth verifies HS256 bearer tokens issued by the user service
package jwtauth

import (
	"errors"
	"slices"
	"time"

	"marketfeed/internal/platform/config"
	perr "marketfeed/internal/platform/errors"
	pnet "marketfeed/internal/platform/net"

	"github.com/golang-jwt/jwt/v5"
)

// Config controls token verification
type Config struct {
	Secret    string
	Issuer    string
	AdminRole string
	Leeway    time.Duration
}

// ConfigFromEnv reads AUTH_*; the secret is required
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("AUTH_")
	return Config{
		Secret:    c.MustString("JWT_SECRET"),
		Issuer:    c.MayString("ISSUER", ""),
		AdminRole: c.MayString("ADMIN_ROLE", "admin"),
		Leeway:    c.MayDuration("LEEWAY", 30*time.Second),
	}
}

// Claims are the token claims issued by the user service
type Claims struct {
	UserID string   `json:"user_id"`
	Role   string   `json:"role,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier parses and checks tokens
type Verifier struct {
	cfg    Config
	parser *jwt.Parser
}

// New builds a Verifier; an empty secret panics
func New(cfg Config) *Verifier {
	if cfg.Secret == "" {
		panic("jwtauth: empty secret")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{cfg: cfg, parser: jwt.NewParser(opts...)}
}

// Verify returns the principal named by a valid token.
// The subject claim is used when user_id is absent
func (v *Verifier) Verify(token string) (pnet.Principal, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return pnet.Principal{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "token has expired")
		}
		return pnet.Principal{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid token")
	}

	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return pnet.Principal{}, perr.Unauthorizedf("token has no subject")
	}
	admin := claims.Role == v.cfg.AdminRole || slices.Contains(claims.Roles, v.cfg.AdminRole)
	return pnet.Principal{UserID: uid, Admin: admin}, nil
}

// Sign issues a token for the principal; used by tests and local tooling
func (v *Verifier) Sign(p pnet.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		UserID: p.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if p.Admin {
		c.Role = v.cfg.AdminRole
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(v.cfg.Secret))
}
