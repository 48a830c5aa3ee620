package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/metrics"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/net/middleware"
)

// StackOptions tunes the common stack; zero values pick defaults
type StackOptions struct {
	CORSOrigins []string
	Timeout     time.Duration
	SlowRequest time.Duration
	// Throttle caps in-flight requests, 0 disables
	Throttle int
}

// StackOptionsFromConfig reads CORE_API_ knobs
func StackOptionsFromConfig(cfg config.Conf) StackOptions {
	return StackOptions{
		CORSOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
		Timeout:     cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		SlowRequest: cfg.MayDuration("SLOW_REQUEST", 750*time.Millisecond),
		Throttle:    cfg.MayInt("MAX_INFLIGHT", 0),
	}
}

// CommonStack returns the baseline API middleware in order
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	mw := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow:    o.SlowRequest,
			Observe: metrics.ObserveHTTP,
		}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
	if o.Throttle > 0 {
		mw = append(mw, middleware.Throttle(o.Throttle, o.Throttle*2, 5*time.Second))
	}
	return mw
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// OptionalAuth attaches a principal when a valid token is present
func OptionalAuth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.OptionalAuth(p, phttp.JSON)
}

// AdminOnly rejects principals without the admin flag
func AdminOnly() func(http.Handler) http.Handler {
	return middleware.RequireAdmin(phttp.JSON)
}
