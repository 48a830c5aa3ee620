package middleware

import (
	"net/http"
	"time"

	"marketfeed/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn level, 0 disables slow marking
	Slow time.Duration
	// Observe, when set, receives every finished request (metrics hook)
	Observe func(method, route string, status int, elapsed time.Duration)
}

// StatusWriter records status and bytes written by the wrapped handler
type StatusWriter struct {
	http.ResponseWriter
	Status int
	Bytes  int
}

// WriteHeader records the status before delegating
func (sw *StatusWriter) WriteHeader(code int) {
	sw.Status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.Bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (sw *StatusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

// AccessLogZerolog logs method, route, status, elapsed, and bytes written
// using the request scoped logger
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &StatusWriter{ResponseWriter: w, Status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			route := RoutePattern(r)
			if opt.Observe != nil {
				opt.Observe(r.Method, route, sw.Status, elapsed)
			}

			log := logger.C(r.Context())
			evt := log.Info()
			switch {
			case sw.Status >= http.StatusInternalServerError:
				evt = log.Error()
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			}
			evt.Int("status", sw.Status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("bytes", sw.Bytes).
				Msg("request done")
		})
	}
}

// RoutePattern returns the matched chi pattern, or "unmatched" so metrics
// labels stay bounded when a path has no route
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
