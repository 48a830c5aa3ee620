// Package version reports build metadata stamped in with -ldflags
package version

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set with:
//
//	-ldflags "-X marketfeed/internal/platform/version.version=v1.2.0
//	          -X marketfeed/internal/platform/version.commit=abcd123
//	          -X marketfeed/internal/platform/version.date=2026-03-02"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information for service
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
