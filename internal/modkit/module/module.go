// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "marketfeed/internal/platform/net/http"
)

// Module defines the minimal contract used by modkit
// it lives apart from modkit so a module exporting its own ports type avoids an import cycle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
