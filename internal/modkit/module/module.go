// Package module defines the minimal contract used by modkit plus a bootstrap port registry
package module

import (
	phttp "lexiscan/internal/platform/net/http"
)

// Module is kept apart from modkit so a module can import it while exporting its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
