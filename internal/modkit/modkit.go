// Package modkit wires feature modules onto the shared router and deps
package modkit

import (
	phttp "churnops/internal/platform/net/http"
)

// Module is the surface API modules expose to main
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring
	Ports() any
	Name() string
}

// MountAll mounts every module on r in order
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		if m != nil {
			m.MountRoutes(r)
		}
	}
}
