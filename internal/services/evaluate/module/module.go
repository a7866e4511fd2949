// Package module provides the evaluate module implementation
package module

import (
	"churnops/internal/modkit"
	phttp "churnops/internal/platform/net/http"

	"churnops/internal/services/evaluate/domain"
	"churnops/internal/services/evaluate/service"
)

// Ports defines the evaluate module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the evaluate module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the evaluate module
func New(deps modkit.Deps, opts Options) *Module {
	svc := service.New(service.Config{
		TestPath:   opts.TestPath,
		ModelPath:  opts.ModelPath,
		OutputPath: opts.OutputPath,
		Mode:       opts.Mode,
	})
	return &Module{deps: deps, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "evaluate" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op as evaluate has no routes
func (m *Module) MountRoutes(phttp.Router) {}
