// Package module provides the preprocess module implementation
package module

import (
	"churnops/internal/modkit"
	phttp "churnops/internal/platform/net/http"

	"churnops/internal/services/preprocess/domain"
	"churnops/internal/services/preprocess/service"
)

// Ports defines the preprocess module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the preprocess module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the preprocess module from explicit options
// callers usually start from FromConfig and apply flag overrides
func New(deps modkit.Deps, opts Options) *Module {
	svc := service.New(service.Config{
		InputPath: opts.InputPath,
		TrainPath: opts.TrainPath,
		TestPath:  opts.TestPath,
		TestSize:  opts.TestSize,
		Seed:      opts.Seed,
	})
	return &Module{deps: deps, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "preprocess" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op as preprocess has no routes
func (m *Module) MountRoutes(phttp.Router) {}
