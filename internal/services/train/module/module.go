// Package module provides the train module implementation
package module

import (
	"churnops/internal/adapters/tracking"
	"churnops/internal/modkit"
	phttp "churnops/internal/platform/net/http"

	"churnops/internal/services/train/domain"
	"churnops/internal/services/train/service"
)

// Ports defines the train module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the train module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the train module
// the tracker arrives through modkit.WithPorts(domain.Ports{...}); without one runs are not tracked
func New(deps modkit.Deps, opts Options, mopts ...modkit.Option) *Module {
	b := modkit.Build(modkit.Built{Name: "train"}, mopts...)

	var tr tracking.Tracker = tracking.Noop{}
	if p, ok := modkit.PortsAs[domain.Ports](b); ok && p.Tracker != nil {
		tr = p.Tracker
	}

	svc := service.New(service.Config{
		TrainPath:      opts.TrainPath,
		ModelDir:       opts.ModelDir,
		Params:         opts.Params,
		Experiment:     opts.Experiment,
		ArtifactPath:   tracking.DefaultArtifactPath,
		RegisteredName: opts.RegisteredName,
	}, tr)
	return &Module{deps: deps, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "train" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes is a no-op as train has no routes
func (m *Module) MountRoutes(phttp.Router) {}
