// Package module wires the step modules and the registry into a pipeline runner
package module

import (
	"churnops/internal/adapters/tracking"
	"churnops/internal/modkit"
	phttp "churnops/internal/platform/net/http"

	evmodule "churnops/internal/services/evaluate/module"
	"churnops/internal/services/pipeline/domain"
	"churnops/internal/services/pipeline/service"
	ppmodule "churnops/internal/services/preprocess/module"
	regdomain "churnops/internal/services/registry/domain"
	trdomain "churnops/internal/services/train/domain"
	trmodule "churnops/internal/services/train/module"
)

// Deps are the ports the pipeline borrows from other modules
type Deps struct {
	Tracker    tracking.Tracker
	Registry   regdomain.RegistryPort
	Executions regdomain.ExecutionPort
}

// Ports defines the pipeline module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the pipeline module
type Module struct {
	def   domain.Definition
	ports Ports
}

// New builds the step modules over def's directories and the runner over them
// the registry ports arrive through modkit.WithPorts(Deps{...})
func New(deps modkit.Deps, def domain.Definition, mopts ...modkit.Option) *Module {
	b := modkit.Build(modkit.Built{Name: "pipeline"}, mopts...)
	pd, _ := modkit.PortsAs[Deps](b)
	paths := def.Paths()

	pre := ppmodule.New(deps, ppmodule.Options{
		InputPath: paths.Input,
		TrainPath: paths.Train,
		TestPath:  paths.Test,
		TestSize:  def.Preprocess.TestSize,
		Seed:      def.Preprocess.Seed,
	})
	train := trmodule.New(deps, trmodule.Options{
		TrainPath:      paths.Train,
		ModelDir:       paths.Model,
		Params:         def.Train.Params,
		Experiment:     def.Train.Experiment,
		RegisteredName: def.Train.ModelName,
	}, modkit.WithPorts(trdomain.Ports{Tracker: pd.Tracker}))
	eval := evmodule.New(deps, evmodule.Options{
		TestPath:   paths.Test,
		ModelPath:  paths.Model,
		OutputPath: paths.Evaluation,
		Mode:       def.Evaluate.Mode,
	})

	svc := service.New(def, service.Steps{
		Preprocess: pre.Ports().(ppmodule.Ports).Runner,
		Train:      train.Ports().(trmodule.Ports).Runner,
		Evaluate:   eval.Ports().(evmodule.Ports).Runner,
	}, pd.Registry, pd.Executions)
	return &Module{def: def, ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "pipeline" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Definition returns the definition the module runs
func (m *Module) Definition() domain.Definition { return m.def }

// MountRoutes is a no-op as pipeline has no routes
func (m *Module) MountRoutes(phttp.Router) {}
