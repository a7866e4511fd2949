// Package module wires the model registry into the API and the pipeline
package module

import (
	"context"
	"net/http"

	"churnops/internal/modkit"
	"churnops/internal/modkit/httpkit"
	perr "churnops/internal/platform/errors"
	str "churnops/internal/platform/strings"

	"churnops/internal/services/registry/domain"
	reghttp "churnops/internal/services/registry/http"
	"churnops/internal/services/registry/repo"
	"churnops/internal/services/registry/service"
)

// Ports defines the registry module ports
type Ports struct {
	Registry   domain.RegistryPort
	Executions domain.ExecutionPort
}

// Module implements the registry module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports
}

// New constructs the registry module on deps.SQL
// the cache and metrics registry are used when present
func New(ctx context.Context, deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	b := modkit.Build(modkit.Built{Name: "registry"}, mopts...)
	if deps.SQL == nil {
		return nil, perr.Unavailablef("registry needs a SQL backend; enable CORE_PG or CORE_SQLITE")
	}
	if opts.Migrate {
		if err := repo.Migrate(ctx, deps.SQL); err != nil {
			return nil, perr.FromDB(err, "migrate registry")
		}
	}

	svc := service.New(deps.SQL, repo.New(), deps.Cache, deps.Metrics, service.Config{
		CacheTTL:  opts.CacheTTL,
		ListLimit: opts.ListLimit,
	})
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  Ports{Registry: svc, Executions: svc},
	}, nil
}

// MountRoutes mounts the read only registry routes
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		reghttp.Register(rr, m.ports.Registry, m.ports.Executions)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
