// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"net/http"
	"time"

	"churnops/internal/modkit"
	"churnops/internal/modkit/httpkit"
	str "churnops/internal/platform/strings"

	metahttp "churnops/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// New constructs a meta module over the backends in deps
// modelReady may be nil when the binary serves no model
func New(deps modkit.Deps, service string, modelReady func() bool, opts ...modkit.Option) *Module {
	b := modkit.Build(modkit.Built{Name: "meta"}, opts...)

	backends := map[string]any{"sql": nil, "ch": nil, "cache": nil}
	if deps.SQL != nil {
		backends["sql"] = deps.SQL
	}
	if deps.CH != nil {
		backends["ch"] = deps.CH
	}
	if deps.Cache != nil {
		backends["cache"] = deps.Cache
	}

	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		deps: metahttp.Deps{
			ServiceName: service,
			StartedAt:   time.Now(),
			Backends:    backends,
			ModelReady:  modelReady,
		},
	}
}

// MountRoutes implements the modkit.Module interface
// probes are never cached
func (m *Module) MountRoutes(r httpkit.Router) {
	mws := append([]func(http.Handler) http.Handler{httpkit.NoStore()}, m.mws...)
	httpkit.MountUnder(r, m.prefix, mws, func(rr httpkit.Router) {
		metahttp.Register(rr, m.deps)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
