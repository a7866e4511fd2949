// Package api assembles the churn serving API
package api

import (
	"context"

	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/metrics"
	phttp "churnops/internal/platform/net/http"
	"churnops/internal/platform/store"

	"churnops/internal/modkit"
	"churnops/internal/modkit/httpkit"
	"churnops/internal/modkit/swaggerkit"

	metamod "churnops/internal/services/api/meta/module"
	predictmod "churnops/internal/services/api/predict/module"
	registrymod "churnops/internal/services/registry/module"
)

// ServiceName is reported by /version and the root logger
const ServiceName = "churn-api"

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Registry
	EnableSwagger  bool
	EnableProfiler bool

	Predict  predictmod.Options
	Registry registrymod.Options
}

// Mount mounts the API onto r and returns the predict module so the caller
// can run its recorder for the life of the server
//
//	GET  /                 welcome
//	POST /predict          churn prediction
//	GET  /metrics          prometheus
//	     /api/v1/...       meta and, with a SQL backend, the registry
func Mount(ctx context.Context, r phttp.Router, opt Options) (*predictmod.Module, error) {
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Metrics: opt.Metrics,
	}.FromStore(opt.Store)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	predict := predictmod.New(ctx, deps, opt.Predict)

	mods := []modkit.Module{metamod.New(deps, ServiceName, predict.Ready)}
	if deps.SQL != nil {
		reg, err := registrymod.New(ctx, deps, opt.Registry)
		if err != nil {
			return nil, err
		}
		mods = append(mods, reg)
	}

	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	r.Group(func(root httpkit.Router) {
		root.Use(httpkit.CommonStack(opt.Config, opt.Metrics)...)
		predict.MountRoutes(root)
		httpkit.MountAPIV1(root, nil, func(api httpkit.Router) {
			modkit.MountAll(api, mods...)
		})
	})
	return predict, nil
}
