// Package module wires the prediction endpoints into the API
package module

import (
	"context"

	"churnops/internal/modkit"
	"churnops/internal/modkit/httpkit"
	"churnops/internal/platform/logger"

	"churnops/internal/services/api/predict/domain"
	predicthttp "churnops/internal/services/api/predict/http"
	"churnops/internal/services/api/predict/repo"
	"churnops/internal/services/api/predict/service"
)

// Ports defines the predict module ports
type Ports struct {
	Predictor domain.PredictorPort
}

// Module implements the predict module
type Module struct {
	built    modkit.Built
	svc      *service.Service
	recorder *repo.Recorder
}

// New builds the predictor and loads the model once
// a load failure is logged and /predict answers 503 until a restart
func New(ctx context.Context, deps modkit.Deps, opts Options, mopts ...modkit.Option) *Module {
	b := modkit.Build(modkit.Built{Name: "predict"}, mopts...)
	log := logger.Named("predict")
	m := &Module{built: b}

	var rec domain.RecorderPort
	if opts.Record && deps.CH != nil {
		r := repo.NewRecorder(deps.CH, repo.Options{Batch: opts.RecordBatch, Every: opts.RecordEvery})
		if err := r.Migrate(ctx); err != nil {
			log.Warn().Err(err).Msg("prediction audit table unavailable, not recording")
		} else {
			m.recorder, rec = r, r
		}
	}

	m.svc = service.New(rec)
	if err := m.svc.Load(opts.ModelPath); err != nil {
		log.Error().Err(err).Str("path", opts.ModelPath).Msg("model load failed, serving 503 on /predict")
	}
	return m
}

// Run flushes recorded predictions until ctx ends; without a recorder it returns at once
func (m *Module) Run(ctx context.Context) {
	if m.recorder == nil {
		return
	}
	m.recorder.Run(ctx)
}

// Ready reports whether the model is loaded
func (m *Module) Ready() bool { return m.svc.Ready() }

// MountRoutes mounts / and /predict
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.built.Prefix, m.built.Mw, func(rr httpkit.Router) {
		predicthttp.Register(rr, m.svc)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return Ports{Predictor: m.svc} }
