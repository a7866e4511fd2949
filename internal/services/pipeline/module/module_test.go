package module

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"churnops/internal/adapters/artifact"
	"churnops/internal/adapters/dataset"
	"churnops/internal/core/schema"
	"churnops/internal/modkit"
	"churnops/internal/platform/config"
	"churnops/internal/platform/store"
	"churnops/internal/platform/store/lite"
	evdomain "churnops/internal/services/evaluate/domain"
	"churnops/internal/services/pipeline/domain"
	regdomain "churnops/internal/services/registry/domain"
	regmodule "churnops/internal/services/registry/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRaw(t *testing.T, dir string, recs []schema.Record) {
	t.Helper()
	p := filepath.Join(dir, dataset.RawFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, dataset.WriteRaw(f, schema.Header(), recs))
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	db, err := lite.Open(ctx, lite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := modkit.Deps{SQL: store.NewLite(db)}
	reg, err := regmodule.New(ctx, deps, regmodule.Options{Migrate: true})
	require.NoError(t, err)
	rp := reg.Ports().(regmodule.Ports)

	def := domain.Default(t.TempDir())
	def.Train.Params.Rounds = 10
	writeRaw(t, def.Paths().Input, dataset.Sample(10, 7))

	m := New(deps, def, modkit.WithPorts(Deps{Registry: rp.Registry, Executions: rp.Executions}))
	res, err := m.Ports().(Ports).Runner.Run(ctx)
	require.NoError(t, err)

	paths := def.Paths()
	assert.FileExists(t, filepath.Join(paths.Train, dataset.TrainFile))
	assert.FileExists(t, filepath.Join(paths.Test, dataset.TestFile))
	assert.FileExists(t, filepath.Join(paths.Model, artifact.ModelFile))
	assert.FileExists(t, filepath.Join(paths.Model, artifact.PackageFile))
	assert.FileExists(t, filepath.Join(paths.Evaluation, evdomain.ReportFile))

	assert.Equal(t, 40, res.Preprocess.TrainRows)
	assert.Equal(t, 10, res.Evaluate.Rows)
	assert.Equal(t, filepath.Join(paths.Model, artifact.PackageFile), res.Evaluate.ModelPath)
	assert.False(t, res.Evaluate.Placeholder)

	r := res.Evaluate.Report
	for name, v := range map[string]float64{"accuracy": r.Accuracy, "precision": r.Precision, "recall": r.Recall, "f1": r.F1} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}

	latest, err := rp.Registry.Latest(ctx, regdomain.DefaultGroup, regdomain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, res.Package.ID, latest.ID)
	require.NotNil(t, latest.Metrics)
	assert.InDelta(t, r.Accuracy, latest.Metrics.Accuracy, 1e-12)

	e, err := rp.Executions.GetExecution(ctx, res.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, regdomain.ExecutionSucceeded, e.Status)
}

func TestPipelineSeedCustomersOnly(t *testing.T) {
	ctx := context.Background()
	db, err := lite.Open(ctx, lite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	deps := modkit.Deps{SQL: store.NewLite(db)}
	reg, err := regmodule.New(ctx, deps, regmodule.Options{Migrate: true})
	require.NoError(t, err)
	rp := reg.Ports().(regmodule.Ports)

	def := domain.Default(t.TempDir())
	def.Train.Params.Rounds = 5
	writeRaw(t, def.Paths().Input, dataset.SeedRecords())

	m := New(deps, def, modkit.WithPorts(Deps{Registry: rp.Registry, Executions: rp.Executions}))
	res, err := m.Ports().(Ports).Runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Preprocess.TrainRows)
	assert.Equal(t, 1, res.Preprocess.TestRows)
	assert.Equal(t, 1, res.Evaluate.Rows)
	assert.False(t, res.Evaluate.Placeholder)
	r := res.Evaluate.Report
	for name, v := range map[string]float64{"accuracy": r.Accuracy, "precision": r.Precision, "recall": r.Recall, "f1": r.F1} {
		assert.False(t, math.IsNaN(v), name)
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
	assert.Equal(t, regdomain.ExecutionSucceeded, res.Execution.Status)
}

func TestPipelineMissingInputFailsFirstStep(t *testing.T) {
	ctx := context.Background()
	db, err := lite.Open(ctx, lite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	deps := modkit.Deps{SQL: store.NewLite(db)}
	reg, err := regmodule.New(ctx, deps, regmodule.Options{Migrate: true})
	require.NoError(t, err)
	rp := reg.Ports().(regmodule.Ports)

	m := New(deps, domain.Default(t.TempDir()), modkit.WithPorts(Deps{Registry: rp.Registry, Executions: rp.Executions}))
	res, err := m.Ports().(Ports).Runner.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, regdomain.ExecutionFailed, res.Execution.Status)
	assert.Equal(t, domain.StepPreprocess, res.Execution.Step)
}

func TestFromConfig(t *testing.T) {
	t.Setenv("CHURN_PIPELINE_DEFINITION", "/etc/churn/pipeline.yaml")
	o := FromConfig(config.New())
	assert.Equal(t, "/etc/churn/pipeline.yaml", o.Definition)
	assert.Equal(t, "/opt/ml/processing", o.Workdir)
}
