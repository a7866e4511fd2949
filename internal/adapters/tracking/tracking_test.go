package tracking

import (
	"context"
	"path/filepath"
	"testing"

	"churnops/internal/platform/config"
	perr "churnops/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MLFLOW_TRACKING_URI", "http://mlflow:5000")
	t.Setenv("CHURN_TRACKING_BACKEND", "sqlite")
	t.Setenv("CHURN_TRACKING_SQLITE_PATH", "/tmp/runs.db")

	c := ConfigFromEnv(config.New())
	assert.Equal(t, "http://mlflow:5000", c.URI)
	assert.Equal(t, BackendSQLite, c.Backend)
	assert.Equal(t, "/tmp/runs.db", c.SQLitePath)
	assert.Equal(t, "mlruns", c.ArtifactDir)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	tr, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, tr)

	tr, err = Open(ctx, Config{URI: "http://localhost:5000"})
	require.NoError(t, err)
	assert.IsType(t, &MLflow{}, tr)

	_, err = Open(ctx, Config{Backend: BackendMLflow})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	dir := t.TempDir()
	tr, err = Open(ctx, Config{Backend: BackendSQLite, SQLitePath: filepath.Join(dir, "runs.db"), ArtifactDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, tr)
	require.NoError(t, tr.Close())

	_, err = Open(ctx, Config{Backend: "wandb"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var tr Tracker = Noop{}
	exp, err := tr.SetExperiment(ctx, DefaultExperiment)
	require.NoError(t, err)
	run, err := tr.StartRun(ctx, exp)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	mv, err := tr.LogModel(ctx, run, Model{RegisteredName: DefaultModelName})
	require.NoError(t, err)
	assert.Equal(t, DefaultModelName, mv.Name)
	assert.NoError(t, tr.EndRun(ctx, run, StatusFinished))
}
