// Package tracking records training runs in an experiment tracker
//
// Three backends share the Tracker contract: an MLflow tracking server over
// its REST API, a local sqlite file, and a no-op used when tracking is off
package tracking

import (
	"context"
	"strings"
	"time"

	"churnops/internal/platform/config"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/store"
	"churnops/internal/platform/store/lite"
)

const (
	// DefaultExperiment groups the churn training runs
	DefaultExperiment = "churn-prediction-sagemaker"
	// DefaultModelName is the registered model name
	DefaultModelName = "churn-xgboost-model"
	// DefaultArtifactPath is where a run stores its model
	DefaultArtifactPath = "model"
	// MetricTrainAccuracy is logged after fitting
	MetricTrainAccuracy = "train_accuracy"
)

// Status is a run lifecycle state
type Status string

const (
	// StatusRunning is a run in progress
	StatusRunning Status = "RUNNING"
	// StatusFinished is a run that completed
	StatusFinished Status = "FINISHED"
	// StatusFailed is a run that errored
	StatusFailed Status = "FAILED"
)

// Run identifies a started run
type Run struct {
	ID           string
	ExperimentID string
	ArtifactURI  string
	StartedAt    time.Time
}

// Model describes a model file to log under a run
type Model struct {
	// ArtifactPath is the directory inside the run's artifacts
	ArtifactPath string
	// File is the local model.xgb
	File string
	// RegisteredName registers a new version when set
	RegisteredName string
	// FormatVersion is the model file layout version
	FormatVersion int
}

// ModelVersion is a registered model version
type ModelVersion struct {
	Name    string
	Version int
	Source  string
}

// Tracker is the experiment tracking contract
type Tracker interface {
	// SetExperiment returns the id of the named experiment, creating it when absent
	SetExperiment(ctx context.Context, name string) (string, error)
	StartRun(ctx context.Context, experimentID string) (Run, error)
	LogParams(ctx context.Context, run Run, params map[string]string) error
	LogMetric(ctx context.Context, run Run, key string, value float64) error
	// LogModel stores the model file and registers a version when asked
	LogModel(ctx context.Context, run Run, m Model) (ModelVersion, error)
	EndRun(ctx context.Context, run Run, status Status) error
	Close() error
}

// Backend names
const (
	BackendAuto   = "auto"
	BackendMLflow = "mlflow"
	BackendSQLite = "sqlite"
	BackendNoop   = "noop"
)

// Config selects and configures a backend
type Config struct {
	Backend     string
	URI         string
	Token       string
	SQLitePath  string
	ArtifactDir string
	Timeout     time.Duration
}

// ConfigFromEnv reads CHURN_TRACKING_* plus the conventional MLFLOW_TRACKING_URI
//
//	CHURN_TRACKING_BACKEND       auto, mlflow, sqlite or noop; auto picks mlflow when a uri is set
//	CHURN_TRACKING_SQLITE_PATH   tracker database for the sqlite backend
//	CHURN_TRACKING_ARTIFACT_DIR  artifact root for the sqlite backend
//	CHURN_TRACKING_TIMEOUT       per request timeout for the mlflow backend
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("CHURN_TRACKING_")
	return Config{
		Backend:     c.MayEnum("BACKEND", BackendAuto, BackendAuto, BackendMLflow, BackendSQLite, BackendNoop),
		URI:         root.MayString("MLFLOW_TRACKING_URI", ""),
		Token:       root.MayString("MLFLOW_TRACKING_TOKEN", ""),
		SQLitePath:  c.MayString("SQLITE_PATH", "mlruns.db"),
		ArtifactDir: c.MayString("ARTIFACT_DIR", "mlruns"),
		Timeout:     c.MayDuration("TIMEOUT", 10*time.Second),
	}
}

// Open builds the configured tracker
func Open(ctx context.Context, c Config) (Tracker, error) {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" || backend == BackendAuto {
		backend = BackendNoop
		if c.URI != "" {
			backend = BackendMLflow
		}
	}
	log := logger.Named("tracking")
	switch backend {
	case BackendMLflow:
		if c.URI == "" {
			return nil, perr.WithField(perr.InvalidArgf("mlflow tracking needs a tracking uri"), "mlflow_tracking_uri")
		}
		log.Info().Str("backend", backend).Str("uri", c.URI).Msg("experiment tracking enabled")
		return NewMLflow(MLflowOptions{BaseURL: c.URI, Token: c.Token, Timeout: c.Timeout}), nil
	case BackendSQLite:
		db, err := lite.Open(ctx, lite.Config{Path: c.SQLitePath})
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open tracker db %s", c.SQLitePath)
		}
		t, err := NewSQLite(ctx, store.NewLite(db), c.ArtifactDir)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("backend", backend).Str("path", c.SQLitePath).Msg("experiment tracking enabled")
		return t, nil
	case BackendNoop:
		log.Debug().Msg("experiment tracking disabled")
		return Noop{}, nil
	}
	return nil, perr.WithField(perr.InvalidArgf("unknown tracking backend %q", c.Backend), "backend")
}
