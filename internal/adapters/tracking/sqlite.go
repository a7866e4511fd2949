package tracking

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/fsx"
	"churnops/internal/platform/store"

	"github.com/google/uuid"
)

var trackerSchema = []string{
	`CREATE TABLE IF NOT EXISTS experiments (
		experiment_id     INTEGER PRIMARY KEY,
		name              TEXT NOT NULL UNIQUE,
		artifact_location TEXT NOT NULL,
		created_at        BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		run_id        TEXT PRIMARY KEY,
		experiment_id INTEGER NOT NULL REFERENCES experiments(experiment_id),
		status        TEXT NOT NULL,
		artifact_uri  TEXT NOT NULL,
		start_time    BIGINT NOT NULL,
		end_time      BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS params (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	)`,
	`CREATE TABLE IF NOT EXISTS metrics (
		run_id    TEXT NOT NULL REFERENCES runs(run_id),
		key       TEXT NOT NULL,
		value     DOUBLE PRECISION NOT NULL,
		timestamp BIGINT NOT NULL,
		step      BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS model_versions (
		name       TEXT NOT NULL,
		version    INTEGER NOT NULL,
		run_id     TEXT NOT NULL REFERENCES runs(run_id),
		source     TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (name, version)
	)`,
}

// SQLite keeps runs in a local database and artifacts under a directory
type SQLite struct {
	db   store.TxRunner
	root string
	now  func() time.Time
}

// NewSQLite migrates the tracker tables on db
func NewSQLite(ctx context.Context, db store.TxRunner, artifactRoot string) (*SQLite, error) {
	for _, stmt := range trackerSchema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return nil, perr.FromDB(err, "migrate tracker schema")
		}
	}
	root, err := filepath.Abs(artifactRoot)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "artifact root %s", artifactRoot)
	}
	return &SQLite{db: db, root: root, now: time.Now}, nil
}

// SetExperiment implements Tracker
func (s *SQLite) SetExperiment(ctx context.Context, name string) (string, error) {
	var id int64
	err := s.db.Tx(ctx, func(q store.RowQuerier) error {
		got, err := store.Scalar[int64](ctx, q, `SELECT experiment_id FROM experiments WHERE name = $1`, name)
		if err == nil {
			id = got
			return nil
		}
		if !store.IsNoRows(err) {
			return err
		}
		next, err := store.Scalar[int64](ctx, q, `SELECT COALESCE(MAX(experiment_id), 0) + 1 FROM experiments`)
		if err != nil {
			return err
		}
		loc := filepath.Join(s.root, strconv.FormatInt(next, 10))
		if err := store.ExecOne(ctx, q,
			`INSERT INTO experiments (experiment_id, name, artifact_location, created_at) VALUES ($1, $2, $3, $4)`,
			next, name, loc, s.now().UnixMilli()); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return "", perr.FromDB(err, "set experiment")
	}
	return strconv.FormatInt(id, 10), nil
}

// StartRun implements Tracker
func (s *SQLite) StartRun(ctx context.Context, experimentID string) (Run, error) {
	expID, err := strconv.ParseInt(experimentID, 10, 64)
	if err != nil {
		return Run{}, perr.WithField(perr.InvalidArgf("experiment id %q", experimentID), "experiment_id")
	}
	loc, err := store.Scalar[string](ctx, s.db, `SELECT artifact_location FROM experiments WHERE experiment_id = $1`, expID)
	if err != nil {
		if store.IsNoRows(err) {
			return Run{}, perr.NotFoundf("experiment %s", experimentID)
		}
		return Run{}, perr.FromDB(err, "load experiment")
	}

	now := s.now().UTC()
	run := Run{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		StartedAt:    now,
	}
	run.ArtifactURI = filepath.Join(loc, run.ID, "artifacts")
	err = store.ExecOne(ctx, s.db,
		`INSERT INTO runs (run_id, experiment_id, status, artifact_uri, start_time) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, expID, string(StatusRunning), run.ArtifactURI, now.UnixMilli())
	if err != nil {
		return Run{}, perr.FromDB(err, "start run")
	}
	return run, nil
}

// LogParams implements Tracker; a repeated key keeps its first value
func (s *SQLite) LogParams(ctx context.Context, run Run, params map[string]string) error {
	err := s.db.Tx(ctx, func(q store.RowQuerier) error {
		for k, v := range params {
			if _, err := q.Exec(ctx,
				`INSERT INTO params (run_id, key, value) VALUES ($1, $2, $3) ON CONFLICT (run_id, key) DO NOTHING`,
				run.ID, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	return perr.FromDB(err, "log params")
}

// LogMetric implements Tracker
func (s *SQLite) LogMetric(ctx context.Context, run Run, key string, value float64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO metrics (run_id, key, value, timestamp, step) VALUES ($1, $2, $3, $4, 0)`,
		run.ID, key, value, s.now().UnixMilli())
	return perr.FromDB(err, "log metric")
}

// LogModel implements Tracker
func (s *SQLite) LogModel(ctx context.Context, run Run, m Model) (ModelVersion, error) {
	if m.ArtifactPath == "" {
		m.ArtifactPath = DefaultArtifactPath
	}
	dir := filepath.Join(run.ArtifactURI, m.ArtifactPath)
	if err := copyFile(m.File, filepath.Join(dir, filepath.Base(m.File))); err != nil {
		return ModelVersion{}, err
	}
	desc, err := descriptor(run, m, s.now())
	if err != nil {
		return ModelVersion{}, perr.Wrap(err, perr.ErrorCodeUnknown, "render MLmodel")
	}
	if err := fsx.WriteFileAtomic(filepath.Join(dir, MLmodelFile), func(w io.Writer) error {
		_, err := w.Write(desc)
		return err
	}); err != nil {
		return ModelVersion{}, err
	}

	mv := ModelVersion{Name: m.RegisteredName, Source: dir}
	if m.RegisteredName == "" {
		return mv, nil
	}
	err = s.db.Tx(ctx, func(q store.RowQuerier) error {
		next, err := store.Scalar[int64](ctx, q, `SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = $1`, m.RegisteredName)
		if err != nil {
			return err
		}
		mv.Version = int(next)
		return store.ExecOne(ctx, q,
			`INSERT INTO model_versions (name, version, run_id, source, created_at) VALUES ($1, $2, $3, $4, $5)`,
			m.RegisteredName, next, run.ID, dir, s.now().UnixMilli())
	})
	if err != nil {
		return ModelVersion{}, perr.FromDB(err, "register model version")
	}
	return mv, nil
}

// EndRun implements Tracker
func (s *SQLite) EndRun(ctx context.Context, run Run, status Status) error {
	err := store.ExecOne(ctx, s.db,
		`UPDATE runs SET status = $1, end_time = $2 WHERE run_id = $3`,
		string(status), s.now().UnixMilli(), run.ID)
	return perr.FromDB(err, "end run")
}

// Close implements Tracker
func (s *SQLite) Close() error {
	if c, ok := s.db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeModelLoad, "open %s", src)
	}
	defer func() { _ = in.Close() }()
	return fsx.WriteFileAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}
