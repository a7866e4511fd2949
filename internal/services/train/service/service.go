// Package service fits the churn booster on train.csv and records the run
package service

import (
	"context"
	"os"
	"path/filepath"

	"churnops/internal/adapters/artifact"
	"churnops/internal/adapters/dataset"
	"churnops/internal/adapters/tracking"
	"churnops/internal/core/gbdt"
	"churnops/internal/core/metrics"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
	"churnops/internal/services/train/domain"
)

// Config holds the training inputs and the tracking names
type Config struct {
	// TrainPath is a directory holding train.csv, or the file itself
	TrainPath string
	ModelDir  string
	Params    gbdt.Params

	Experiment     string
	ArtifactPath   string
	RegisteredName string
}

// Service implements domain.RunnerPort
type Service struct {
	Cfg     Config
	Tracker tracking.Tracker
	log     *logger.Logger
}

// New constructs the train service; a nil tracker records nothing
func New(cfg Config, tr tracking.Tracker) *Service {
	if tr == nil {
		tr = tracking.Noop{}
	}
	if cfg.Experiment == "" {
		cfg.Experiment = tracking.DefaultExperiment
	}
	if cfg.ArtifactPath == "" {
		cfg.ArtifactPath = tracking.DefaultArtifactPath
	}
	return &Service{Cfg: cfg, Tracker: tr, log: logger.Named("train")}
}

// Run trains one booster, persists model.xgb and logs the run
func (s *Service) Run(ctx context.Context) (res domain.Result, err error) {
	p := s.Cfg.Params
	if err := p.Validate(); err != nil {
		return domain.Result{}, err
	}

	in, err := trainFile(s.Cfg.TrainPath)
	if err != nil {
		return domain.Result{}, err
	}
	fr, err := dataset.ReadEncodedFile(in)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "train")
	}
	s.log.Info().Str("input", in).Int("rows", len(fr.Rows)).Int("columns", len(fr.Columns)).Msg("training starting")

	expID, err := s.Tracker.SetExperiment(ctx, s.Cfg.Experiment)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "set experiment")
	}
	run, err := s.Tracker.StartRun(ctx, expID)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "start run")
	}
	defer func() {
		if err == nil {
			return
		}
		// the run outcome is recorded even when ctx is already done
		if endErr := s.Tracker.EndRun(context.WithoutCancel(ctx), run, tracking.StatusFailed); endErr != nil {
			s.log.Warn().Err(endErr).Str("run_id", run.ID).Msg("could not mark run failed")
		}
	}()

	if err = s.Tracker.LogParams(ctx, run, p.Map()); err != nil {
		return domain.Result{}, perr.WithOp(err, "log params")
	}

	booster, err := gbdt.Train(ctx, fr.Rows, fr.Labels, fr.Columns, p)
	if err != nil {
		return domain.Result{}, err
	}
	probs, err := booster.PredictAll(fr.Rows)
	if err != nil {
		return domain.Result{}, err
	}
	acc, err := metrics.Accuracy(fr.Labels, probs)
	if err != nil {
		return domain.Result{}, err
	}
	if err = s.Tracker.LogMetric(ctx, run, tracking.MetricTrainAccuracy, acc); err != nil {
		return domain.Result{}, perr.WithOp(err, "log metric")
	}

	path, err := artifact.SaveModel(s.Cfg.ModelDir, booster)
	if err != nil {
		return domain.Result{}, err
	}
	mv, err := s.Tracker.LogModel(ctx, run, tracking.Model{
		ArtifactPath:   s.Cfg.ArtifactPath,
		File:           path,
		RegisteredName: s.Cfg.RegisteredName,
		FormatVersion:  gbdt.FormatVersion,
	})
	if err != nil {
		_ = os.Remove(path)
		return domain.Result{}, perr.WithOp(err, "log model")
	}
	if err = s.Tracker.EndRun(ctx, run, tracking.StatusFinished); err != nil {
		_ = os.Remove(path)
		return domain.Result{}, perr.WithOp(err, "end run")
	}

	s.log.Info().
		Float64(tracking.MetricTrainAccuracy, acc).
		Int("trees", len(booster.Trees)).
		Str("run_id", run.ID).
		Str("model", path).
		Str("registered", mv.Name).
		Int("version", mv.Version).
		Msg("training done")

	return domain.Result{
		ModelPath:     path,
		Rows:          len(fr.Rows),
		Columns:       len(fr.Columns),
		TrainAccuracy: acc,
		RunID:         run.ID,
		ModelVersion:  mv,
	}, nil
}

func trainFile(p string) (string, error) {
	if p == "" {
		return "", perr.WithField(perr.InvalidArgf("train path is empty"), "train")
	}
	st, err := os.Stat(p)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeNotFound, "stat %s", p)
	}
	if st.IsDir() {
		return filepath.Join(p, dataset.TrainFile), nil
	}
	return p, nil
}
