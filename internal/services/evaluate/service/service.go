// Package service scores the trained model on the held out split
package service

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"churnops/internal/adapters/artifact"
	"churnops/internal/adapters/dataset"
	"churnops/internal/core/encode"
	"churnops/internal/core/gbdt"
	"churnops/internal/core/metrics"
	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/fsx"
	"churnops/internal/platform/logger"
	"churnops/internal/services/evaluate/domain"
)

// Config holds the evaluation paths and failure mode
type Config struct {
	// TestPath is a directory holding test.csv, or the file itself
	TestPath string
	// ModelPath is model.tar.gz, model.xgb, or a directory holding either
	ModelPath  string
	OutputPath string
	Mode       domain.Mode
}

// Service implements domain.RunnerPort
type Service struct {
	Cfg Config
	log *logger.Logger
}

// New constructs the evaluate service, strict unless told otherwise
func New(cfg Config) *Service {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeStrict
	}
	return &Service{Cfg: cfg, log: logger.Named("evaluate")}
}

// Run loads the model, scores test.csv and writes evaluation.json
// nothing is written when the run fails
func (s *Service) Run(ctx context.Context) (domain.Result, error) {
	if s.Cfg.Mode != domain.ModeStrict && s.Cfg.Mode != domain.ModeBestEffort {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("unknown evaluation mode %q", s.Cfg.Mode), "mode")
	}

	modelPath, err := s.modelFile()
	if err != nil {
		return domain.Result{}, err
	}
	booster, err := artifact.LoadModel(modelPath)
	if err != nil {
		return domain.Result{}, err
	}

	testPath := s.Cfg.TestPath
	if st, err := os.Stat(testPath); err == nil && st.IsDir() {
		testPath = filepath.Join(testPath, dataset.TestFile)
	}
	fr, err := dataset.ReadEncodedFile(testPath)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "evaluate")
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	s.log.Info().Str("model", modelPath).Str("test", testPath).Int("rows", len(fr.Rows)).Str("mode", string(s.Cfg.Mode)).
		Msg("evaluation starting")

	report, err := s.score(booster, fr)
	placeholder := false
	if err != nil {
		if s.Cfg.Mode != domain.ModeBestEffort || !perr.IsCode(err, perr.ErrorCodeMetricComputation) {
			return domain.Result{}, err
		}
		s.log.Warn().Err(err).Interface("placeholder", metrics.Placeholder).Msg("metric computation failed; writing placeholder metrics")
		report, placeholder = metrics.Placeholder, true
	}

	out := filepath.Join(s.Cfg.OutputPath, domain.ReportFile)
	err = fsx.WriteFileAtomic(out, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(domain.Document{Metrics: report})
	})
	if err != nil {
		return domain.Result{}, err
	}

	s.log.Info().
		Float64("accuracy", report.Accuracy).
		Float64("precision", report.Precision).
		Float64("recall", report.Recall).
		Float64("f1_score", report.F1).
		Bool("placeholder", placeholder).
		Str("output", out).
		Msg("evaluation done")

	return domain.Result{
		Report:      report,
		Rows:        len(fr.Rows),
		Placeholder: placeholder,
		ReportPath:  out,
		ModelPath:   modelPath,
	}, nil
}

// modelFile resolves the configured path to a single model file
// a directory holding the package wins over a bare model.xgb beside it
func (s *Service) modelFile() (string, error) {
	p := s.Cfg.ModelPath
	st, err := os.Stat(p)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeModelLoad, "stat model %s", p)
	}
	if !st.IsDir() {
		return p, nil
	}
	for _, name := range []string{artifact.PackageFile, artifact.ModelFile} {
		if _, err := os.Stat(filepath.Join(p, name)); err == nil {
			return filepath.Join(p, name), nil
		}
	}
	return "", perr.ModelLoadf("no %s or %s in %s", artifact.PackageFile, artifact.ModelFile, p)
}

func (s *Service) score(b *gbdt.Booster, fr dataset.Frame) (metrics.Report, error) {
	reference := b.Columns
	if len(reference) == 0 {
		reference = schema.DefaultReferenceColumns()
		s.log.Warn().Int("columns", len(reference)).Msg("model carries no column list; using the default reference")
	}
	x, err := encode.Align(fr.Columns, fr.Rows, reference)
	if err != nil {
		return metrics.Report{}, err
	}
	probs, err := b.PredictAll(x)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Compute(fr.Labels, probs)
}
