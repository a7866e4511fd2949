// Package service reads the raw churn CSV, encodes it and writes the train and test splits
package service

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"churnops/internal/adapters/dataset"
	"churnops/internal/core/encode"
	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/fsx"
	"churnops/internal/platform/logger"
	"churnops/internal/services/preprocess/domain"
)

// Config holds the step's paths and split settings
type Config struct {
	InputPath string // directory holding raw/churn_data.csv
	TrainPath string // directory receiving train.csv
	TestPath  string // directory receiving test.csv
	TestSize  float64
	Seed      int64
}

// Service implements domain.RunnerPort
type Service struct {
	Cfg Config
	log *logger.Logger
}

// New constructs the preprocess service
func New(cfg Config) *Service {
	return &Service{Cfg: cfg, log: logger.Named("preprocess")}
}

// summaryColumns are the numeric columns worth a mean in the run log
var summaryColumns = []string{"tenure", "MonthlyCharges", "TotalCharges"}

// Run executes one preprocess pass
// both splits are written or neither is
func (s *Service) Run(ctx context.Context) (domain.Result, error) {
	in := filepath.Join(s.Cfg.InputPath, dataset.RawFile)
	s.log.Info().Str("input", in).Float64("test_size", s.Cfg.TestSize).Int64("seed", s.Cfg.Seed).Msg("preprocess starting")

	records, err := dataset.ReadRawFile(in)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "preprocess")
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	enc, err := encode.Encode(records, nil)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "preprocess")
	}
	if enc.Labels == nil {
		return domain.Result{}, perr.WithField(perr.Schemaf("raw csv has no %s column", schema.LabelColumn), schema.LabelColumn)
	}
	if len(enc.Vectors) == 0 {
		return domain.Result{}, perr.Schemaf("no rows left after dropping %d with missing values", enc.Dropped)
	}

	full := dataset.Frame{Columns: enc.Columns, Rows: enc.Vectors, Labels: enc.Labels}
	train, test, err := dataset.SplitFrame(full, s.Cfg.TestSize, s.Cfg.Seed)
	if err != nil {
		return domain.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	res := domain.Result{
		Columns:   enc.Columns,
		Read:      len(records),
		Dropped:   enc.Dropped,
		TrainRows: len(train.Rows),
		TestRows:  len(test.Rows),
		TrainPath: filepath.Join(s.Cfg.TrainPath, dataset.TrainFile),
		TestPath:  filepath.Join(s.Cfg.TestPath, dataset.TestFile),
	}
	if err := writeFrame(res.TrainPath, train); err != nil {
		return domain.Result{}, err
	}
	if err := writeFrame(res.TestPath, test); err != nil {
		_ = os.Remove(res.TrainPath)
		return domain.Result{}, err
	}

	s.log.Info().
		Int("read", res.Read).
		Int("dropped", res.Dropped).
		Int("columns", len(res.Columns)).
		Object("train", dataset.Summarize(train, summaryColumns...)).
		Object("test", dataset.Summarize(test, summaryColumns...)).
		Str("train_path", res.TrainPath).
		Str("test_path", res.TestPath).
		Msg("preprocess done")
	return res, nil
}

func writeFrame(path string, fr dataset.Frame) error {
	return fsx.WriteFileAtomic(path, func(w io.Writer) error { return dataset.WriteEncoded(w, fr) })
}
