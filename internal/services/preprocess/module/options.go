package module

import (
	"churnops/internal/platform/config"
)

// Options holds the preprocess step settings
type Options struct {
	InputPath string
	TrainPath string
	TestPath  string
	TestSize  float64
	Seed      int64
}

// FromConfig reads the preprocess options from config with CHURN_PREPROCESS_ prefix
// defaults follow the processing container layout
func FromConfig(cfg config.Conf) Options {
	pp := cfg.Prefix("CHURN_PREPROCESS_")
	return Options{
		InputPath: pp.MayString("INPUT_PATH", "/opt/ml/processing/input"),
		TrainPath: pp.MayString("TRAIN_PATH", "/opt/ml/processing/train"),
		TestPath:  pp.MayString("TEST_PATH", "/opt/ml/processing/test"),
		TestSize:  pp.MayFloat64("TEST_SIZE", 0.2),
		Seed:      pp.MayInt64("SEED", 42),
	}
}
