package module

import (
	"churnops/internal/platform/config"
	"churnops/internal/services/evaluate/domain"
)

// Options holds the evaluate step settings
type Options struct {
	TestPath   string
	ModelPath  string
	OutputPath string
	Mode       domain.Mode
}

// FromConfig reads the evaluate options from config with CHURN_EVAL_ prefix
func FromConfig(cfg config.Conf) Options {
	ev := cfg.Prefix("CHURN_EVAL_")
	return Options{
		TestPath:   ev.MayString("TEST_PATH", "/opt/ml/processing/test"),
		ModelPath:  ev.MayString("MODEL_PATH", "/opt/ml/processing/model"),
		OutputPath: ev.MayString("OUTPUT_PATH", "/opt/ml/processing/evaluation"),
		Mode: domain.Mode(ev.MayEnum("MODE", string(domain.ModeStrict),
			string(domain.ModeStrict), string(domain.ModeBestEffort))),
	}
}
