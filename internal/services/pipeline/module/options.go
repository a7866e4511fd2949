package module

import (
	"churnops/internal/platform/config"
)

// Options locate the pipeline definition
type Options struct {
	// Definition is a YAML file overlaid on the built in pipeline; empty uses the defaults
	Definition string
	// Workdir roots the step directories
	Workdir string
}

// FromConfig reads the pipeline options from config with CHURN_PIPELINE_ prefix
func FromConfig(cfg config.Conf) Options {
	pc := cfg.Prefix("CHURN_PIPELINE_")
	return Options{
		Definition: pc.MayString("DEFINITION", ""),
		Workdir:    pc.MayString("WORKDIR", "/opt/ml/processing"),
	}
}
