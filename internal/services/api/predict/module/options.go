package module

import (
	"time"

	"churnops/internal/platform/config"
)

// Options holds the prediction settings
type Options struct {
	// ModelPath is model.xgb, model.tar.gz, or a directory holding one
	ModelPath string
	// Record sends served predictions to ClickHouse when a connection exists
	Record      bool
	RecordBatch int
	RecordEvery time.Duration
}

// FromConfig reads MODEL_PATH and the CHURN_API_RECORD_ settings
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("CHURN_API_RECORD_")
	return Options{
		ModelPath:   cfg.MayString("MODEL_PATH", "model.xgb"),
		Record:      rc.MayBool("ENABLED", true),
		RecordBatch: rc.MayInt("BATCH", 500),
		RecordEvery: rc.MayDuration("EVERY", 2*time.Second),
	}
}
