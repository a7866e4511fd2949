package repo

import (
	"context"

	"churnops/internal/modkit/repokit"
)

// schema is portable between postgres and sqlite; timestamps are unix millis
var schema = []string{
	`CREATE TABLE IF NOT EXISTS model_packages (
		package_id           TEXT PRIMARY KEY,
		group_name           TEXT NOT NULL,
		version              INTEGER NOT NULL,
		approval_status      TEXT NOT NULL,
		approval_description TEXT,
		description          TEXT,
		model_data_url       TEXT NOT NULL,
		model_digest         TEXT,
		inference            TEXT NOT NULL,
		metric_accuracy      DOUBLE PRECISION,
		metric_precision     DOUBLE PRECISION,
		metric_recall        DOUBLE PRECISION,
		metric_f1            DOUBLE PRECISION,
		execution_id         TEXT,
		created_at           BIGINT NOT NULL,
		updated_at           BIGINT NOT NULL,
		UNIQUE (group_name, version)
	)`,
	`CREATE INDEX IF NOT EXISTS model_packages_status_idx
		ON model_packages (group_name, approval_status, version)`,
	`CREATE TABLE IF NOT EXISTS pipeline_executions (
		execution_id   TEXT PRIMARY KEY,
		pipeline       TEXT NOT NULL,
		status         TEXT NOT NULL,
		step           TEXT,
		failure_reason TEXT,
		package_id     TEXT,
		started_at     BIGINT NOT NULL,
		finished_at    BIGINT
	)`,
}

// Migrate creates the registry tables when absent
func Migrate(ctx context.Context, q repokit.Queryer) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
