// Package domain holds the train step contract
package domain

import (
	"context"

	"churnops/internal/adapters/tracking"
)

// Result reports what a training run produced
type Result struct {
	ModelPath     string
	Rows          int
	Columns       int
	TrainAccuracy float64
	RunID         string
	ModelVersion  tracking.ModelVersion
}

// RunnerPort is the port the pipeline and the CLI drive
type RunnerPort interface {
	Run(ctx context.Context) (Result, error)
}

// Ports are injected into the train module by its caller
type Ports struct {
	Tracker tracking.Tracker
}
