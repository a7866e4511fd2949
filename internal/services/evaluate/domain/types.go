// Package domain holds the evaluate step contract
package domain

import (
	"context"

	"churnops/internal/core/metrics"
)

// ReportFile is the evaluation output name under the output path
const ReportFile = "evaluation.json"

// Mode selects how metric failures are handled
type Mode string

const (
	// ModeStrict fails the job on any error
	ModeStrict Mode = "strict"
	// ModeBestEffort substitutes placeholder metrics when scoring fails
	ModeBestEffort Mode = "best-effort"
)

// Document is the evaluation.json layout
type Document struct {
	Metrics metrics.Report `json:"metrics"`
}

// Result reports what an evaluation produced
type Result struct {
	Report      metrics.Report
	Rows        int
	Placeholder bool
	ReportPath  string
	// ModelPath is the file the booster was read from
	ModelPath string
}

// RunnerPort is the port the pipeline and the CLI drive
type RunnerPort interface {
	Run(ctx context.Context) (Result, error)
}
