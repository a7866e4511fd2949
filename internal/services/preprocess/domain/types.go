// Package domain holds the preprocess step contract
package domain

import "context"

// Result reports what a preprocess run produced
type Result struct {
	Columns   []string
	Read      int
	Dropped   int
	TrainRows int
	TestRows  int
	TrainPath string
	TestPath  string
}

// RunnerPort is the port the pipeline and the CLI drive
type RunnerPort interface {
	Run(ctx context.Context) (Result, error)
}
