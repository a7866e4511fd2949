package domain

import (
	"context"

	evdomain "churnops/internal/services/evaluate/domain"
	ppdomain "churnops/internal/services/preprocess/domain"
	regdomain "churnops/internal/services/registry/domain"
	trdomain "churnops/internal/services/train/domain"
)

// Result is what a finished execution produced
type Result struct {
	Execution   regdomain.Execution
	Preprocess  ppdomain.Result
	Train       trdomain.Result
	Evaluate    evdomain.Result
	PackagePath string
	Package     regdomain.ModelPackage
}

// ApproveInput selects a package and the status to give it
type ApproveInput struct {
	Group string
	// Version zero picks the newest package pending approval
	Version int
	Status  regdomain.ApprovalStatus
	Note    string
}

// RunnerPort starts executions and decides approvals
type RunnerPort interface {
	Run(ctx context.Context) (Result, error)
	Approve(ctx context.Context, in ApproveInput) (regdomain.ModelPackage, error)
}
