package domain

import "context"

// ListFilter narrows a package listing
type ListFilter struct {
	Status ApprovalStatus
	// Limit caps the page, newest first; zero means the service default
	Limit int
}

// RegistryPort is the public port the pipeline, the CLI and the API use
type RegistryPort interface {
	Register(ctx context.Context, in NewPackage) (ModelPackage, error)
	List(ctx context.Context, group string, f ListFilter) ([]ModelPackage, error)
	Get(ctx context.Context, group string, version int) (ModelPackage, error)
	// Latest returns the highest version, optionally only among packages with status
	Latest(ctx context.Context, group string, status ApprovalStatus) (ModelPackage, error)
	SetStatus(ctx context.Context, group string, version int, status ApprovalStatus, note string) (ModelPackage, error)
}

// ExecutionPort records pipeline executions
type ExecutionPort interface {
	StartExecution(ctx context.Context, pipeline string) (Execution, error)
	MarkStep(ctx context.Context, id, step string) error
	FinishExecution(ctx context.Context, id string, status ExecutionStatus, reason, packageID string) (Execution, error)
	GetExecution(ctx context.Context, id string) (Execution, error)
}
