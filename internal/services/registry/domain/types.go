// Package domain holds the model registry types and ports
package domain

import (
	"regexp"
	"strings"
	"time"

	"churnops/internal/core/metrics"
	perr "churnops/internal/platform/errors"
)

// DefaultGroup is the package group the churn pipeline registers into
const DefaultGroup = "ChurnModelPackageGroup"

// ApprovalStatus gates whether a package may be deployed
type ApprovalStatus string

const (
	// StatusPending is the state a package is registered in
	StatusPending ApprovalStatus = "PendingManualApproval"
	// StatusApproved marks a package fit for deployment
	StatusApproved ApprovalStatus = "Approved"
	// StatusRejected marks a package that must not be deployed
	StatusRejected ApprovalStatus = "Rejected"
)

// ParseApprovalStatus accepts the canonical names case insensitively
// an empty string is returned as is so callers can treat it as no filter
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	for _, st := range []ApprovalStatus{StatusPending, StatusApproved, StatusRejected} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	if s == "" {
		return "", nil
	}
	return "", perr.WithField(perr.InvalidArgf("unknown approval status %q", s), "status")
}

var groupName = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9]){0,62}$`)

// ValidateGroup rejects names a package group cannot carry
func ValidateGroup(group string) error {
	if !groupName.MatchString(group) {
		return perr.WithField(perr.InvalidArgf("invalid model package group %q", group), "group")
	}
	return nil
}

// InferenceSpec describes how a package is served
type InferenceSpec struct {
	ContentTypes       []string `json:"content_types"`
	ResponseTypes      []string `json:"response_types"`
	InferenceInstances []string `json:"inference_instances"`
	TransformInstances []string `json:"transform_instances"`
}

// DefaultInference is the serving spec the churn pipeline registers with
func DefaultInference() InferenceSpec {
	return InferenceSpec{
		ContentTypes:       []string{"text/csv"},
		ResponseTypes:      []string{"text/csv"},
		InferenceInstances: []string{"ml.t2.medium", "ml.m5.large"},
		TransformInstances: []string{"ml.m5.large"},
	}
}

// ModelPackage is one registered model version
// swagger:model
type ModelPackage struct {
	ID           string          `json:"id"                              example:"0b6d0c5e-8d8f-4a57-9d43-3c8c0f3f6a11"`
	Group        string          `json:"group"                           example:"ChurnModelPackageGroup"`
	Version      int             `json:"version"                         example:"3"`
	Status       ApprovalStatus  `json:"approval_status"                 example:"PendingManualApproval"`
	StatusNote   string          `json:"approval_description,omitempty"`
	Description  string          `json:"description,omitempty"`
	ModelDataURL string          `json:"model_data_url"                  example:"file:///opt/ml/processing/model/model.tar.gz"`
	ModelDigest  string          `json:"model_digest,omitempty"`
	Inference    InferenceSpec   `json:"inference"`
	Metrics      *metrics.Report `json:"model_quality,omitempty"`
	ExecutionID  string          `json:"pipeline_execution_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewPackage is the input to a registration
type NewPackage struct {
	Group        string
	Description  string
	ModelDataURL string
	ModelDigest  string
	Inference    InferenceSpec
	Metrics      *metrics.Report
	ExecutionID  string
	// Status defaults to StatusPending
	Status ApprovalStatus
}

// ExecutionStatus is a pipeline execution lifecycle state
type ExecutionStatus string

const (
	// ExecutionRunning is an execution in progress
	ExecutionRunning ExecutionStatus = "Executing"
	// ExecutionSucceeded is an execution whose steps all passed
	ExecutionSucceeded ExecutionStatus = "Succeeded"
	// ExecutionFailed is an execution stopped by a failing step
	ExecutionFailed ExecutionStatus = "Failed"
)

// Execution records one pipeline run
// swagger:model
type Execution struct {
	ID            string          `json:"id"`
	Pipeline      string          `json:"pipeline"       example:"churn-pipeline"`
	Status        ExecutionStatus `json:"status"         example:"Succeeded"`
	Step          string          `json:"step,omitempty" example:"EvaluateModel"`
	FailureReason string          `json:"failure_reason,omitempty"`
	PackageID     string          `json:"package_id,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}
