// Package repo provides the model registry storage on postgres or sqlite
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"churnops/internal/core/metrics"
	"churnops/internal/modkit/repokit"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/store"
	str "churnops/internal/platform/strings"
	"churnops/internal/services/registry/domain"
)

type (
	sqlRepo struct{ q repokit.Queryer }
	binder  struct{}
)

// New constructs a repo binder; both sql backends share the same statements
func New() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &sqlRepo{q: q} }

// Storage defines the registry repository
type Storage interface {
	NextVersion(ctx context.Context, group string) (int, error)
	InsertPackage(ctx context.Context, p domain.ModelPackage) error
	ListPackages(ctx context.Context, group string, f domain.ListFilter) ([]domain.ModelPackage, error)
	GetPackage(ctx context.Context, group string, version int) (domain.ModelPackage, error)
	LatestPackage(ctx context.Context, group string, status domain.ApprovalStatus) (domain.ModelPackage, error)
	UpdateStatus(ctx context.Context, group string, version int, status domain.ApprovalStatus, note string, at time.Time) error

	InsertExecution(ctx context.Context, e domain.Execution) error
	UpdateExecutionStep(ctx context.Context, id, step string) error
	FinishExecution(ctx context.Context, id string, status domain.ExecutionStatus, reason, packageID string, at time.Time) error
	GetExecution(ctx context.Context, id string) (domain.Execution, error)
}

const packageCols = `package_id, group_name, version, approval_status, approval_description, description,
	model_data_url, model_digest, inference, metric_accuracy, metric_precision, metric_recall, metric_f1,
	execution_id, created_at, updated_at`

// NextVersion implements Storage
func (s *sqlRepo) NextVersion(ctx context.Context, group string) (int, error) {
	v, err := store.Scalar[int64](ctx, s.q,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM model_packages WHERE group_name = $1`, group)
	return int(v), err
}

// InsertPackage implements Storage
func (s *sqlRepo) InsertPackage(ctx context.Context, p domain.ModelPackage) error {
	inf, err := json.Marshal(p.Inference)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode inference spec")
	}
	var acc, prec, rec, f1 any
	if m := p.Metrics; m != nil {
		acc, prec, rec, f1 = m.Accuracy, m.Precision, m.Recall, m.F1
	}
	return store.ExecOne(ctx, s.q, `INSERT INTO model_packages (`+packageCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.Group, p.Version, string(p.Status), str.SQLNull(p.StatusNote), str.SQLNull(p.Description),
		p.ModelDataURL, str.SQLNull(p.ModelDigest), string(inf), acc, prec, rec, f1,
		str.SQLNull(p.ExecutionID), p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
	)
}

// ListPackages implements Storage; newest first
func (s *sqlRepo) ListPackages(ctx context.Context, group string, f domain.ListFilter) ([]domain.ModelPackage, error) {
	var sb strings.Builder
	args := []any{group}
	sb.WriteString(`SELECT ` + packageCols + ` FROM model_packages WHERE group_name = $1`)
	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&sb, ` AND approval_status = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY version DESC`)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return store.Many(ctx, s.q, scanPackage, sb.String(), args...)
}

// GetPackage implements Storage
func (s *sqlRepo) GetPackage(ctx context.Context, group string, version int) (domain.ModelPackage, error) {
	return store.One(ctx, s.q, scanPackage,
		`SELECT `+packageCols+` FROM model_packages WHERE group_name = $1 AND version = $2`, group, version)
}

// LatestPackage implements Storage
func (s *sqlRepo) LatestPackage(ctx context.Context, group string, status domain.ApprovalStatus) (domain.ModelPackage, error) {
	xs, err := s.ListPackages(ctx, group, domain.ListFilter{Status: status, Limit: 1})
	if err != nil {
		return domain.ModelPackage{}, err
	}
	if len(xs) == 0 {
		return domain.ModelPackage{}, perr.ErrNotFound
	}
	return xs[0], nil
}

// UpdateStatus implements Storage
func (s *sqlRepo) UpdateStatus(
	ctx context.Context,
	group string,
	version int,
	status domain.ApprovalStatus,
	note string,
	at time.Time,
) error {
	tag, err := s.q.Exec(ctx, `UPDATE model_packages
		SET approval_status = $1, approval_description = $2, updated_at = $3
		WHERE group_name = $4 AND version = $5`,
		string(status), str.SQLNull(note), at.UnixMilli(), group, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.ErrNotFound
	}
	return nil
}

// InsertExecution implements Storage
func (s *sqlRepo) InsertExecution(ctx context.Context, e domain.Execution) error {
	return store.ExecOne(ctx, s.q, `INSERT INTO pipeline_executions
		(execution_id, pipeline, status, step, started_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Pipeline, string(e.Status), str.SQLNull(e.Step), e.StartedAt.UnixMilli())
}

// UpdateExecutionStep implements Storage
func (s *sqlRepo) UpdateExecutionStep(ctx context.Context, id, step string) error {
	tag, err := s.q.Exec(ctx, `UPDATE pipeline_executions SET step = $1 WHERE execution_id = $2`, step, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.ErrNotFound
	}
	return nil
}

// FinishExecution implements Storage
func (s *sqlRepo) FinishExecution(
	ctx context.Context,
	id string,
	status domain.ExecutionStatus,
	reason, packageID string,
	at time.Time,
) error {
	tag, err := s.q.Exec(ctx, `UPDATE pipeline_executions
		SET status = $1, failure_reason = $2, package_id = $3, finished_at = $4
		WHERE execution_id = $5`,
		string(status), str.SQLNull(reason), str.SQLNull(packageID), at.UnixMilli(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.ErrNotFound
	}
	return nil
}

// GetExecution implements Storage
func (s *sqlRepo) GetExecution(ctx context.Context, id string) (domain.Execution, error) {
	return store.One(ctx, s.q, scanExecution, `SELECT execution_id, pipeline, status, step, failure_reason,
		package_id, started_at, finished_at FROM pipeline_executions WHERE execution_id = $1`, id)
}

func scanPackage(r store.Row) (domain.ModelPackage, error) {
	var (
		p                    domain.ModelPackage
		version              int64
		status, inf          string
		note, desc, digest   *string
		execID               *string
		acc, prec, rec, f1   *float64
		createdAt, updatedAt int64
	)
	if err := r.Scan(&p.ID, &p.Group, &version, &status, &note, &desc, &p.ModelDataURL, &digest, &inf,
		&acc, &prec, &rec, &f1, &execID, &createdAt, &updatedAt); err != nil {
		return domain.ModelPackage{}, err
	}
	if err := json.Unmarshal([]byte(inf), &p.Inference); err != nil {
		return domain.ModelPackage{}, perr.Wrapf(err, perr.ErrorCodeJSON, "decode inference spec of %s", p.ID)
	}
	p.Version = int(version)
	p.Status = domain.ApprovalStatus(status)
	p.StatusNote = str.Deref(note)
	p.Description = str.Deref(desc)
	p.ModelDigest = str.Deref(digest)
	p.ExecutionID = str.Deref(execID)
	if acc != nil {
		p.Metrics = &metrics.Report{Accuracy: *acc, Precision: deref(prec), Recall: deref(rec), F1: deref(f1)}
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return p, nil
}

func scanExecution(r store.Row) (domain.Execution, error) {
	var (
		e                   domain.Execution
		status              string
		step, reason, pkgID *string
		startedAt           int64
		finishedAt          *int64
	)
	if err := r.Scan(&e.ID, &e.Pipeline, &status, &step, &reason, &pkgID, &startedAt, &finishedAt); err != nil {
		return domain.Execution{}, err
	}
	e.Status = domain.ExecutionStatus(status)
	e.Step = str.Deref(step)
	e.FailureReason = str.Deref(reason)
	e.PackageID = str.Deref(pkgID)
	e.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt != nil {
		t := time.UnixMilli(*finishedAt).UTC()
		e.FinishedAt = &t
	}
	return e, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
