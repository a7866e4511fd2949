package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"churnops/internal/adapters/artifact"
	"churnops/internal/core/metrics"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/store"
	"churnops/internal/platform/store/lite"
	evdomain "churnops/internal/services/evaluate/domain"
	"churnops/internal/services/pipeline/domain"
	ppdomain "churnops/internal/services/preprocess/domain"
	regdomain "churnops/internal/services/registry/domain"
	regrepo "churnops/internal/services/registry/repo"
	regsvc "churnops/internal/services/registry/service"
	trdomain "churnops/internal/services/train/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepFunc[T any] func(context.Context) (T, error)

func (f stepFunc[T]) Run(ctx context.Context) (T, error) { return f(ctx) }

var report = metrics.Report{Accuracy: 0.8, Precision: 0.75, Recall: 0.6, F1: 0.6667}

func newRegistry(t *testing.T) *regsvc.Service {
	t.Helper()
	ctx := context.Background()
	db, err := lite.Open(ctx, lite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	tx := store.NewLite(db)
	require.NoError(t, regrepo.Migrate(ctx, tx))
	return regsvc.New(tx, regrepo.New(), nil, nil, regsvc.Config{})
}

// fakeSteps succeed, the trainer writing a stand in model file
func fakeSteps(t *testing.T) (Steps, *int) {
	t.Helper()
	modelDir := t.TempDir()
	trained := new(int)
	return Steps{
		Preprocess: stepFunc[ppdomain.Result](func(context.Context) (ppdomain.Result, error) {
			return ppdomain.Result{TrainRows: 8, TestRows: 2}, nil
		}),
		Train: stepFunc[trdomain.Result](func(context.Context) (trdomain.Result, error) {
			*trained++
			p := filepath.Join(modelDir, artifact.ModelFile)
			if err := os.WriteFile(p, []byte(`{"trees":[]}`), 0o644); err != nil {
				return trdomain.Result{}, err
			}
			return trdomain.Result{ModelPath: p, Rows: 8}, nil
		}),
		Evaluate: stepFunc[evdomain.Result](func(context.Context) (evdomain.Result, error) {
			return evdomain.Result{Report: report, Rows: 2}, nil
		}),
	}, trained
}

func TestRunRegistersPackage(t *testing.T) {
	reg := newRegistry(t)
	steps, _ := fakeSteps(t)
	svc := New(domain.Default(t.TempDir()), steps, reg, reg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, res.PackagePath)
	assert.Equal(t, artifact.PackageFile, filepath.Base(res.PackagePath))

	p := res.Package
	assert.Equal(t, regdomain.DefaultGroup, p.Group)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, regdomain.StatusPending, p.Status)
	assert.Equal(t, regdomain.DefaultInference(), p.Inference)
	assert.Equal(t, res.Execution.ID, p.ExecutionID)
	require.NotNil(t, p.Metrics)
	assert.Equal(t, report, *p.Metrics)
	assert.True(t, strings.HasPrefix(p.ModelDataURL, "file:///"), p.ModelDataURL)
	assert.Len(t, p.ModelDigest, 64)

	e, err := reg.GetExecution(context.Background(), res.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, regdomain.ExecutionSucceeded, e.Status)
	assert.Equal(t, domain.StepRegister, e.Step)
	assert.Equal(t, p.ID, e.PackageID)
	assert.NotNil(t, e.FinishedAt)
}

func TestRunAbortsOnFailingStep(t *testing.T) {
	reg := newRegistry(t)
	steps, _ := fakeSteps(t)
	steps.Evaluate = stepFunc[evdomain.Result](func(context.Context) (evdomain.Result, error) {
		return evdomain.Result{}, perr.ModelLoadf("model.tar.gz is corrupt")
	})
	svc := New(domain.Default(t.TempDir()), steps, reg, reg)

	res, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeModelLoad), err)
	pe, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, domain.StepEvaluate, pe.Op())

	assert.Equal(t, regdomain.ExecutionFailed, res.Execution.Status)
	assert.Equal(t, domain.StepEvaluate, res.Execution.Step)
	assert.True(t, strings.HasPrefix(res.Execution.FailureReason, domain.StepEvaluate+":"), res.Execution.FailureReason)

	xs, err := reg.List(context.Background(), regdomain.DefaultGroup, regdomain.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, xs, "a failed run registers nothing")
}

func TestRunStopsWhenCancelled(t *testing.T) {
	reg := newRegistry(t)
	steps, trained := fakeSteps(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	steps.Preprocess = stepFunc[ppdomain.Result](func(context.Context) (ppdomain.Result, error) {
		cancel()
		return ppdomain.Result{}, nil
	})
	svc := New(domain.Default(t.TempDir()), steps, reg, reg)

	res, err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, *trained)
	assert.Equal(t, regdomain.ExecutionFailed, res.Execution.Status)
}

func TestApprove(t *testing.T) {
	reg := newRegistry(t)
	steps, _ := fakeSteps(t)
	svc := New(domain.Default(t.TempDir()), steps, reg, reg)
	ctx := context.Background()

	_, err := svc.Run(ctx)
	require.NoError(t, err)
	_, err = svc.Run(ctx)
	require.NoError(t, err)

	p, err := svc.Approve(ctx, domain.ApproveInput{Status: regdomain.StatusApproved, Note: "looks good"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version, "version zero picks the newest pending package")
	assert.Equal(t, regdomain.StatusApproved, p.Status)

	p, err = svc.Approve(ctx, domain.ApproveInput{Version: 1, Status: regdomain.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, regdomain.StatusRejected, p.Status)

	_, err = svc.Approve(ctx, domain.ApproveInput{Status: regdomain.StatusApproved})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound), "nothing is pending: %v", err)

	_, err = svc.Approve(ctx, domain.ApproveInput{Version: 1, Status: regdomain.StatusPending})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConflict), err)
}
