package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"churnops/internal/core/metrics"
	perr "churnops/internal/platform/errors"
	pmetrics "churnops/internal/platform/metrics"
	"churnops/internal/platform/store"
	"churnops/internal/platform/store/lite"
	"churnops/internal/services/registry/domain"
	"churnops/internal/services/registry/repo"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	m    map[string]string
	hits int
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	if !ok {
		return "", store.ErrCacheMiss
	}
	c.hits++
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]string{}
	}
	c.m[key] = val
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func newService(t *testing.T, cache store.Cache) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := lite.Open(ctx, lite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tx := store.NewLite(db)
	require.NoError(t, repo.Migrate(ctx, tx))
	return New(tx, repo.New(), cache, pmetrics.NewBare(), Config{CacheTTL: time.Minute})
}

func pkg(report *metrics.Report) domain.NewPackage {
	return domain.NewPackage{
		Group:        domain.DefaultGroup,
		ModelDataURL: "file:///tmp/model/model.tar.gz",
		ModelDigest:  "abc123",
		Metrics:      report,
	}
}

func TestRegisterAssignsVersions(t *testing.T) {
	ctx := context.Background()
	s := newService(t, nil)

	report := &metrics.Report{Accuracy: 0.8, Precision: 0.75, Recall: 0.6, F1: 0.666}
	first, err := s.Register(ctx, pkg(report))
	require.NoError(t, err)
	second, err := s.Register(ctx, pkg(nil))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, domain.StatusPending, first.Status)
	assert.Equal(t, domain.DefaultInference(), first.Inference)
	assert.NotEqual(t, first.ID, second.ID)

	other, err := s.Register(ctx, domain.NewPackage{Group: "other-group", ModelDataURL: "file:///m"})
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)

	got, err := s.Get(ctx, domain.DefaultGroup, 1)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	require.NotNil(t, got.Metrics)
	assert.Equal(t, *report, *got.Metrics)

	got, err = s.Get(ctx, domain.DefaultGroup, 2)
	require.NoError(t, err)
	assert.Nil(t, got.Metrics)

	xs, err := s.List(ctx, domain.DefaultGroup, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, xs, 2)
	assert.Equal(t, 2, xs[0].Version)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.m.registered.WithLabelValues(domain.DefaultGroup)))
}

func TestRegisterValidates(t *testing.T) {
	ctx := context.Background()
	s := newService(t, nil)

	_, err := s.Register(ctx, domain.NewPackage{Group: "bad group!", ModelDataURL: "x"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), err)

	_, err = s.Register(ctx, domain.NewPackage{Group: domain.DefaultGroup})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), err)

	_, err = s.Register(ctx, domain.NewPackage{Group: domain.DefaultGroup, ModelDataURL: "x", Status: "Maybe"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), err)
}

func TestApprovalFlow(t *testing.T) {
	ctx := context.Background()
	s := newService(t, nil)

	_, err := s.Register(ctx, pkg(nil))
	require.NoError(t, err)
	_, err = s.Register(ctx, pkg(nil))
	require.NoError(t, err)

	_, err = s.Latest(ctx, domain.DefaultGroup, domain.StatusApproved)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound), err)

	p, err := s.SetStatus(ctx, domain.DefaultGroup, 1, "approved", "looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, p.Status)
	assert.Equal(t, "looks good", p.StatusNote)

	latest, err := s.Latest(ctx, domain.DefaultGroup, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	latest, err = s.Latest(ctx, domain.DefaultGroup, "")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	approved, err := s.List(ctx, domain.DefaultGroup, domain.ListFilter{Status: domain.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	_, err = s.SetStatus(ctx, domain.DefaultGroup, 1, domain.StatusPending, "")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConflict), err)

	p, err = s.SetStatus(ctx, domain.DefaultGroup, 1, domain.StatusRejected, "drift")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, p.Status)

	_, err = s.SetStatus(ctx, domain.DefaultGroup, 9, domain.StatusApproved, "")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound), err)

	_, err = s.SetStatus(ctx, domain.DefaultGroup, 1, "", "")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), err)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.m.approvals.WithLabelValues(string(domain.StatusApproved))))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.m.approvals.WithLabelValues(string(domain.StatusRejected))))
}

func TestLatestUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	s := newService(t, cache)

	_, err := s.Register(ctx, pkg(nil))
	require.NoError(t, err)

	a, err := s.Latest(ctx, domain.DefaultGroup, "")
	require.NoError(t, err)
	b, err := s.Latest(ctx, domain.DefaultGroup, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, cache.hits)

	// a new version invalidates the cached latest
	_, err = s.Register(ctx, pkg(nil))
	require.NoError(t, err)
	c, err := s.Latest(ctx, domain.DefaultGroup, "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)
	assert.Equal(t, 1, cache.hits)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.m.cache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.m.cache.WithLabelValues("miss")))
}

func TestExecutions(t *testing.T) {
	ctx := context.Background()
	s := newService(t, nil)

	e, err := s.StartExecution(ctx, "churn-pipeline")
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionRunning, e.Status)

	require.NoError(t, s.MarkStep(ctx, e.ID, "TrainXGBoostModel"))
	got, err := s.GetExecution(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "TrainXGBoostModel", got.Step)
	assert.Nil(t, got.FinishedAt)

	done, err := s.FinishExecution(ctx, e.ID, domain.ExecutionFailed, "evaluation failed", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionFailed, done.Status)
	assert.Equal(t, "evaluation failed", done.FailureReason)
	assert.NotNil(t, done.FinishedAt)

	_, err = s.FinishExecution(ctx, e.ID, domain.ExecutionRunning, "", "")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), err)

	_, err = s.GetExecution(ctx, "missing")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound), err)
	assert.True(t, perr.IsCode(s.MarkStep(ctx, "missing", "x"), perr.ErrorCodeNotFound))
}
