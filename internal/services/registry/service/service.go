// Package service implements the model registry on top of the repo and an optional cache
package service

import (
	"context"
	"errors"
	"time"

	"churnops/internal/modkit/repokit"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/metrics"
	"churnops/internal/platform/store"
	"churnops/internal/services/registry/domain"
	"churnops/internal/services/registry/repo"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// maxRegisterAttempts bounds retries when two registrations race for a version
const maxRegisterAttempts = 3

// Config holds registry service tuning
type Config struct {
	// CacheTTL is how long a latest lookup stays cached; zero disables caching
	CacheTTL time.Duration
	// ListLimit caps listings that ask for no limit
	ListLimit int
}

type collectors struct {
	registered *prometheus.CounterVec
	approvals  *prometheus.CounterVec
	cache      *prometheus.CounterVec
}

// Service implements domain.RegistryPort and domain.ExecutionPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config

	cache latestCache
	m     collectors
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// New constructs the registry service
// cache and reg may be nil
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cache store.Cache, reg *metrics.Registry, cfg Config) *Service {
	if db == nil {
		panic("registry.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("registry.Service requires a non nil Repo binder")
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}
	if cfg.CacheTTL <= 0 {
		cache = nil
	}
	s := &Service{
		DB:     db,
		Binder: binder,
		Cfg:    cfg,
		log:    logger.Named("registry"),
		now:    time.Now,
		newID:  uuid.NewString,
		m: collectors{
			registered: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: "registry",
				Name:      "packages_registered_total",
				Help:      "Model packages registered by group.",
			}, []string{"group"})),
			approvals: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: "registry",
				Name:      "approval_changes_total",
				Help:      "Approval status changes by target status.",
			}, []string{"status"})),
			cache: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: "registry",
				Name:      "latest_cache_total",
				Help:      "Latest package cache lookups by result.",
			}, []string{"result"})),
		},
	}
	s.cache = latestCache{c: cache, ttl: cfg.CacheTTL}
	return s
}

func (s *Service) repo() repo.Storage { return repokit.MustBind(s.Binder, s.DB) }

// Register implements domain.RegistryPort
// the version is one past the group's highest, assigned inside the insert transaction
func (s *Service) Register(ctx context.Context, in domain.NewPackage) (domain.ModelPackage, error) {
	if err := domain.ValidateGroup(in.Group); err != nil {
		return domain.ModelPackage{}, err
	}
	if in.ModelDataURL == "" {
		return domain.ModelPackage{}, perr.WithField(perr.InvalidArgf("model data url is required"), "model_data_url")
	}
	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if _, err := domain.ParseApprovalStatus(string(status)); err != nil {
		return domain.ModelPackage{}, err
	}
	inference := in.Inference
	if len(inference.ContentTypes) == 0 {
		inference = domain.DefaultInference()
	}

	var out domain.ModelPackage
	for attempt := 1; ; attempt++ {
		err := repokit.InTx(ctx, s.DB, s.Binder, func(r repo.Storage) error {
			v, err := r.NextVersion(ctx, in.Group)
			if err != nil {
				return err
			}
			now := s.now().UTC().Truncate(time.Millisecond)
			p := domain.ModelPackage{
				ID:           s.newID(),
				Group:        in.Group,
				Version:      v,
				Status:       status,
				Description:  in.Description,
				ModelDataURL: in.ModelDataURL,
				ModelDigest:  in.ModelDigest,
				Inference:    inference,
				Metrics:      in.Metrics,
				ExecutionID:  in.ExecutionID,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := r.InsertPackage(ctx, p); err != nil {
				return err
			}
			out = p
			return nil
		})
		if err == nil {
			break
		}
		if perr.IsDuplicateKey(err) && attempt < maxRegisterAttempts {
			s.log.Debug().Str("group", in.Group).Int("attempt", attempt).Msg("version race; retrying registration")
			continue
		}
		return domain.ModelPackage{}, perr.FromDB(err, "register model package")
	}

	s.cache.invalidate(ctx, s.log, in.Group)
	s.m.registered.WithLabelValues(in.Group).Inc()
	s.log.Info().
		Str("group", out.Group).
		Int("version", out.Version).
		Str("status", string(out.Status)).
		Str("package_id", out.ID).
		Msg("model package registered")
	return out, nil
}

// List implements domain.RegistryPort
func (s *Service) List(ctx context.Context, group string, f domain.ListFilter) ([]domain.ModelPackage, error) {
	if err := domain.ValidateGroup(group); err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > s.Cfg.ListLimit {
		f.Limit = s.Cfg.ListLimit
	}
	xs, err := s.repo().ListPackages(ctx, group, f)
	if err != nil {
		return nil, perr.FromDB(err, "list model packages")
	}
	if xs == nil {
		xs = []domain.ModelPackage{}
	}
	return xs, nil
}

// Get implements domain.RegistryPort
func (s *Service) Get(ctx context.Context, group string, version int) (domain.ModelPackage, error) {
	if err := domain.ValidateGroup(group); err != nil {
		return domain.ModelPackage{}, err
	}
	p, err := s.repo().GetPackage(ctx, group, version)
	if err != nil {
		return domain.ModelPackage{}, notFound(err, "model package %s/%d", group, version)
	}
	return p, nil
}

// Latest implements domain.RegistryPort
func (s *Service) Latest(ctx context.Context, group string, status domain.ApprovalStatus) (domain.ModelPackage, error) {
	if err := domain.ValidateGroup(group); err != nil {
		return domain.ModelPackage{}, err
	}
	if p, ok := s.cache.get(ctx, s.log, s.m.cache, group, status); ok {
		return p, nil
	}
	p, err := s.repo().LatestPackage(ctx, group, status)
	if err != nil {
		return domain.ModelPackage{}, notFound(err, "no model package in group %s", group)
	}
	s.cache.set(ctx, s.log, group, status, p)
	return p, nil
}

// SetStatus implements domain.RegistryPort
// a decided package can flip between approved and rejected but never returns to pending
func (s *Service) SetStatus(
	ctx context.Context,
	group string,
	version int,
	status domain.ApprovalStatus,
	note string,
) (domain.ModelPackage, error) {
	if err := domain.ValidateGroup(group); err != nil {
		return domain.ModelPackage{}, err
	}
	target, err := domain.ParseApprovalStatus(string(status))
	if err != nil {
		return domain.ModelPackage{}, err
	}
	if target == "" {
		return domain.ModelPackage{}, perr.WithField(perr.InvalidArgf("approval status is required"), "status")
	}

	var out domain.ModelPackage
	err = repokit.InTx(ctx, s.DB, s.Binder, func(r repo.Storage) error {
		cur, err := r.GetPackage(ctx, group, version)
		if err != nil {
			return err
		}
		if cur.Status == target {
			out = cur
			return nil
		}
		if target == domain.StatusPending {
			return perr.Conflictf("package %s/%d is already %s", group, version, cur.Status)
		}
		now := s.now().UTC().Truncate(time.Millisecond)
		if err := r.UpdateStatus(ctx, group, version, target, note, now); err != nil {
			return err
		}
		cur.Status, cur.StatusNote, cur.UpdatedAt = target, note, now
		out = cur
		return nil
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeConflict) {
			return domain.ModelPackage{}, err
		}
		return domain.ModelPackage{}, notFound(err, "model package %s/%d", group, version)
	}

	s.cache.invalidate(ctx, s.log, group)
	s.m.approvals.WithLabelValues(string(out.Status)).Inc()
	s.log.Info().Str("group", group).Int("version", version).Str("status", string(out.Status)).Msg("approval status set")
	return out, nil
}

// StartExecution implements domain.ExecutionPort
func (s *Service) StartExecution(ctx context.Context, pipeline string) (domain.Execution, error) {
	if pipeline == "" {
		return domain.Execution{}, perr.WithField(perr.InvalidArgf("pipeline name is required"), "pipeline")
	}
	e := domain.Execution{
		ID:        s.newID(),
		Pipeline:  pipeline,
		Status:    domain.ExecutionRunning,
		StartedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo().InsertExecution(ctx, e); err != nil {
		return domain.Execution{}, perr.FromDB(err, "start pipeline execution")
	}
	return e, nil
}

// MarkStep implements domain.ExecutionPort
func (s *Service) MarkStep(ctx context.Context, id, step string) error {
	if err := s.repo().UpdateExecutionStep(ctx, id, step); err != nil {
		return notFound(err, "pipeline execution %s", id)
	}
	return nil
}

// FinishExecution implements domain.ExecutionPort
func (s *Service) FinishExecution(
	ctx context.Context,
	id string,
	status domain.ExecutionStatus,
	reason, packageID string,
) (domain.Execution, error) {
	if status != domain.ExecutionSucceeded && status != domain.ExecutionFailed {
		return domain.Execution{}, perr.WithField(perr.InvalidArgf("cannot finish an execution as %q", status), "status")
	}
	err := s.repo().FinishExecution(ctx, id, status, reason, packageID, s.now().UTC())
	if err != nil {
		return domain.Execution{}, notFound(err, "pipeline execution %s", id)
	}
	return s.GetExecution(ctx, id)
}

// GetExecution implements domain.ExecutionPort
func (s *Service) GetExecution(ctx context.Context, id string) (domain.Execution, error) {
	e, err := s.repo().GetExecution(ctx, id)
	if err != nil {
		return domain.Execution{}, notFound(err, "pipeline execution %s", id)
	}
	return e, nil
}

// notFound turns the repo's sentinel into a described not found error
// any other error is mapped from the storage layer
func notFound(err error, format string, a ...any) error {
	if errors.Is(err, perr.ErrNotFound) || store.IsNoRows(err) {
		return perr.NotFoundf(format, a...)
	}
	return perr.FromDB(err, "registry storage")
}
