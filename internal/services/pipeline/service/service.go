// Package service runs the churn pipeline steps in order and records the execution
package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"churnops/internal/adapters/artifact"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
	evdomain "churnops/internal/services/evaluate/domain"
	"churnops/internal/services/pipeline/domain"
	ppdomain "churnops/internal/services/preprocess/domain"
	regdomain "churnops/internal/services/registry/domain"
	trdomain "churnops/internal/services/train/domain"
)

// Steps are the runners for the first three steps, already pointed at the
// definition's directories
type Steps struct {
	Preprocess ppdomain.RunnerPort
	Train      trdomain.RunnerPort
	Evaluate   evdomain.RunnerPort
}

// Service implements domain.RunnerPort
type Service struct {
	Def        domain.Definition
	Steps      Steps
	Registry   regdomain.RegistryPort
	Executions regdomain.ExecutionPort

	log *logger.Logger
}

// New constructs the pipeline service
func New(def domain.Definition, steps Steps, reg regdomain.RegistryPort, ex regdomain.ExecutionPort) *Service {
	if steps.Preprocess == nil || steps.Train == nil || steps.Evaluate == nil {
		panic("pipeline.Service requires every step runner")
	}
	if reg == nil || ex == nil {
		panic("pipeline.Service requires the registry ports")
	}
	return &Service{Def: def, Steps: steps, Registry: reg, Executions: ex, log: logger.Named("pipeline")}
}

type step struct {
	name string
	run  func(ctx context.Context, res *domain.Result) error
}

func (s *Service) steps() []step {
	return []step{
		{domain.StepPreprocess, func(ctx context.Context, res *domain.Result) (err error) {
			res.Preprocess, err = s.Steps.Preprocess.Run(ctx)
			return err
		}},
		{domain.StepTrain, s.train},
		{domain.StepEvaluate, func(ctx context.Context, res *domain.Result) (err error) {
			res.Evaluate, err = s.Steps.Evaluate.Run(ctx)
			return err
		}},
		{domain.StepRegister, s.register},
	}
}

// Run executes every step in order
// the first failing step aborts the run and marks the execution failed
func (s *Service) Run(ctx context.Context) (domain.Result, error) {
	var res domain.Result
	exec, err := s.Executions.StartExecution(ctx, s.Def.Name)
	if err != nil {
		return res, err
	}
	res.Execution = exec
	ctx = logger.WithRun(ctx, exec.ID)
	log := logger.C(ctx).With().Str("component", "pipeline").Str("pipeline", s.Def.Name).Logger()
	log.Info().Str("workdir", s.Def.Workdir).Msg("pipeline execution started")

	for _, st := range s.steps() {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, res, st.name, err)
		}
		if err := s.Executions.MarkStep(ctx, exec.ID, st.name); err != nil {
			return s.fail(ctx, res, st.name, err)
		}
		started := time.Now()
		if err := st.run(logger.WithStep(ctx, st.name), &res); err != nil {
			return s.fail(ctx, res, st.name, err)
		}
		log.Info().Str("step", st.name).Dur("took", time.Since(started)).Msg("step finished")
	}

	done, err := s.Executions.FinishExecution(ctx, exec.ID, regdomain.ExecutionSucceeded, "", res.Package.ID)
	if err != nil {
		return res, err
	}
	res.Execution = done
	log.Info().
		Str("package_id", res.Package.ID).
		Int("version", res.Package.Version).
		Float64("accuracy", res.Evaluate.Report.Accuracy).
		Msg("pipeline execution succeeded")
	return res, nil
}

// fail records the failing step and returns its error tagged with the step name
func (s *Service) fail(ctx context.Context, res domain.Result, stepName string, cause error) (domain.Result, error) {
	ctx = context.WithoutCancel(ctx)
	reason := fmt.Sprintf("%s: %v", stepName, cause)
	done, err := s.Executions.FinishExecution(ctx, res.Execution.ID, regdomain.ExecutionFailed, reason, "")
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("step", stepName).Msg("record failed execution")
	} else {
		res.Execution = done
	}
	logger.C(ctx).Error().Err(cause).Str("step", stepName).Msg("pipeline execution failed")
	return res, perr.WithOp(cause, stepName)
}

// train runs the trainer and packages its model next to it
func (s *Service) train(ctx context.Context, res *domain.Result) error {
	out, err := s.Steps.Train.Run(ctx)
	if err != nil {
		return err
	}
	res.Train = out
	pkg := filepath.Join(filepath.Dir(out.ModelPath), artifact.PackageFile)
	if err := artifact.Pack(out.ModelPath, pkg); err != nil {
		return err
	}
	res.PackagePath = pkg
	return nil
}

// register files the packaged model with the evaluation report
func (s *Service) register(ctx context.Context, res *domain.Result) error {
	digest, err := artifact.Digest(res.PackagePath)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(res.PackagePath)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "resolve model package path")
	}
	report := res.Evaluate.Report
	desc := fmt.Sprintf("%s execution %s", s.Def.Name, res.Execution.ID)
	if res.Evaluate.Placeholder {
		desc += " (placeholder metrics)"
	}

	p, err := s.Registry.Register(ctx, regdomain.NewPackage{
		Group:        s.Def.Register.Group,
		Description:  desc,
		ModelDataURL: (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		ModelDigest:  digest,
		Inference:    s.Def.Register.Inference(),
		Metrics:      &report,
		ExecutionID:  res.Execution.ID,
		Status:       s.Def.Register.ApprovalStatus,
	})
	if err != nil {
		return err
	}
	res.Package = p
	return nil
}

// Approve sets the approval status of a package
func (s *Service) Approve(ctx context.Context, in domain.ApproveInput) (regdomain.ModelPackage, error) {
	group := in.Group
	if group == "" {
		group = s.Def.Register.Group
	}
	version := in.Version
	if version == 0 {
		p, err := s.Registry.Latest(ctx, group, regdomain.StatusPending)
		if err != nil {
			return regdomain.ModelPackage{}, err
		}
		version = p.Version
	}
	if version < 0 {
		return regdomain.ModelPackage{}, perr.WithField(perr.InvalidArgf("version must be positive, got %d", version), "version")
	}
	p, err := s.Registry.SetStatus(ctx, group, version, in.Status, in.Note)
	if err != nil {
		return regdomain.ModelPackage{}, err
	}
	s.log.Info().Str("group", group).Int("version", p.Version).Str("status", string(p.Status)).Msg("model package reviewed")
	return p, nil
}
