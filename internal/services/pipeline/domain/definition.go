// Package domain holds the pipeline definition and run contract
package domain

import (
	"os"
	"path/filepath"

	"churnops/internal/adapters/tracking"
	"churnops/internal/core/gbdt"
	perr "churnops/internal/platform/errors"
	evdomain "churnops/internal/services/evaluate/domain"
	regdomain "churnops/internal/services/registry/domain"

	"gopkg.in/yaml.v2"
)

// Step names as executions record them
const (
	StepPreprocess = "PreprocessChurnData"
	StepTrain      = "TrainXGBoostModel"
	StepEvaluate   = "EvaluateModel"
	StepRegister   = "RegisterChurnModel"
)

// DefaultName is the pipeline name executions are filed under
const DefaultName = "churn-pipeline"

// Definition describes one pipeline: where it works and how each step runs
//
// Every step reads the previous step's output directory under Workdir:
//
//	input/raw/churn_data.csv -> train/, test/ -> model/model.xgb
//	-> model/model.tar.gz -> evaluation/evaluation.json -> registry
type Definition struct {
	Name    string `yaml:"name"`
	Workdir string `yaml:"workdir"`
	// Input overrides Workdir/input as the raw data directory
	Input string `yaml:"input"`

	Preprocess PreprocessStep `yaml:"preprocess"`
	Train      TrainStep      `yaml:"train"`
	Evaluate   EvaluateStep   `yaml:"evaluate"`
	Register   RegisterStep   `yaml:"register"`
}

// PreprocessStep configures the split
type PreprocessStep struct {
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
}

// TrainStep configures the booster and its tracking
type TrainStep struct {
	Params     gbdt.Params `yaml:"params"`
	Experiment string      `yaml:"experiment"`
	ModelName  string      `yaml:"model_name"`
}

// EvaluateStep configures how metric failures are handled
type EvaluateStep struct {
	Mode evdomain.Mode `yaml:"mode"`
}

// RegisterStep describes the package the run registers
type RegisterStep struct {
	Group              string                   `yaml:"model_package_group"`
	ApprovalStatus     regdomain.ApprovalStatus `yaml:"approval_status"`
	ContentTypes       []string                 `yaml:"content_types"`
	ResponseTypes      []string                 `yaml:"response_types"`
	InferenceInstances []string                 `yaml:"inference_instances"`
	TransformInstances []string                 `yaml:"transform_instances"`
}

// Inference returns the serving metadata recorded on the package
func (r RegisterStep) Inference() regdomain.InferenceSpec {
	return regdomain.InferenceSpec{
		ContentTypes:       r.ContentTypes,
		ResponseTypes:      r.ResponseTypes,
		InferenceInstances: r.InferenceInstances,
		TransformInstances: r.TransformInstances,
	}
}

// Default returns the built in churn pipeline rooted at workdir
func Default(workdir string) Definition {
	inf := regdomain.DefaultInference()
	return Definition{
		Name:       DefaultName,
		Workdir:    workdir,
		Preprocess: PreprocessStep{TestSize: 0.2, Seed: 42},
		Train: TrainStep{
			Params:     gbdt.DefaultParams(),
			Experiment: tracking.DefaultExperiment,
			ModelName:  tracking.DefaultModelName,
		},
		Evaluate: EvaluateStep{Mode: evdomain.ModeStrict},
		Register: RegisterStep{
			Group:              regdomain.DefaultGroup,
			ApprovalStatus:     regdomain.StatusPending,
			ContentTypes:       inf.ContentTypes,
			ResponseTypes:      inf.ResponseTypes,
			InferenceInstances: inf.InferenceInstances,
			TransformInstances: inf.TransformInstances,
		},
	}
}

// Parse overlays a YAML document on the defaults for workdir
// unknown keys are rejected
func Parse(b []byte, workdir string) (Definition, error) {
	d := Default(workdir)
	if err := yaml.UnmarshalStrict(b, &d); err != nil {
		return Definition{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse pipeline definition")
	}
	st, err := regdomain.ParseApprovalStatus(string(d.Register.ApprovalStatus))
	if err != nil {
		return Definition{}, err
	}
	d.Register.ApprovalStatus = st
	return d, d.Validate()
}

// Load reads a definition file; an empty path yields the defaults
func Load(path, workdir string) (Definition, error) {
	if path == "" {
		d := Default(workdir)
		return d, d.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "read pipeline definition %s", path)
	}
	return Parse(b, workdir)
}

// Validate rejects definitions a run could not complete
func (d Definition) Validate() error {
	switch {
	case d.Name == "":
		return perr.WithField(perr.InvalidArgf("pipeline name is required"), "name")
	case d.Workdir == "":
		return perr.WithField(perr.InvalidArgf("pipeline workdir is required"), "workdir")
	case d.Preprocess.TestSize <= 0 || d.Preprocess.TestSize >= 1:
		return perr.WithField(perr.InvalidArgf("test_size must be in (0, 1), got %v", d.Preprocess.TestSize), "test_size")
	case d.Evaluate.Mode != evdomain.ModeStrict && d.Evaluate.Mode != evdomain.ModeBestEffort:
		return perr.WithField(perr.InvalidArgf("unknown evaluation mode %q", d.Evaluate.Mode), "mode")
	}
	if err := d.Train.Params.Validate(); err != nil {
		return err
	}
	if err := regdomain.ValidateGroup(d.Register.Group); err != nil {
		return err
	}
	if _, err := regdomain.ParseApprovalStatus(string(d.Register.ApprovalStatus)); err != nil {
		return err
	}
	return nil
}

// Paths are the directories a run reads and writes
type Paths struct {
	Input      string
	Train      string
	Test       string
	Model      string
	Evaluation string
}

// Paths resolves the step directories under Workdir
func (d Definition) Paths() Paths {
	in := d.Input
	if in == "" {
		in = filepath.Join(d.Workdir, "input")
	}
	return Paths{
		Input:      in,
		Train:      filepath.Join(d.Workdir, "train"),
		Test:       filepath.Join(d.Workdir, "test"),
		Model:      filepath.Join(d.Workdir, "model"),
		Evaluation: filepath.Join(d.Workdir, "evaluation"),
	}
}
