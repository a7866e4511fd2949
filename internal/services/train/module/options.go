package module

import (
	"churnops/internal/adapters/tracking"
	"churnops/internal/core/gbdt"
	"churnops/internal/platform/config"
)

// Options holds the train step settings
type Options struct {
	TrainPath string
	ModelDir  string
	Params    gbdt.Params

	Experiment     string
	RegisteredName string
}

// FromConfig reads the train options
//
//	SM_CHANNEL_TRAIN, SM_MODEL_DIR    input and output directories
//	CHURN_TRAIN_MAX_DEPTH ... SEED    booster params, see gbdt.Params
//	CHURN_TRAIN_EXPERIMENT            experiment name
//	CHURN_TRAIN_MODEL_NAME            registered model name, empty skips registration
func FromConfig(cfg config.Conf) Options {
	tr := cfg.Prefix("CHURN_TRAIN_")
	def := gbdt.DefaultParams()
	return Options{
		TrainPath: cfg.MayString("SM_CHANNEL_TRAIN", "/opt/ml/input/data/train"),
		ModelDir:  cfg.MayString("SM_MODEL_DIR", "/opt/ml/model"),
		Params: gbdt.Params{
			Objective:      def.Objective,
			EvalMetric:     def.EvalMetric,
			MaxDepth:       tr.MayInt("MAX_DEPTH", def.MaxDepth),
			Eta:            tr.MayFloat64("ETA", def.Eta),
			Gamma:          tr.MayFloat64("GAMMA", def.Gamma),
			Subsample:      tr.MayFloat64("SUBSAMPLE", def.Subsample),
			Lambda:         tr.MayFloat64("LAMBDA", def.Lambda),
			MinChildWeight: tr.MayFloat64("MIN_CHILD_WEIGHT", def.MinChildWeight),
			Rounds:         tr.MayInt("NUM_BOOST_ROUND", def.Rounds),
			Seed:           tr.MayInt64("SEED", def.Seed),
		},
		Experiment:     tr.MayString("EXPERIMENT", tracking.DefaultExperiment),
		RegisteredName: tr.MayString("MODEL_NAME", tracking.DefaultModelName),
	}
}
