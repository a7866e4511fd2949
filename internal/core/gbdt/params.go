package gbdt

import (
	"strconv"

	perr "churnops/internal/platform/errors"
)

const (
	// ObjectiveLogistic is the only supported objective
	ObjectiveLogistic = "binary:logistic"
	// MetricLogLoss is recorded alongside the params
	MetricLogLoss = "logloss"
)

// Params are the booster hyperparameters, named as the tracker records them
type Params struct {
	Objective      string  `json:"objective"        yaml:"objective"`
	EvalMetric     string  `json:"eval_metric"      yaml:"eval_metric"`
	MaxDepth       int     `json:"max_depth"        yaml:"max_depth"`
	Eta            float64 `json:"eta"              yaml:"eta"`
	Gamma          float64 `json:"gamma"            yaml:"gamma"`
	Subsample      float64 `json:"subsample"        yaml:"subsample"`
	Lambda         float64 `json:"lambda"           yaml:"lambda"`
	MinChildWeight float64 `json:"min_child_weight" yaml:"min_child_weight"`
	Rounds         int     `json:"num_boost_round"  yaml:"num_boost_round"`
	Seed           int64   `json:"seed"             yaml:"seed"`
}

// DefaultParams returns the training defaults
func DefaultParams() Params {
	return Params{
		Objective:      ObjectiveLogistic,
		EvalMetric:     MetricLogLoss,
		MaxDepth:       5,
		Eta:            0.1,
		Gamma:          0.1,
		Subsample:      0.8,
		Lambda:         1,
		MinChildWeight: 1,
		Rounds:         100,
		Seed:           42,
	}
}

// Validate rejects params the trainer cannot honor
func (p Params) Validate() error {
	switch {
	case p.Objective != ObjectiveLogistic:
		return perr.WithField(perr.InvalidArgf("unsupported objective %q", p.Objective), "objective")
	case p.MaxDepth < 1:
		return perr.WithField(perr.InvalidArgf("max_depth must be >= 1, got %d", p.MaxDepth), "max_depth")
	case p.Eta <= 0 || p.Eta > 1:
		return perr.WithField(perr.InvalidArgf("eta must be in (0,1], got %v", p.Eta), "eta")
	case p.Gamma < 0:
		return perr.WithField(perr.InvalidArgf("gamma must be >= 0, got %v", p.Gamma), "gamma")
	case p.Subsample <= 0 || p.Subsample > 1:
		return perr.WithField(perr.InvalidArgf("subsample must be in (0,1], got %v", p.Subsample), "subsample")
	case p.Lambda < 0:
		return perr.WithField(perr.InvalidArgf("lambda must be >= 0, got %v", p.Lambda), "lambda")
	case p.MinChildWeight < 0:
		return perr.WithField(perr.InvalidArgf("min_child_weight must be >= 0, got %v", p.MinChildWeight), "min_child_weight")
	case p.Rounds < 1:
		return perr.WithField(perr.InvalidArgf("num_boost_round must be >= 1, got %d", p.Rounds), "num_boost_round")
	}
	return nil
}

// Map renders the params as strings for experiment tracking
func (p Params) Map() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"objective":        p.Objective,
		"eval_metric":      p.EvalMetric,
		"max_depth":        strconv.Itoa(p.MaxDepth),
		"eta":              f(p.Eta),
		"gamma":            f(p.Gamma),
		"subsample":        f(p.Subsample),
		"lambda":           f(p.Lambda),
		"min_child_weight": f(p.MinChildWeight),
		"num_boost_round":  strconv.Itoa(p.Rounds),
		"seed":             strconv.FormatInt(p.Seed, 10),
	}
}
