package gbdt

import (
	"encoding/json"
	"io"

	perr "churnops/internal/platform/errors"
)

// FormatVersion is bumped whenever the model file layout changes
const FormatVersion = 1

type modelFile struct {
	FormatVersion int      `json:"format_version"`
	Learner       learner  `json:"learner"`
	Columns       []string `json:"columns"`
	Trees         []Tree   `json:"trees"`
}

type learner struct {
	Objective string  `json:"objective"`
	BaseScore float64 `json:"base_score"`
	Params    Params  `json:"params"`
}

// Save writes the booster as a model.xgb JSON document
func (b *Booster) Save(w io.Writer) error {
	f := modelFile{
		FormatVersion: FormatVersion,
		Learner:       learner{Objective: b.Params.Objective, BaseScore: b.BaseScore, Params: b.Params},
		Columns:       b.Columns,
		Trees:         b.Trees,
	}
	if f.Columns == nil {
		f.Columns = []string{}
	}
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode model")
	}
	return nil
}

// Load reads a model.xgb JSON document and checks its structure
// any defect is a model load error
func Load(r io.Reader) (*Booster, error) {
	var f modelFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeModelLoad, "decode model")
	}
	if f.FormatVersion != FormatVersion {
		return nil, perr.ModelLoadf("unsupported model format_version %d", f.FormatVersion)
	}
	if f.Learner.Objective != ObjectiveLogistic {
		return nil, perr.ModelLoadf("unsupported objective %q", f.Learner.Objective)
	}
	if f.Learner.BaseScore <= 0 || f.Learner.BaseScore >= 1 {
		return nil, perr.ModelLoadf("base_score %v out of (0,1)", f.Learner.BaseScore)
	}
	if len(f.Trees) == 0 {
		return nil, perr.ModelLoadf("model has no trees")
	}
	for ti, t := range f.Trees {
		if err := checkTree(t, len(f.Columns)); err != nil {
			return nil, perr.WithOp(err, "tree "+itoa(ti))
		}
	}
	return newBooster(f.Learner.Params, f.Learner.BaseScore, f.Columns, f.Trees), nil
}

// checkTree requires children to point forward so every walk terminates
func checkTree(t Tree, width int) error {
	if len(t.Nodes) == 0 {
		return perr.ModelLoadf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if width > 0 && n.Feature >= width {
			return perr.ModelLoadf("node %d splits on feature %d of %d", i, n.Feature, width)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return perr.ModelLoadf("node %d has invalid children %d,%d", i, n.Left, n.Right)
		}
	}
	return nil
}
