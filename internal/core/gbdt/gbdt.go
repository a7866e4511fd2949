// Package gbdt is a gradient boosted tree classifier for binary labels
//
// Trees are grown greedily on log loss gradients and hessians with an exact
// split search over every distinct feature value. Each round sees a seeded
// row subsample, and a fixed round count is always trained in full
package gbdt

import (
	"math"
	"slices"
	"strconv"

	perr "churnops/internal/platform/errors"
)

// Booster is a trained ensemble and the columns it expects, in order
type Booster struct {
	Params    Params
	BaseScore float64
	Columns   []string
	Trees     []Tree

	width int
}

func newBooster(p Params, base float64, columns []string, trees []Tree) *Booster {
	b := &Booster{Params: p, BaseScore: base, Columns: slices.Clone(columns), Trees: trees}
	for _, t := range trees {
		for _, n := range t.Nodes {
			if !n.IsLeaf() {
				b.width = max(b.width, n.Feature+1)
			}
		}
	}
	if len(b.Columns) > b.width {
		b.width = len(b.Columns)
	}
	return b
}

// Width is the vector length Predict requires
func (b *Booster) Width() int { return b.width }

// Margin is the raw log odds for x
func (b *Booster) Margin(x []float64) (float64, error) {
	if err := b.check(x); err != nil {
		return 0, err
	}
	return b.margin(x), nil
}

// Predict returns the probability of the positive class
func (b *Booster) Predict(x []float64) (float64, error) {
	m, err := b.Margin(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(m), nil
}

// PredictAll scores every row
func (b *Booster) PredictAll(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, x := range rows {
		if err := b.check(x); err != nil {
			return nil, perr.WithOp(err, "row "+itoa(i))
		}
		out[i] = sigmoid(b.margin(x))
	}
	return out, nil
}

func (b *Booster) check(x []float64) error {
	if len(b.Columns) > 0 && len(x) != len(b.Columns) {
		return perr.Schemaf("vector has %d values, model expects %d", len(x), len(b.Columns))
	}
	if len(x) < b.width {
		return perr.Schemaf("vector has %d values, model needs at least %d", len(x), b.width)
	}
	return nil
}

func (b *Booster) margin(x []float64) float64 {
	m := logit(b.BaseScore)
	for _, t := range b.Trees {
		m += t.Leaf(x)
	}
	return m
}

func sigmoid(m float64) float64 { return 1 / (1 + math.Exp(-m)) }

func logit(p float64) float64 {
	p = min(max(p, 1e-15), 1-1e-15)
	return math.Log(p / (1 - p))
}

func itoa(i int) string { return strconv.Itoa(i) }
