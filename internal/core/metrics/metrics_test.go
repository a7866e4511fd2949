package metrics

import (
	"testing"

	perr "churnops/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		name   string
		labels []float64
		probs  []float64
		want   Report
	}{
		{
			name:   "perfect",
			labels: []float64{1, 0, 1, 0},
			probs:  []float64{0.9, 0.1, 0.8, 0.2},
			want:   Report{Accuracy: 1, Precision: 1, Recall: 1, F1: 1},
		},
		{
			name:   "no positive predictions",
			labels: []float64{1, 0, 0, 0},
			probs:  []float64{0.2, 0.1, 0.3, 0.4},
			want:   Report{Accuracy: 0.75},
		},
		{
			name:   "threshold is exclusive",
			labels: []float64{1, 0},
			probs:  []float64{0.5, 0.5},
			want:   Report{Accuracy: 0.5},
		},
		{
			name:   "mixed",
			labels: []float64{1, 1, 0, 0},
			probs:  []float64{0.9, 0.4, 0.7, 0.1},
			want:   Report{Accuracy: 0.5, Precision: 0.5, Recall: 0.5, F1: 0.5},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Compute(c.labels, c.probs)
			require.NoError(t, err)
			assert.InDelta(t, c.want.Accuracy, got.Accuracy, 1e-12)
			assert.InDelta(t, c.want.Precision, got.Precision, 1e-12)
			assert.InDelta(t, c.want.Recall, got.Recall, 1e-12)
			assert.InDelta(t, c.want.F1, got.F1, 1e-12)
			for _, v := range []float64{got.Accuracy, got.Precision, got.Recall, got.F1} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		})
	}
}

func TestComputeErrors(t *testing.T) {
	cases := map[string][2][]float64{
		"empty":      {nil, nil},
		"length":     {{1, 0}, {0.3}},
		"label":      {{2}, {0.3}},
		"not a prob": {{1}, {1.3}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compute(in[0], in[1])
			assert.True(t, perr.IsCode(err, perr.ErrorCodeMetricComputation))
		})
	}
}

func TestTally(t *testing.T) {
	c, err := Tally([]float64{1, 1, 0, 0, 0}, []float64{0.6, 0.3, 0.7, 0.2, 0.1})
	require.NoError(t, err)
	assert.Equal(t, Confusion{TP: 1, FN: 1, FP: 1, TN: 2}, c)
	assert.Equal(t, 5, c.Total())
}
