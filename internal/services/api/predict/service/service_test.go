package service

import (
	"context"
	"path/filepath"
	"testing"

	"churnops/internal/adapters/artifact"
	"churnops/internal/adapters/dataset"
	"churnops/internal/core/encode"
	"churnops/internal/core/gbdt"
	perr "churnops/internal/platform/errors"
	"churnops/internal/services/api/predict/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct{ xs []domain.Record }

func (r *recorded) Record(rec domain.Record) { r.xs = append(r.xs, rec) }

func trainedModel(t *testing.T) string {
	t.Helper()
	enc, err := encode.Encode(dataset.Sample(10, 3), nil)
	require.NoError(t, err)
	p := gbdt.DefaultParams()
	p.Rounds = 10
	b, err := gbdt.Train(context.Background(), enc.Vectors, enc.Labels, enc.Columns, p)
	require.NoError(t, err)
	path, err := artifact.SaveModel(t.TempDir(), b)
	require.NoError(t, err)
	return path
}

func ptr[T any](v T) *T { return &v }

func TestPredictBeforeLoad(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Ready())
	_, err := s.Predict(context.Background(), domain.CustomerInput{Tenure: ptr(1)})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable), err)
}

func TestLoadFailure(t *testing.T) {
	s := New(nil)
	err := s.Load(filepath.Join(t.TempDir(), "model.xgb"))
	assert.True(t, perr.IsCode(err, perr.ErrorCodeModelLoad), err)
	assert.False(t, s.Ready())
}

func TestPredict(t *testing.T) {
	rec := &recorded{}
	s := New(rec)
	require.NoError(t, s.Load(trainedModel(t)))
	require.True(t, s.Ready())

	out, err := s.Predict(context.Background(), domain.CustomerInput{Tenure: ptr(1)})
	require.NoError(t, err)
	assert.Contains(t, []string{"Yes", "No"}, out.Label)
	assert.GreaterOrEqual(t, out.Probability, 0.0)
	assert.LessOrEqual(t, out.Probability, 1.0)
	assert.Equal(t, out.Probability > 0.5, out.Label == "Yes")

	again, err := s.Predict(context.Background(), domain.CustomerInput{Tenure: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, out, again, "scoring is deterministic")

	require.Len(t, rec.xs, 2)
	assert.Equal(t, 1, rec.xs[0].Tenure)
	assert.Equal(t, "Month-to-month", rec.xs[0].Contract)
	assert.Equal(t, 29.85, rec.xs[0].MonthlyCharges)
	assert.NotEqual(t, rec.xs[0].ID, rec.xs[1].ID)
}

func TestPredictUnknownCategoryScoresAsBaseline(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(trainedModel(t)))
	_, err := s.Predict(context.Background(), domain.CustomerInput{Tenure: ptr(5), Contract: ptr("Lifetime")})
	require.NoError(t, err)
}

func TestPredictBlankField(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(trainedModel(t)))
	_, err := s.Predict(context.Background(), domain.CustomerInput{Tenure: ptr(5), Gender: ptr("  ")})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation), err)
}
