// Package service scores customer records with the loaded booster
package service

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"churnops/internal/adapters/artifact"
	"churnops/internal/core/encode"
	"churnops/internal/core/gbdt"
	"churnops/internal/core/schema"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
	"churnops/internal/services/api/predict/domain"

	"github.com/google/uuid"
)

// threshold splits Yes from No; a probability equal to it is No
const threshold = 0.5

// Model is a loaded booster and the columns requests are aligned to
type Model struct {
	Booster  *gbdt.Booster
	Columns  []string
	Path     string
	LoadedAt time.Time
}

// Service implements domain.PredictorPort
type Service struct {
	model atomic.Pointer[Model]
	rec   domain.RecorderPort
	log   *logger.Logger
	newID func() string
}

// New constructs an unloaded service; rec may be nil
func New(rec domain.RecorderPort) *Service {
	return &Service{rec: rec, log: logger.Named("predict"), newID: uuid.NewString}
}

// Load reads the model at path and publishes it
func (s *Service) Load(path string) error {
	b, err := artifact.LoadModel(path)
	if err != nil {
		return err
	}
	cols := b.Columns
	if len(cols) == 0 {
		s.log.Warn().Str("path", path).Msg("model carries no column list, using the default reference columns")
		cols = schema.DefaultReferenceColumns()
	}
	if len(cols) < b.Width() {
		return perr.ModelLoadf("model %s splits on feature %d but only %d columns are known", path, b.Width()-1, len(cols))
	}
	s.model.Store(&Model{Booster: b, Columns: cols, Path: path, LoadedAt: time.Now().UTC()})
	s.log.Info().Str("path", path).Int("columns", len(cols)).Int("trees", len(b.Trees)).Msg("model loaded")
	return nil
}

// Model returns the loaded model, nil before Load succeeds
func (s *Service) Model() *Model { return s.model.Load() }

// Ready reports whether a model is loaded
func (s *Service) Ready() bool { return s.model.Load() != nil }

// Predict encodes in against the model's columns and scores it
func (s *Service) Predict(ctx context.Context, in domain.CustomerInput) (domain.Prediction, error) {
	m := s.model.Load()
	if m == nil {
		return domain.Prediction{}, perr.Unavailablef("model is not loaded yet")
	}
	rec := in.Record()
	enc, err := encode.Encode([]schema.Record{rec}, m.Columns)
	if err != nil {
		return domain.Prediction{}, err
	}
	if len(enc.Vectors) != 1 {
		return domain.Prediction{}, perr.Validationf("customer record has a blank or missing value")
	}
	p, err := m.Booster.Predict(enc.Vectors[0])
	if err != nil {
		return domain.Prediction{}, perr.Wrap(err, perr.ErrorCodeModelLoad, "score customer record")
	}

	out := domain.Prediction{Label: "No", Probability: p}
	if p > threshold {
		out.Label = "Yes"
	}
	if s.rec != nil {
		tenure, _ := strconv.Atoi(rec["tenure"])
		monthly, _ := strconv.ParseFloat(rec["MonthlyCharges"], 64)
		s.rec.Record(domain.Record{
			ID:             s.newID(),
			At:             time.Now().UTC(),
			Model:          m.Path,
			Label:          out.Label,
			Probability:    p,
			Tenure:         tenure,
			Contract:       rec["Contract"],
			MonthlyCharges: monthly,
		})
	}
	logger.C(ctx).Debug().Str("label", out.Label).Float64("probability", p).Msg("prediction served")
	return out, nil
}
