// Package http provides the prediction endpoints
package http

import (
	stdhttp "net/http"

	"churnops/internal/modkit/httpkit"
	"churnops/internal/services/api/predict/domain"
)

// Register mounts / and /predict on the given router
func Register(r httpkit.Router, p domain.PredictorPort) {
	h := &handlers{p: p}

	httpkit.Get(r, "/", h.root)
	httpkit.PostJSON(r, "/predict", h.predict)
}

type handlers struct{ p domain.PredictorPort }

// swagger:route GET / Predict predictRoot
// @Summary Welcome message
// @Tags Predict
// @Produce json
// @Success 200 {object} domain.Welcome "ok"
// @Router / [get]
func (h *handlers) root(*stdhttp.Request) (any, error) {
	return httpkit.Raw(domain.Welcome{Message: domain.WelcomeMessage}), nil
}

// swagger:route POST /predict Predict predictChurn
// @Summary Predict churn for one customer
// @Description Omitted fields take the default record's values; tenure is required
// @Tags Predict
// @Accept json
// @Produce json
// @Param payload body domain.CustomerInput true "Customer"
// @Success 200 {object} domain.Prediction "ok"
// @Failure 400 {object} httpkit.Envelope "missing or mistyped field"
// @Failure 503 {object} httpkit.Envelope "model not loaded"
// @Router /predict [post]
func (h *handlers) predict(r *stdhttp.Request, in domain.CustomerInput) (any, error) {
	out, err := h.p.Predict(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Raw(out), nil
}
