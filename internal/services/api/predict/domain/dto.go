// Package domain holds the prediction request and response shapes
package domain

import (
	"context"
	"strconv"
	"time"

	"churnops/internal/core/schema"
)

// WelcomeMessage is what GET / answers
const WelcomeMessage = "Welcome to the Churn Prediction API"

// Welcome is the root payload
type Welcome struct {
	Message string `json:"message" example:"Welcome to the Churn Prediction API"`
}

// CustomerInput is one raw customer record
// tenure is required; every other field falls back to the default record
type CustomerInput struct {
	Gender           *string  `json:"gender"           validate:"omitnil,nonblank" example:"Male"`
	SeniorCitizen    *int     `json:"SeniorCitizen"    validate:"omitnil,oneof=0 1" example:"0"`
	Partner          *string  `json:"Partner"          validate:"omitnil,nonblank" example:"Yes"`
	Dependents       *string  `json:"Dependents"       validate:"omitnil,nonblank" example:"No"`
	Tenure           *int     `json:"tenure"           validate:"required,min=0"   example:"1"`
	PhoneService     *string  `json:"PhoneService"     validate:"omitnil,nonblank" example:"No"`
	MultipleLines    *string  `json:"MultipleLines"    validate:"omitnil,nonblank" example:"No phone service"`
	InternetService  *string  `json:"InternetService"  validate:"omitnil,nonblank" example:"DSL"`
	OnlineSecurity   *string  `json:"OnlineSecurity"   validate:"omitnil,nonblank" example:"No"`
	OnlineBackup     *string  `json:"OnlineBackup"     validate:"omitnil,nonblank" example:"Yes"`
	DeviceProtection *string  `json:"DeviceProtection" validate:"omitnil,nonblank" example:"No"`
	TechSupport      *string  `json:"TechSupport"      validate:"omitnil,nonblank" example:"No"`
	StreamingTV      *string  `json:"StreamingTV"      validate:"omitnil,nonblank" example:"No"`
	StreamingMovies  *string  `json:"StreamingMovies"  validate:"omitnil,nonblank" example:"No"`
	Contract         *string  `json:"Contract"         validate:"omitnil,nonblank" example:"Month-to-month"`
	PaperlessBilling *string  `json:"PaperlessBilling" validate:"omitnil,nonblank" example:"Yes"`
	PaymentMethod    *string  `json:"PaymentMethod"    validate:"omitnil,nonblank" example:"Electronic check"`
	MonthlyCharges   *float64 `json:"MonthlyCharges"   validate:"omitnil,min=0"    example:"29.85"`
	TotalCharges     *float64 `json:"TotalCharges"     validate:"omitnil,min=0"    example:"29.85"`
}

// Record overlays the set fields on the default record
func (c CustomerInput) Record() schema.Record {
	r := schema.Default()
	str := func(name string, v *string) {
		if v != nil {
			r[name] = *v
		}
	}
	num := func(name string, v *int) {
		if v != nil {
			r[name] = strconv.Itoa(*v)
		}
	}
	dec := func(name string, v *float64) {
		if v != nil {
			r[name] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	str("gender", c.Gender)
	num("SeniorCitizen", c.SeniorCitizen)
	str("Partner", c.Partner)
	str("Dependents", c.Dependents)
	num("tenure", c.Tenure)
	str("PhoneService", c.PhoneService)
	str("MultipleLines", c.MultipleLines)
	str("InternetService", c.InternetService)
	str("OnlineSecurity", c.OnlineSecurity)
	str("OnlineBackup", c.OnlineBackup)
	str("DeviceProtection", c.DeviceProtection)
	str("TechSupport", c.TechSupport)
	str("StreamingTV", c.StreamingTV)
	str("StreamingMovies", c.StreamingMovies)
	str("Contract", c.Contract)
	str("PaperlessBilling", c.PaperlessBilling)
	str("PaymentMethod", c.PaymentMethod)
	dec("MonthlyCharges", c.MonthlyCharges)
	dec("TotalCharges", c.TotalCharges)
	return r
}

// Prediction is the /predict response
type Prediction struct {
	Label       string  `json:"churn_prediction"  example:"No"`
	Probability float64 `json:"churn_probability" example:"0.1834"`
}

// Record is one served prediction as the audit sink stores it
type Record struct {
	ID             string
	At             time.Time
	Model          string
	Label          string
	Probability    float64
	Tenure         int
	Contract       string
	MonthlyCharges float64
}

// PredictorPort serves predictions
type PredictorPort interface {
	Predict(ctx context.Context, in CustomerInput) (Prediction, error)
	Ready() bool
}

// RecorderPort receives served predictions; it must not block the request
type RecorderPort interface {
	Record(rec Record)
}
