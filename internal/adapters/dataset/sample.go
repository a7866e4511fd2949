package dataset

import (
	"fmt"
	"maps"
	"math"
	"strconv"

	"churnops/internal/core/schema"
)

// sampleRows is the five customer seed set the generator jitters
var sampleRows = []schema.Record{
	{
		"customerID": "7590-VHVEG", "gender": "Female", "SeniorCitizen": "0", "Partner": "Yes", "Dependents": "No",
		"tenure": "1", "PhoneService": "No", "MultipleLines": "No phone service", "InternetService": "DSL",
		"OnlineSecurity": "No", "OnlineBackup": "Yes", "DeviceProtection": "No", "TechSupport": "No",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "Month-to-month", "PaperlessBilling": "Yes",
		"PaymentMethod": "Electronic check", "MonthlyCharges": "29.85", "TotalCharges": "29.85", "Churn": "No",
	},
	{
		"customerID": "5575-GNVDE", "gender": "Male", "SeniorCitizen": "0", "Partner": "No", "Dependents": "No",
		"tenure": "34", "PhoneService": "Yes", "MultipleLines": "No", "InternetService": "DSL",
		"OnlineSecurity": "Yes", "OnlineBackup": "No", "DeviceProtection": "Yes", "TechSupport": "No",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "One year", "PaperlessBilling": "No",
		"PaymentMethod": "Mailed check", "MonthlyCharges": "56.95", "TotalCharges": "1889.5", "Churn": "No",
	},
	{
		"customerID": "3668-QPYBK", "gender": "Male", "SeniorCitizen": "0", "Partner": "No", "Dependents": "No",
		"tenure": "2", "PhoneService": "Yes", "MultipleLines": "No", "InternetService": "DSL",
		"OnlineSecurity": "Yes", "OnlineBackup": "Yes", "DeviceProtection": "No", "TechSupport": "No",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "Month-to-month", "PaperlessBilling": "Yes",
		"PaymentMethod": "Mailed check", "MonthlyCharges": "53.85", "TotalCharges": "108.15", "Churn": "Yes",
	},
	{
		"customerID": "7795-CFOCW", "gender": "Male", "SeniorCitizen": "0", "Partner": "No", "Dependents": "No",
		"tenure": "45", "PhoneService": "No", "MultipleLines": "No phone service", "InternetService": "DSL",
		"OnlineSecurity": "Yes", "OnlineBackup": "No", "DeviceProtection": "Yes", "TechSupport": "Yes",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "One year", "PaperlessBilling": "No",
		"PaymentMethod": "Bank transfer (automatic)", "MonthlyCharges": "42.30", "TotalCharges": "1840.75", "Churn": "No",
	},
	{
		"customerID": "9237-HQITU", "gender": "Female", "SeniorCitizen": "0", "Partner": "No", "Dependents": "No",
		"tenure": "2", "PhoneService": "Yes", "MultipleLines": "No", "InternetService": "Fiber optic",
		"OnlineSecurity": "No", "OnlineBackup": "No", "DeviceProtection": "No", "TechSupport": "No",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "Month-to-month", "PaperlessBilling": "Yes",
		"PaymentMethod": "Electronic check", "MonthlyCharges": "70.70", "TotalCharges": "151.65", "Churn": "Yes",
	},
}

// SampleSize is how many copies of each seed customer Sample emits
const SampleSize = 200

// SeedRecords returns a copy of the five seed customers
func SeedRecords() []schema.Record {
	out := make([]schema.Record, len(sampleRows))
	for i, r := range sampleRows {
		out[i] = maps.Clone(r)
	}
	return out
}

// Sample expands the seed customers times copies with seeded jitter
//
// ids become SAMPLE-00000 onward, tenure moves by [-10,20) with a floor of 1,
// MonthlyCharges moves by [-10,10) with a floor of 20; every other field,
// TotalCharges included, is copied verbatim
func Sample(copies int, seed int64) []schema.Record {
	r := rng(seed)
	out := make([]schema.Record, 0, copies*len(sampleRows))
	for range copies {
		for _, base := range sampleRows {
			rec := maps.Clone(base)
			rec[schema.IDColumn] = fmt.Sprintf("SAMPLE-%05d", len(out))

			tenure, _ := strconv.Atoi(base["tenure"])
			rec["tenure"] = strconv.Itoa(max(1, tenure+r.IntN(30)-10))

			monthly, _ := strconv.ParseFloat(base["MonthlyCharges"], 64)
			m := math.Max(20, monthly+r.Float64()*20-10)
			rec["MonthlyCharges"] = strconv.FormatFloat(math.Round(m*100)/100, 'f', 2, 64)

			out = append(out, rec)
		}
	}
	return out
}
