// Package schema declares the raw customer record: its fields, their kinds,
// accepted vocabularies and the defaults the prediction API fills in
package schema

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind classifies a field for encoding
type Kind uint8

const (
	// KindCategorical fields are one-hot encoded
	KindCategorical Kind = iota
	// KindInteger fields pass through as numbers and must parse as integers
	KindInteger
	// KindFloat fields pass through as numbers
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	}
	return "unknown"
}

// Numeric reports whether the kind passes through as a number
func (k Kind) Numeric() bool { return k == KindInteger || k == KindFloat }

const (
	// IDColumn identifies a customer and is never a feature
	IDColumn = "customerID"
	// LabelColumn is the churn outcome, Yes or No
	LabelColumn = "Churn"
	// Coerced is the one numeric field whose bad values mean missing, not malformed
	Coerced = "TotalCharges"
)

// Field describes one raw column
type Field struct {
	Name    string
	Kind    Kind
	Default string
	Vocab   []string
}

var (
	yesNo    = []string{"No", "Yes"}
	internet = []string{"No", "No internet service", "Yes"}
)

var fields = []Field{
	{"gender", KindCategorical, "Male", []string{"Female", "Male"}},
	{"SeniorCitizen", KindInteger, "0", []string{"0", "1"}},
	{"Partner", KindCategorical, "Yes", yesNo},
	{"Dependents", KindCategorical, "No", yesNo},
	{"tenure", KindInteger, "1", nil},
	{"PhoneService", KindCategorical, "No", yesNo},
	{"MultipleLines", KindCategorical, "No phone service", []string{"No", "No phone service", "Yes"}},
	{"InternetService", KindCategorical, "DSL", []string{"DSL", "Fiber optic", "No"}},
	{"OnlineSecurity", KindCategorical, "No", internet},
	{"OnlineBackup", KindCategorical, "Yes", internet},
	{"DeviceProtection", KindCategorical, "No", internet},
	{"TechSupport", KindCategorical, "No", internet},
	{"StreamingTV", KindCategorical, "No", internet},
	{"StreamingMovies", KindCategorical, "No", internet},
	{"Contract", KindCategorical, "Month-to-month", []string{"Month-to-month", "One year", "Two year"}},
	{"PaperlessBilling", KindCategorical, "Yes", yesNo},
	{"PaymentMethod", KindCategorical, "Electronic check", []string{
		"Bank transfer (automatic)", "Credit card (automatic)", "Electronic check", "Mailed check",
	}},
	{"MonthlyCharges", KindFloat, "29.85", nil},
	{"TotalCharges", KindFloat, "29.85", nil},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(fields))
	for i, f := range fields {
		m[f.Name] = i
	}
	return m
}()

// Fields returns the feature fields in canonical order
func Fields() []Field { return slices.Clone(fields) }

// Lookup finds a feature field by name
func Lookup(name string) (Field, bool) {
	i, ok := byName[name]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// Categorical returns the categorical fields in canonical order
func Categorical() []Field { return filter(func(f Field) bool { return f.Kind == KindCategorical }) }

// Numeric returns the numeric fields in canonical order
func Numeric() []Field { return filter(func(f Field) bool { return f.Kind.Numeric() }) }

func filter(keep func(Field) bool) []Field {
	var out []Field
	for _, f := range fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// Vocabulary returns the accepted values of a field, nil for open numeric ranges
func Vocabulary(name string) []string {
	f, ok := Lookup(name)
	if !ok {
		return nil
	}
	return slices.Clone(f.Vocab)
}

// Header is the raw CSV header: id, the features, then the label
func Header() []string {
	h := make([]string, 0, len(fields)+2)
	h = append(h, IDColumn)
	for _, f := range fields {
		h = append(h, f.Name)
	}
	return append(h, LabelColumn)
}

// Record is one raw row keyed by header name
type Record map[string]string

// Get returns the raw cell for field
func (r Record) Get(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// Default returns the record the prediction API starts from
func Default() Record {
	r := make(Record, len(fields))
	for _, f := range fields {
		r[f.Name] = f.Default
	}
	return r
}

var cleanPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Remove(runes.In(unicode.Cf)), // BOM and zero width
			norm.NFC,
		)
	},
}

// Clean repairs UTF-8, strips format characters, applies NFC and trims
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := cleanPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	cleanPool.Put(tr)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// missing holds the cell spellings read_csv style loaders treat as NA
var missing = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// Missing reports whether a cleaned cell counts as a missing value
func Missing(cell string) bool {
	_, ok := missing[cell]
	return ok
}

// DefaultReferenceColumns is the column list of a model trained on the full
// vocabulary, used only when an artifact carries no columns of its own
func DefaultReferenceColumns() []string {
	return []string{
		"SeniorCitizen", "tenure", "MonthlyCharges", "TotalCharges",
		"gender_Male", "Partner_Yes", "Dependents_Yes", "PhoneService_Yes",
		"MultipleLines_No phone service", "MultipleLines_Yes",
		"InternetService_Fiber optic", "InternetService_No",
		"OnlineSecurity_No internet service", "OnlineSecurity_Yes",
		"OnlineBackup_No internet service", "OnlineBackup_Yes",
		"DeviceProtection_No internet service", "DeviceProtection_Yes",
		"TechSupport_No internet service", "TechSupport_Yes",
		"StreamingTV_No internet service", "StreamingTV_Yes",
		"StreamingMovies_No internet service", "StreamingMovies_Yes",
		"Contract_One year", "Contract_Two year",
		"PaperlessBilling_Yes",
		"PaymentMethod_Credit card (automatic)", "PaymentMethod_Electronic check", "PaymentMethod_Mailed check",
	}
}

// Column names the one-hot column for a categorical value
func Column(field, value string) string { return field + "_" + value }
