package bind

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "churnops/internal/platform/errors"
	kit "churnops/internal/platform/testkit"
)

type record struct {
	Tenure   *int     `json:"tenure" validate:"required,min=0"`
	Contract *string  `json:"Contract" validate:"omitempty,nonblank"`
	Monthly  *float64 `json:"MonthlyCharges" validate:"omitempty,min=0"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		opts      []JSONOptions
		wantCode  perr.ErrorCode
		wantField string
		wantErr   bool
	}{
		{name: "ok", body: `{"tenure":3,"Contract":"One year"}`},
		{name: "unknown allowed by default", body: `{"tenure":3,"extra":1}`},
		{name: "unknown rejected when strict", body: `{"tenure":3,"extra":1}`, opts: []JSONOptions{Strict}, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "empty body", body: ``, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "broken json", body: `{`, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "trailing data", body: `{"tenure":1} {}`, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "missing required", body: `{"Contract":"One year"}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "tenure"},
		{name: "wrong type", body: `{"tenure":"twelve"}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "tenure"},
		{name: "negative", body: `{"tenure":-1}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "tenure"},
		{name: "blank category", body: `{"tenure":1,"Contract":"  "}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "Contract"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseJSON[record](post(tc.body), tc.opts...)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Tenure == nil {
					t.Fatalf("tenure not decoded")
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			if perr.CodeOf(err) != tc.wantCode {
				t.Fatalf("code = %v want %v (%v)", perr.CodeOf(err), tc.wantCode, err)
			}
			if tc.wantField != "" {
				e, _ := perr.As(err)
				if e.Field() != tc.wantField {
					t.Fatalf("field = %q want %q", e.Field(), tc.wantField)
				}
			}
		})
	}
}

func TestParseJSON_TranslatedMessages(t *testing.T) {
	_, err := ParseJSON[record](post(`{"tenure":-4}`))
	kit.MustContain(t, err.Error(), "tenure must be at least 0")

	_, err = ParseJSON[record](post(`{}`))
	kit.MustContain(t, err.Error(), "tenure is a required field")
}

func TestParseJSON_MaxBytes(t *testing.T) {
	_, err := ParseJSON[record](post(`{"tenure":1,"Contract":"Month-to-month"}`), JSONOptions{MaxBytes: 8})
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("truncated body should be a JSON error, got %v", err)
	}
}

func TestParseJSON_TrailingSeam(t *testing.T) {
	kit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })
	_, err := ParseJSON[record](post(`{"tenure":1}`))
	kit.MustContain(t, err.Error(), "trailing")
}

func TestValidationFieldAndMessage_Foreign(t *testing.T) {
	if f, m := ValidationFieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil should be empty")
	}
	f, m := ValidationFieldAndMessage(perr.Internalf("boom"))
	if f != "" || m != "boom" {
		t.Fatalf("foreign = %q %q", f, m)
	}
}
