package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPCountsByRoutePattern(t *testing.T) {
	reg := NewBare()
	r := chi.NewRouter()
	r.Use(reg.HTTP())
	r.Get("/models/{group}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models/abc", nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	want := `
# HELP churn_http_requests_total HTTP requests by method, route and status.
# TYPE churn_http_requests_total counter
churn_http_requests_total{method="GET",route="/models/{group}",status="418"} 3
churn_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(want), "churn_http_requests_total"); err != nil {
		t.Fatal(err)
	}
}

func TestRegisterReturnsExisting(t *testing.T) {
	reg := NewBare()
	opts := prometheus.CounterOpts{Namespace: Namespace, Name: "dup_total", Help: "dup"}
	a := Register(reg, prometheus.NewCounter(opts))
	b := Register(reg, prometheus.NewCounter(opts))
	a.Inc()
	b.Inc()
	if got := testutil.ToFloat64(a); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestRegisterNilRegistry(t *testing.T) {
	c := Register(nil, prometheus.NewCounter(prometheus.CounterOpts{Name: "x", Help: "x"}))
	if c == nil {
		t.Fatal("collector dropped")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	reg := New()
	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "go_goroutines") {
		t.Fatalf("missing go collector output")
	}
}
