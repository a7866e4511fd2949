package tracking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	perr "churnops/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

// fakeMLflow records requests and answers the subset of the REST API the client uses
type fakeMLflow struct {
	mu          sync.Mutex
	experiments map[string]string
	calls       []string
	bodies      map[string][]byte
	registered  map[string]bool
	failNext    int
}

func newFake() *fakeMLflow {
	return &fakeMLflow{experiments: map[string]string{}, bodies: map[string][]byte{}, registered: map[string]bool{}}
}

func (f *fakeMLflow) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	body, _ := io.ReadAll(r.Body)
	f.bodies[r.URL.Path] = body

	if f.failNext > 0 {
		f.failNext--
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	notFound := func() {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"no such thing"}`))
	}
	var in map[string]any
	_ = json.Unmarshal(body, &in)

	switch {
	case r.URL.Path == "/api/2.0/mlflow/experiments/get-by-name":
		id, ok := f.experiments[r.URL.Query().Get("experiment_name")]
		if !ok {
			notFound()
			return
		}
		_, _ = w.Write([]byte(`{"experiment":{"experiment_id":"` + id + `"}}`))
	case r.URL.Path == "/api/2.0/mlflow/experiments/create":
		f.experiments[in["name"].(string)] = "7"
		_, _ = w.Write([]byte(`{"experiment_id":"7"}`))
	case r.URL.Path == "/api/2.0/mlflow/runs/create":
		_, _ = w.Write([]byte(`{"run":{"info":{"run_id":"run-1","artifact_uri":"mlflow-artifacts:/7/run-1/artifacts"}}}`))
	case r.URL.Path == "/api/2.0/mlflow/registered-models/create":
		name := in["name"].(string)
		if f.registered[name] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_code":"RESOURCE_ALREADY_EXISTS","message":"exists"}`))
			return
		}
		f.registered[name] = true
		_, _ = w.Write([]byte(`{}`))
	case r.URL.Path == "/api/2.0/mlflow/model-versions/create":
		_, _ = w.Write([]byte(`{"model_version":{"name":"` + in["name"].(string) + `","version":"3"}}`))
	case strings.HasPrefix(r.URL.Path, "/api/2.0/mlflow-artifacts/artifacts/"),
		r.URL.Path == "/api/2.0/mlflow/runs/log-batch",
		r.URL.Path == "/api/2.0/mlflow/runs/log-metric",
		r.URL.Path == "/api/2.0/mlflow/runs/update":
		_, _ = w.Write([]byte(`{}`))
	default:
		notFound()
	}
}

func (f *fakeMLflow) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newClient(t *testing.T, f *fakeMLflow) *MLflow {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := NewMLflow(MLflowOptions{BaseURL: srv.URL + "/", RetryBase: time.Millisecond})
	c.sleep = func(time.Duration) {}
	return c
}

func TestMLflowFlow(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	c := newClient(t, f)

	exp, err := c.SetExperiment(ctx, DefaultExperiment)
	require.NoError(t, err)
	assert.Equal(t, "7", exp)

	again, err := c.SetExperiment(ctx, DefaultExperiment)
	require.NoError(t, err)
	assert.Equal(t, exp, again)

	run, err := c.StartRun(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)

	require.NoError(t, c.LogParams(ctx, run, map[string]string{"max_depth": "5", "eta": "0.1"}))
	require.NoError(t, c.LogMetric(ctx, run, MetricTrainAccuracy, 0.93))

	model := filepath.Join(t.TempDir(), "model.xgb")
	require.NoError(t, os.WriteFile(model, []byte(`{"format_version":1}`), 0o644))
	mv, err := c.LogModel(ctx, run, Model{File: model, RegisteredName: DefaultModelName, FormatVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, ModelVersion{Name: DefaultModelName, Version: 3, Source: "mlflow-artifacts:/7/run-1/artifacts/model"}, mv)

	// registering the same name again tolerates the existing model
	_, err = c.LogModel(ctx, run, Model{File: model, RegisteredName: DefaultModelName})
	require.NoError(t, err)

	require.NoError(t, c.EndRun(ctx, run, StatusFinished))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.calls, "PUT /api/2.0/mlflow-artifacts/artifacts/7/run-1/artifacts/model/model.xgb")
	assert.Contains(t, f.calls, "PUT /api/2.0/mlflow-artifacts/artifacts/7/run-1/artifacts/model/MLmodel")
	assert.Equal(t, `{"format_version":1}`, string(f.bodies["/api/2.0/mlflow-artifacts/artifacts/7/run-1/artifacts/model/model.xgb"]))

	var desc map[string]any
	require.NoError(t, yaml.Unmarshal(f.bodies["/api/2.0/mlflow-artifacts/artifacts/7/run-1/artifacts/model/MLmodel"], &desc))
	assert.Equal(t, "model", desc["artifact_path"])
	assert.Equal(t, "run-1", desc["run_id"])

	var batch struct {
		RunID  string `json:"run_id"`
		Params []kv   `json:"params"`
	}
	require.NoError(t, json.Unmarshal(f.bodies["/api/2.0/mlflow/runs/log-batch"], &batch))
	assert.Equal(t, "run-1", batch.RunID)
	assert.Equal(t, []kv{{"eta", "0.1"}, {"max_depth", "5"}}, batch.Params)

	var upd map[string]any
	require.NoError(t, json.Unmarshal(f.bodies["/api/2.0/mlflow/runs/update"], &upd))
	assert.Equal(t, "FINISHED", upd["status"])
}

func TestMLflowRetriesServerErrors(t *testing.T) {
	f := newFake()
	f.failNext = 2
	c := newClient(t, f)

	require.NoError(t, c.LogParams(context.Background(), Run{ID: "run-1"}, map[string]string{"eta": "0.1"}))
	assert.Len(t, f.Calls(), 3)
}

func TestMLflowGivesUp(t *testing.T) {
	f := newFake()
	f.failNext = 100
	c := newClient(t, f)

	err := c.EndRun(context.Background(), Run{ID: "run-1"}, StatusFinished)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
	assert.Len(t, f.Calls(), mlflowRetries+1)
}

func TestMLflowDoesNotReplayCreates(t *testing.T) {
	cases := map[string]func(c *MLflow) error{
		"runs/create": func(c *MLflow) error {
			_, err := c.StartRun(context.Background(), "1")
			return err
		},
		"runs/log-metric": func(c *MLflow) error {
			return c.LogMetric(context.Background(), Run{ID: "run-1"}, MetricTrainAccuracy, 0.9)
		},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFake()
			f.failNext = 1
			c := newClient(t, f)

			err := call(c)
			require.Error(t, err)
			assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
			assert.Len(t, f.Calls(), 1)
		})
	}
}

func TestMLflowRetriesCreateBeforeConnect(t *testing.T) {
	srv := httptest.NewServer(newFake())
	addr := srv.Listener.Addr().String()
	srv.Close()

	c := NewMLflow(MLflowOptions{BaseURL: "http://" + addr, RetryBase: time.Millisecond, MaxRetries: 2})
	slept := 0
	c.sleep = func(time.Duration) { slept++ }

	_, err := c.StartRun(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
	assert.Equal(t, 2, slept)
}

func TestReplayable(t *testing.T) {
	assert.True(t, replayable(http.MethodGet, apiPrefix+"/experiments/get-by-name?experiment_name=x"))
	assert.True(t, replayable(http.MethodPut, artifactsPrefix+"/7/r/artifacts/model/model.xgb"))
	assert.True(t, replayable(http.MethodPost, apiPrefix+"/runs/update"))
	assert.True(t, replayable(http.MethodPost, apiPrefix+"/registered-models/create"))
	assert.False(t, replayable(http.MethodPost, apiPrefix+"/runs/create"))
	assert.False(t, replayable(http.MethodPost, apiPrefix+"/model-versions/create"))
}

func TestMLflowStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"INVALID_PARAMETER_VALUE","message":"bad run"}`))
	}))
	defer srv.Close()
	c := NewMLflow(MLflowOptions{BaseURL: srv.URL})

	err := c.LogMetric(context.Background(), Run{ID: "x"}, "k", 1)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	assert.Contains(t, err.Error(), "bad run")
}

func TestMLflowSkipsUploadForForeignStores(t *testing.T) {
	f := newFake()
	c := newClient(t, f)
	run := Run{ID: "r", ArtifactURI: "s3://bucket/7/r/artifacts"}

	mv, err := c.LogModel(context.Background(), run, Model{File: "unused", RegisteredName: "m"})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/7/r/artifacts/model", mv.Source)
	for _, call := range f.Calls() {
		assert.NotContains(t, call, "mlflow-artifacts")
	}
}
