package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/logger"
)

const (
	mlflowTimeout   = 10 * time.Second
	mlflowRetries   = 3
	mlflowRetryBase = 250 * time.Millisecond
	mlflowUA        = "churnops-trainer"

	apiPrefix       = "/api/2.0/mlflow"
	artifactsPrefix = "/api/2.0/mlflow-artifacts/artifacts"
	artifactScheme  = "mlflow-artifacts:"
)

// MLflowOptions configures the REST client
type MLflowOptions struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// MLflow talks to a tracking server over REST API 2.0
type MLflow struct {
	http  *http.Client
	opts  MLflowOptions
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewMLflow creates a client with defaults filled in
func NewMLflow(o MLflowOptions) *MLflow {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = mlflowUA
	}
	if o.Timeout <= 0 {
		o.Timeout = mlflowTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = mlflowRetries
	}
	if o.RetryBase <= 0 {
		o.RetryBase = mlflowRetryBase
	}
	return &MLflow{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("mlflow"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// StatusError is a non 2xx answer from the tracking server
type StatusError struct {
	Status    int
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (e *StatusError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("mlflow %d %s: %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("mlflow %d: %s", e.Status, e.Message)
}

// HTTPStatus reports the response status
func (e *StatusError) HTTPStatus() int { return e.Status }

func hasCode(err error, code string) bool {
	var se *StatusError
	return errors.As(err, &se) && se.ErrorCode == code
}

// creates are the endpoints where a repeated request makes a second record
var creates = map[string]bool{
	apiPrefix + "/experiments/create":    true,
	apiPrefix + "/runs/create":           true,
	apiPrefix + "/runs/log-metric":       true,
	apiPrefix + "/model-versions/create": true,
}

// replayable reports whether a request may be sent again after the server
// could have seen it
func replayable(method, p string) bool {
	return method != http.MethodPost || !creates[p]
}

// unsent reports a transport error raised before the request left the client
func unsent(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}

// do sends one request with retries
// transport failures and 5xx answers are retried for replayable requests;
// creates only retry when the connection was never made
// body is JSON encoded unless it is a []byte; out may be nil
func (c *MLflow) do(ctx context.Context, method, p string, body, out any) error {
	replay := replayable(method, p)
	var payload []byte
	ctype := "application/json"
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
		ctype = "application/octet-stream"
	default:
		var err error
		if payload, err = json.Marshal(b); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "mlflow encode request")
		}
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+p, rd)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "mlflow new request")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", ctype)
		}
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)
		if err != nil {
			if attempt >= c.opts.MaxRetries || (!replay && !unsent(err)) {
				return perr.Wrap(err, perr.ErrorCodeUnavailable, "mlflow request failed")
			}
			back := c.backoff(attempt)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempt).Msg("mlflow transport error retrying")
			c.sleep(back)
			continue
		}

		c.log.Debug().
			Str("method", method).
			Str("path", p).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Msg("mlflow http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer func() { _ = drainAndClose(resp.Body) }()
			if out == nil {
				return nil
			}
			if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil && err != io.EOF {
				return perr.Wrap(err, perr.ErrorCodeJSON, "mlflow decode response")
			}
			return nil
		case resp.StatusCode >= 500 && replay && attempt < c.opts.MaxRetries:
			_ = drainAndClose(resp.Body)
			back := c.backoff(attempt)
			c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", back).Msg("mlflow server error retrying")
			c.sleep(back)
			continue
		default:
			return statusError(resp)
		}
	}
}

func statusError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &StatusError{Status: resp.StatusCode}
	if json.Unmarshal(raw, se) != nil || se.Message == "" {
		se.Message = strings.TrimSpace(string(raw))
	}
	code := perr.ErrorCodeUnknown
	switch {
	case resp.StatusCode == http.StatusNotFound || se.ErrorCode == "RESOURCE_DOES_NOT_EXIST":
		code = perr.ErrorCodeNotFound
	case se.ErrorCode == "RESOURCE_ALREADY_EXISTS":
		code = perr.ErrorCodeDuplicateKey
	case resp.StatusCode == http.StatusBadRequest || se.ErrorCode == "INVALID_PARAMETER_VALUE":
		code = perr.ErrorCodeInvalidArgument
	case resp.StatusCode >= 500:
		code = perr.ErrorCodeUnavailable
	}
	return perr.Wrap(se, code, "mlflow request rejected")
}

func (c *MLflow) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	return min(d, 10*time.Second)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

func millis(t time.Time) int64 { return t.UnixMilli() }

type kv struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metricWire struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// SetExperiment implements Tracker
func (c *MLflow) SetExperiment(ctx context.Context, name string) (string, error) {
	var got struct {
		Experiment struct {
			ID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	q := url.Values{"experiment_name": {name}}
	err := c.do(ctx, http.MethodGet, apiPrefix+"/experiments/get-by-name?"+q.Encode(), nil, &got)
	if err == nil {
		return got.Experiment.ID, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return "", err
	}

	var created struct {
		ID string `json:"experiment_id"`
	}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/experiments/create", map[string]string{"name": name}, &created); err != nil {
		return "", err
	}
	c.log.Info().Str("experiment", name).Str("experiment_id", created.ID).Msg("mlflow experiment created")
	return created.ID, nil
}

// StartRun implements Tracker
func (c *MLflow) StartRun(ctx context.Context, experimentID string) (Run, error) {
	now := c.now().UTC()
	in := map[string]any{
		"experiment_id": experimentID,
		"start_time":    millis(now),
		"tags":          []kv{{Key: "mlflow.source.name", Value: mlflowUA}},
	}
	var out struct {
		Run struct {
			Info struct {
				RunID       string `json:"run_id"`
				ArtifactURI string `json:"artifact_uri"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/runs/create", in, &out); err != nil {
		return Run{}, err
	}
	return Run{
		ID:           out.Run.Info.RunID,
		ExperimentID: experimentID,
		ArtifactURI:  out.Run.Info.ArtifactURI,
		StartedAt:    now,
	}, nil
}

// LogParams implements Tracker; params go in one batch, sorted by key
func (c *MLflow) LogParams(ctx context.Context, run Run, params map[string]string) error {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ps := make([]kv, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, kv{Key: k, Value: params[k]})
	}
	in := map[string]any{"run_id": run.ID, "params": ps}
	return c.do(ctx, http.MethodPost, apiPrefix+"/runs/log-batch", in, nil)
}

// LogMetric implements Tracker
func (c *MLflow) LogMetric(ctx context.Context, run Run, key string, value float64) error {
	in := map[string]any{
		"run_id":    run.ID,
		"key":       key,
		"value":     value,
		"timestamp": millis(c.now()),
		"step":      0,
	}
	return c.do(ctx, http.MethodPost, apiPrefix+"/runs/log-metric", in, nil)
}

// LogModel implements Tracker
//
// files are uploaded through the artifact proxy when the run's artifact uri
// uses the mlflow-artifacts scheme; other stores are written by the server
// side tooling, so only the registration happens here
func (c *MLflow) LogModel(ctx context.Context, run Run, m Model) (ModelVersion, error) {
	if m.ArtifactPath == "" {
		m.ArtifactPath = DefaultArtifactPath
	}
	source := strings.TrimRight(run.ArtifactURI, "/") + "/" + m.ArtifactPath

	if rel, ok := strings.CutPrefix(run.ArtifactURI, artifactScheme); ok {
		data, err := os.ReadFile(m.File)
		if err != nil {
			return ModelVersion{}, perr.Wrapf(err, perr.ErrorCodeModelLoad, "read model %s", m.File)
		}
		desc, err := descriptor(run, m, c.now())
		if err != nil {
			return ModelVersion{}, perr.Wrap(err, perr.ErrorCodeUnknown, "render MLmodel")
		}
		base := path.Join(artifactsPrefix, strings.TrimLeft(rel, "/"), m.ArtifactPath)
		if err := c.do(ctx, http.MethodPut, escapePath(path.Join(base, path.Base(m.File))), data, nil); err != nil {
			return ModelVersion{}, err
		}
		if err := c.do(ctx, http.MethodPut, escapePath(path.Join(base, MLmodelFile)), desc, nil); err != nil {
			return ModelVersion{}, err
		}
	} else {
		c.log.Warn().Str("artifact_uri", run.ArtifactURI).Msg("artifact store not reachable through the proxy, registering without upload")
	}

	if m.RegisteredName == "" {
		return ModelVersion{Source: source}, nil
	}
	err := c.do(ctx, http.MethodPost, apiPrefix+"/registered-models/create", map[string]string{"name": m.RegisteredName}, nil)
	if err != nil && !hasCode(err, "RESOURCE_ALREADY_EXISTS") {
		return ModelVersion{}, err
	}

	var out struct {
		ModelVersion struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"model_version"`
	}
	in := map[string]string{"name": m.RegisteredName, "source": source, "run_id": run.ID}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/model-versions/create", in, &out); err != nil {
		return ModelVersion{}, err
	}
	v, err := strconv.Atoi(out.ModelVersion.Version)
	if err != nil {
		return ModelVersion{}, perr.Wrapf(err, perr.ErrorCodeJSON, "mlflow model version %q", out.ModelVersion.Version)
	}
	return ModelVersion{Name: out.ModelVersion.Name, Version: v, Source: source}, nil
}

// EndRun implements Tracker
func (c *MLflow) EndRun(ctx context.Context, run Run, status Status) error {
	in := map[string]any{"run_id": run.ID, "status": string(status), "end_time": millis(c.now())}
	return c.do(ctx, http.MethodPost, apiPrefix+"/runs/update", in, nil)
}

// Close implements Tracker
func (c *MLflow) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
