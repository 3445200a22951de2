package fluoriclogppka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// HTTP routes on the collaborator.
const (
	PredictPath    = "/v1/predict"
	Features3DPath = "/v1/features3d"
	HealthPath     = "/healthz"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     logging.Logger
	closed     atomic.Bool
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*httpClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *httpClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds each exchange.  Zero keeps the default.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(c *httpClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewHTTPClient creates a JSON/HTTP client for baseURL.
func NewHTTPClient(baseURL string, logger logging.Logger, opts ...HTTPOption) (Client, error) {
	if baseURL == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "inference endpoint is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "inference endpoint must be an http(s) URL").
			WithDetail(baseURL)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &httpClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		userAgent:  "fluoriclogppka-studio",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *httpClient) Predict(ctx context.Context, req *PredictRequest) (prediction.Value, error) {
	if err := req.validate(); err != nil {
		return prediction.Value{}, err
	}
	envelope, err := c.post(ctx, PredictPath, req)
	if err != nil {
		return prediction.Value{}, err
	}
	raw, ok := envelope.Get("result")
	if !ok {
		return prediction.Value{}, apperrors.New(apperrors.ErrCodeAIInferenceFailed, "malformed inference response").
			WithDetail(`missing "result"`)
	}
	return prediction.ValueOf(raw), nil
}

func (c *httpClient) Features3D(ctx context.Context, req *Features3DRequest) (*prediction.Features3D, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	envelope, err := c.post(ctx, Features3DPath, req)
	if err != nil {
		return nil, err
	}
	raw, _ := envelope.Get("features")
	switch f := raw.(type) {
	case *prediction.Mapping:
		return f, nil
	case nil:
		return prediction.NewMapping(), nil
	}
	return nil, apperrors.New(apperrors.ErrCodeAIFeatures3DFailed, "malformed descriptor response").
		WithDetail(fmt.Sprintf(`"features" is %s, expected an object`, prediction.TypeName(raw)))
}

func (c *httpClient) Healthy(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build health request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return deadlineError(ctx, err, "GET "+HealthPath)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 300 {
		return apperrors.New(apperrors.ErrCodeAIModelNotAvailable, "inference service unhealthy").
			WithDetail(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	return nil
}

func (c *httpClient) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// post sends body as JSON and decodes the response object keeping key order.
func (c *httpClient) post(ctx context.Context, path string, body interface{}) (*prediction.Mapping, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode inference request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build inference request")
	}
	rid := requestID(ctx)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", rid)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("inference request failed",
			logging.String("path", path),
			logging.String(logging.FieldRequestID, rid),
			logging.Err(err))
		return nil, deadlineError(ctx, err, "POST "+path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, deadlineError(ctx, err, "read "+path)
	}
	c.logger.Debug("inference response",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)),
		logging.String(logging.FieldRequestID, rid))

	if resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, data)
	}

	var envelope prediction.Mapping
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAIInferenceFailed, "malformed inference response")
	}
	return &envelope, nil
}

// statusError turns a non-2xx response into an AppError whose message is the
// collaborator's own error text.
func statusError(code int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(code)
	}
	var ec apperrors.ErrorCode
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		ec = apperrors.ErrCodeAITimeout
	case code == http.StatusTooManyRequests || code == http.StatusBadGateway || code == http.StatusServiceUnavailable:
		ec = apperrors.ErrCodeAIModelNotAvailable
	case code >= 400 && code < 500:
		ec = apperrors.ErrCodeAIInputInvalid
	default:
		ec = apperrors.ErrCodeAIInferenceFailed
	}
	return apperrors.New(ec, msg).WithDetail(fmt.Sprintf("HTTP %d", code))
}

// errorMessage extracts {"error": "..."} or {"error": {"message": "..."}},
// falling back to the trimmed body.
func errorMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Error) > 0 {
		var s string
		if json.Unmarshal(env.Error, &s) == nil {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
