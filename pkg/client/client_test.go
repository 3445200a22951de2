package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("http://studio.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://studio.example.com", c.baseURL)
	assert.Equal(t, 2, c.retryMax)
	assert.Contains(t, c.userAgent, "fluoro-go-sdk/")
	assert.Empty(t, c.SessionID())
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url", "http://[::1"} {
		_, err := NewClient(u)
		assert.ErrorIs(t, err, ErrInvalidConfig, u)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	custom := &http.Client{Timeout: 10 * time.Second}
	c, err := NewClient("http://studio.example.com",
		WithHTTPClient(custom),
		WithRetryMax(5),
		WithRetryWait(time.Second, 500*time.Millisecond),
		WithUserAgent("notebook/1.0"),
		WithSessionID("pinned"),
	)
	require.NoError(t, err)
	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax, "max below min is ignored")
	assert.Equal(t, "notebook/1.0", c.userAgent)
	assert.Equal(t, "pinned", c.SessionID())

	c, err = NewClient("http://studio.example.com", WithRetryMax(-1), WithUserAgent(""), WithHTTPClient(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, c.retryMax)
	assert.NotEmpty(t, c.userAgent)
	assert.NotNil(t, c.httpClient)
}

func TestCalculateBackoff(t *testing.T) {
	c, _ := NewClient("http://studio.example.com", WithRetryWait(100*time.Millisecond, 300*time.Millisecond))
	b1 := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, b1, 100*time.Millisecond)
	assert.Less(t, b1, 125*time.Millisecond)
	b5 := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, b5, 300*time.Millisecond)
	assert.Less(t, b5, 375*time.Millisecond)
}

// ---------------------------------------------------------------------------
// HTTP Execution Tests
// ---------------------------------------------------------------------------

func TestClient_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "fluoro-go-sdk/")
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		assert.Empty(t, r.Header.Get(HeaderSessionID), "stateless calls carry no session")
		writeJSON(w, http.StatusOK, `{"data":{"smiles":"CCO","method":"SMILES"}}`)
	}, WithSessionID("s1"))

	res, err := c.Normalize(context.Background(), NormalizeRequest{SMILES: "OCC"})
	require.NoError(t, err)
	assert.Equal(t, "CCO", res.SMILES)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity,
			`{"error":{"code":"MOL_001","message":"Please enter a valid molecule","detail":"C1CC","request_id":"srv-1"}}`)
	})

	_, err := c.MoleculeInfo(context.Background(), "C1CC")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "MOL_001", apiErr.Code)
	assert.Equal(t, "Please enter a valid molecule", apiErr.Message)
	assert.Equal(t, "C1CC", apiErr.Detail)
	assert.Equal(t, "srv-1", apiErr.RequestID)
	assert.True(t, apiErr.IsClientError())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, apiErr.Error(), "MOL_001 (HTTP 422)")
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 page not found"))
	})

	_, err := c.Session(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "404 page not found", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_NoRetryOnInferenceFailure(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadGateway, `{"error":{"code":"AI_002","message":"Error performing prediction: boom"}}`)
	})

	_, err := c.Predict(context.Background(), PredictRequest{SMILES: "CCO"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetriesUnavailable(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		assert.JSONEq(t, `{"smiles":"CCO","target":"logP"}`, string(body), "body is resent on retry")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"value":"1.0000","headline":"logP: 1.0000","result":{"success":true}}}`)
	})

	res, err := c.Predict(context.Background(), PredictRequest{SMILES: "CCO", Target: TargetLogP})
	require.NoError(t, err)
	assert.Equal(t, "logP: 1.0000", res.Headline)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}, WithRetryMax(1))

	_, err := c.Session(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_RetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{}}`)
	})

	_, err := c.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Session(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestClient_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":`)
	})
	_, err := c.Session(context.Background())
	assert.Error(t, err)
}
