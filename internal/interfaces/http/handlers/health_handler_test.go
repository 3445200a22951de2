package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthEngine(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil, NewChecker("broken", func(ctx context.Context) error {
		return errors.New("down")
	}))
	w := get(healthEngine(h), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthHandler("dev", nil,
		NewChecker("inference", func(ctx context.Context) error { return nil }),
		NewChecker("session_store", func(ctx context.Context) error { return nil }),
	)
	w := get(healthEngine(h), "/readyz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadinessResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "ready", resp.Status)
	require.Len(t, resp.Components, 2)
	assert.Equal(t, "healthy", resp.Components["inference"].Status)
}

func TestReadiness_Unhealthy(t *testing.T) {
	h := NewHealthHandler("dev", nil,
		NewChecker("inference", func(ctx context.Context) error { return errors.New("connection refused") }),
		NewChecker("session_store", func(ctx context.Context) error { return nil }),
	)
	w := get(healthEngine(h), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["inference"].Status)
	assert.Equal(t, "connection refused", resp.Components["inference"].Error)
	assert.Equal(t, "healthy", resp.Components["session_store"].Status)
}

func TestReadiness_NoCheckers(t *testing.T) {
	w := get(healthEngine(NewHealthHandler("dev", nil)), "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadiness_ConcurrentProbesShareChecks(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	h := NewHealthHandler("dev", nil, NewChecker("slow", func(ctx context.Context) error {
		calls.Add(1)
		<-release
		return nil
	}))
	r := healthEngine(h)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, get(r, "/readyz").Code)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestReadiness_CheckTimeout(t *testing.T) {
	h := NewHealthHandler("dev", nil, NewChecker("hang", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	h.timeout = 20 * time.Millisecond

	w := get(healthEngine(h), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
