package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/session"
	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeArtifactStore records uploads in memory.
type fakeArtifactStore struct {
	mu     sync.Mutex
	puts   map[string][]byte
	putErr error
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{puts: make(map[string][]byte)}
}

func (f *fakeArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[key] = data
	return nil
}

func (f *fakeArtifactStore) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	return "https://objects.test/" + key, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

// testEnv wires every handler over a scripted inference client.
type testEnv struct {
	client    *testutil.MockClient
	store     *session.MemoryStore
	artifacts *fakeArtifactStore
	engine    *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		client:    testutil.NewMockClient(),
		store:     session.NewMemoryStore(time.Hour, nil, nil),
		artifacts: newFakeArtifactStore(),
	}
	cfg := config.Default().Inference
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	gateway := prediction.NewGateway(env.client, cfg)
	normalizer := molecule.NewNormalizer()
	actions := session.NewActions(normalizer, gateway)

	mh := NewMoleculeHandler(normalizer, nil)
	ph := NewPredictionHandler(gateway)
	sh := NewSessionHandler(actions, env.store, reporting.NewExporter(env.artifacts, nil, nil), nil)

	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(middleware.RequestID())
	r.POST("/molecules/normalize", mh.Normalize)
	r.POST("/molecules/normalize/sdf", mh.NormalizeSDF)
	r.GET("/molecules/:smiles/info", mh.Info)
	r.POST("/predictions", ph.Predict)
	r.POST("/features3d", ph.Features3D)

	sg := r.Group("/session", middleware.Session(middleware.SessionConfig{}))
	sg.GET("", sh.Get)
	sg.DELETE("", sh.Delete)
	sg.POST("/molecule", sh.SubmitMolecule)
	sg.POST("/predictions", sh.RunPrediction)
	sg.POST("/features3d", sh.Compute3DFeatures)
	sg.GET("/features3d/export", sh.Export)
	env.engine = r
	return env
}

func (e *testEnv) predictReturns(v float64) {
	e.client.PredictFunc = func(ctx context.Context, req *fluoriclogppka.PredictRequest) (domain.Value, error) {
		return domain.ScalarValue(v), nil
	}
}

func (e *testEnv) predictFails(msg string) {
	e.client.PredictFunc = func(ctx context.Context, req *fluoriclogppka.PredictRequest) (domain.Value, error) {
		return domain.Value{}, errors.New(msg)
	}
}

func (e *testEnv) featuresReturn(m *domain.Features3D) {
	e.client.Features3DFunc = func(ctx context.Context, req *fluoriclogppka.Features3DRequest) (*domain.Features3D, error) {
		return m, nil
	}
}

func (e *testEnv) do(method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.HeaderSessionID, sessionID)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var env middleware.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error
}

func sampleFeatures() *domain.Features3D {
	return domain.MappingFrom(map[string]interface{}{
		"dipole_moment": 1.85,
		"sasa":          120.5,
		"homo_energy":   -0.25,
	}, "dipole_moment", "sasa", "homo_energy")
}
