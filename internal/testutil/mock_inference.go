package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
)

var _ fluoriclogppka.Client = (*MockClient)(nil)

// MockClient is a scriptable fluoriclogppka.Client.  Unset funcs return an empty
// success.  Every request is recorded.
type MockClient struct {
	PredictFunc    func(ctx context.Context, req *fluoriclogppka.PredictRequest) (prediction.Value, error)
	Features3DFunc func(ctx context.Context, req *fluoriclogppka.Features3DRequest) (*prediction.Features3D, error)
	HealthyFunc    func(ctx context.Context) error

	mu              sync.Mutex
	predictCalls    []fluoriclogppka.PredictRequest
	features3DCalls []fluoriclogppka.Features3DRequest
	closed          bool
}

// NewMockClient returns a MockClient with no scripted behaviour.
func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Predict(ctx context.Context, req *fluoriclogppka.PredictRequest) (prediction.Value, error) {
	m.mu.Lock()
	if req != nil {
		m.predictCalls = append(m.predictCalls, *req)
	}
	m.mu.Unlock()
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, req)
	}
	return prediction.Value{}, nil
}

func (m *MockClient) Features3D(ctx context.Context, req *fluoriclogppka.Features3DRequest) (*prediction.Features3D, error) {
	m.mu.Lock()
	if req != nil {
		m.features3DCalls = append(m.features3DCalls, *req)
	}
	m.mu.Unlock()
	if m.Features3DFunc != nil {
		return m.Features3DFunc(ctx, req)
	}
	return prediction.NewMapping(), nil
}

func (m *MockClient) Healthy(ctx context.Context) error {
	if m.HealthyFunc != nil {
		return m.HealthyFunc(ctx)
	}
	return nil
}

func (m *MockClient) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// PredictCalls returns the recorded Predict requests.
func (m *MockClient) PredictCalls() []fluoriclogppka.PredictRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fluoriclogppka.PredictRequest(nil), m.predictCalls...)
}

// Features3DCalls returns the recorded Features3D requests.
func (m *MockClient) Features3DCalls() []fluoriclogppka.Features3DRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fluoriclogppka.Features3DRequest(nil), m.features3DCalls...)
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
