package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
)

func TestNewServer_Addr(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 18080}
	s := NewServer(cfg, http.NewServeMux(), nil)
	assert.Equal(t, "127.0.0.1:18080", s.srv.Addr)
	assert.Equal(t, 15*time.Second, s.shutdownTimeout)
	assert.NotNil(t, s.Handler())
}

func TestServer_RunServesUntilCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	logger := testutil.NewMockLogger()
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, mux, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}

func TestServer_StopWithoutRun(t *testing.T) {
	s := NewServer(config.ServerConfig{}, http.NewServeMux(), nil)
	assert.NoError(t, s.Stop(context.Background()))
}
