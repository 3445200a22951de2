package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 8080
  mode: "debug"
log:
  level: "debug"
  format: "console"
inference:
  transport: "http"
  endpoint: "http://inference:8500"
  timeout: 45s
  model_type: "gnn"
  conformers_limit: 10
session:
  backend: "redis"
  codec: "msgpack"
  ttl: 30m
redis:
  addr: "redis:6379"
  db: 2
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: "fluoro.events"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "http://inference:8500", cfg.Inference.Endpoint)
	assert.Equal(t, 45*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 10, cfg.Inference.ConformersLimit)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "msgpack", cfg.Session.Codec)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	// defaults still fill untouched sections
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "inference:\n  transport: carrier-pigeon\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("FLUORO_SERVER_PORT", "9999")
	t.Setenv("FLUORO_INFERENCE_ENDPOINT", "http://override:1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://override:1234", cfg.Inference.Endpoint)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FLUORO_INFERENCE_TRANSPORT", "grpc")
	t.Setenv("FLUORO_INFERENCE_ENDPOINT", "inference:9000")
	t.Setenv("FLUORO_INFERENCE_MAX_RETRIES", "2")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "grpc", cfg.Inference.Transport)
	assert.Equal(t, "inference:9000", cfg.Inference.Endpoint)
	assert.Equal(t, 2, cfg.Inference.MaxRetries)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadOrEnv_EmptyPathUsesEnv(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInferenceEndpoint, cfg.Inference.Endpoint)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestWatch_InvokesCallbackOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 1)
	Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil)

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	updated := validConfigYAML + "\nmetrics:\n  namespace: \"reloaded\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case c := <-changed:
		assert.Equal(t, "reloaded", c.Metrics.Namespace)
	case <-time.After(3 * time.Second):
		t.Skip("filesystem notifications not delivered in this environment")
	}
}
