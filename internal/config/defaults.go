package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultInferenceTransport = "http"
	DefaultInferenceEndpoint  = "http://localhost:8500"
	DefaultInferenceTimeout   = 60 * time.Second
	DefaultRetryBackoff       = 500 * time.Millisecond
	DefaultModelType          = "gnn"

	DefaultSessionBackend = "memory"
	DefaultSessionTTL     = 2 * time.Hour
	DefaultSessionCodec   = "json"
	DefaultSessionCookie  = "fluoro_session"
	DefaultSessionHeader  = "X-Session-ID"
	DefaultSweepSchedule  = "@every 5m"
	DefaultSessionPrefix  = "fluoro:session:"

	DefaultRedisAddr = "localhost:6379"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "fluoro-exports"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "fluoro.predictions"

	DefaultMetricsNamespace = "fluoro"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.  Values
// already set win.  inference.max_retries is left alone: zero is both the
// default and a meaningful explicit value.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Must outlive a slow descriptor computation.
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 10 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Inference ─────────────────────────────────────────────────────────────
	if cfg.Inference.Transport == "" {
		cfg.Inference.Transport = DefaultInferenceTransport
	}
	if cfg.Inference.Endpoint == "" {
		cfg.Inference.Endpoint = DefaultInferenceEndpoint
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = DefaultInferenceTimeout
	}
	if cfg.Inference.RetryBackoff == 0 {
		cfg.Inference.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Inference.ModelType == "" {
		cfg.Inference.ModelType = DefaultModelType
	}

	// ── Session ───────────────────────────────────────────────────────────────
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = DefaultSessionBackend
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.Codec == "" {
		cfg.Session.Codec = DefaultSessionCodec
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultSessionCookie
	}
	if cfg.Session.HeaderName == "" {
		cfg.Session.HeaderName = DefaultSessionHeader
	}
	if cfg.Session.SweepSchedule == "" {
		cfg.Session.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = DefaultSessionPrefix
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = "standalone"
	}
	if cfg.Redis.Addr == "" && len(cfg.Redis.Addrs) == 0 {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = time.Hour
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.Partitions <= 0 {
		cfg.Kafka.Partitions = 3
	}
	if cfg.Kafka.ReplicationFactor <= 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── CORS ──────────────────────────────────────────────────────────────────
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = 600
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config populated entirely from defaults.  Tests and the
// offline CLI commands use it.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
