// Package config defines the configuration structures for the fluoriclogppka
// studio.  No I/O or parsing logic lives here; only plain data types and
// validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level        string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format       string `mapstructure:"format"` // "json" | "console"
	Output       string `mapstructure:"output"` // "stdout" | "stderr" | file path
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// ToLogging converts the section into the logger's own construction config.
func (l LogConfig) ToLogging() logging.LogConfig {
	out := l.Output
	if out == "" {
		out = "stdout"
	}
	return logging.LogConfig{
		Level:        l.Level,
		Format:       l.Format,
		OutputPaths:  []string{out},
		EnableCaller: l.EnableCaller,
	}
}

// InferenceConfig describes how the external fluoriclogppka collaborator is
// reached.
type InferenceConfig struct {
	Transport       string        `mapstructure:"transport"` // "http" | "grpc"
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	ModelType       string        `mapstructure:"model_type"`
	ConformersLimit int           `mapstructure:"conformers_limit"` // 0 means unlimited
	Insecure        bool          `mapstructure:"insecure"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// SessionConfig controls where session state lives.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory" | "redis"
	TTL           time.Duration `mapstructure:"ttl"`
	Codec         string        `mapstructure:"codec"` // "json" | "msgpack"
	CookieName    string        `mapstructure:"cookie_name"`
	HeaderName    string        `mapstructure:"header_name"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "sentinel" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig holds object-storage parameters for feature exports.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// KafkaConfig holds prediction-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"`
	Compression  string        `mapstructure:"compression"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// CreateTopic makes the producer create Topic at startup when missing.
	CreateTopic       bool `mapstructure:"create_topic"`
	Partitions        int  `mapstructure:"partitions"`
	ReplicationFactor int  `mapstructure:"replication_factor"`

	SASLMechanism string `mapstructure:"sasl_mechanism"` // "" | "PLAIN" | "SCRAM-SHA-256" | "SCRAM-SHA-512"
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAFile     string `mapstructure:"tls_ca_file"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// CORSConfig holds cross-origin settings for browser front ends.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Inference InferenceConfig `mapstructure:"inference"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	switch c.Inference.Transport {
	case "http", "grpc":
	default:
		return fmt.Errorf("config: inference.transport %q is invalid; expected http|grpc", c.Inference.Transport)
	}
	if c.Inference.Endpoint == "" {
		return fmt.Errorf("config: inference.endpoint is required")
	}
	if c.Inference.Transport == "http" && !strings.HasPrefix(c.Inference.Endpoint, "http://") &&
		!strings.HasPrefix(c.Inference.Endpoint, "https://") {
		return fmt.Errorf("config: inference.endpoint %q must be an http(s) URL for the http transport", c.Inference.Endpoint)
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("config: inference.timeout must be > 0")
	}
	if c.Inference.MaxRetries < 0 {
		return fmt.Errorf("config: inference.max_retries must be ≥ 0, got %d", c.Inference.MaxRetries)
	}
	if c.Inference.ConformersLimit < 0 {
		return fmt.Errorf("config: inference.conformers_limit must be ≥ 0, got %d", c.Inference.ConformersLimit)
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config: redis.addr is required when session.backend is redis")
		}
	default:
		return fmt.Errorf("config: session.backend %q is invalid; expected memory|redis", c.Session.Backend)
	}
	switch c.Session.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("config: session.codec %q is invalid; expected json|msgpack", c.Session.Codec)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session.ttl must be > 0")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required when minio is enabled")
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
		switch c.Kafka.SASLMechanism {
		case "", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("config: kafka.sasl_mechanism %q is invalid", c.Kafka.SASLMechanism)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
