package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "FLUORO"

// envBoundKeys lists keys that must resolve from the environment even when no
// config file mentions them.  viper's AutomaticEnv only consults env vars for
// keys it already knows about during Unmarshal.
var envBoundKeys = []string{
	"server.host", "server.port", "server.mode",
	"log.level", "log.format", "log.output",
	"inference.transport", "inference.endpoint", "inference.timeout",
	"inference.max_retries", "inference.model_type", "inference.conformers_limit",
	"session.backend", "session.ttl", "session.codec",
	"redis.addr", "redis.password", "redis.db",
	"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket",
	"kafka.enabled", "kafka.brokers", "kafka.topic",
	"kafka.sasl_mechanism", "kafka.sasl_username", "kafka.sasl_password",
	"metrics.enabled",
}

// newViper builds a Viper instance with YAML file type, the FLUORO_ env
// prefix, automatic env binding and a "." → "_" key replacer, so that
// "inference.endpoint" resolves to FLUORO_INFERENCE_ENDPOINT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envBoundKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges FLUORO_* overrides, applies
// defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from FLUORO_* environment variables and
// defaults, with no config file.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrEnv loads configPath when non-empty and falls back to LoadFromEnv.
func LoadOrEnv(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the re-parsed Config
// after each write.  Only settings that are safe to change at runtime (the
// log level) should be applied by callers.  Invalid edits are reported to
// onError and otherwise ignored.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config: reload of %s rejected: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on error.  main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
