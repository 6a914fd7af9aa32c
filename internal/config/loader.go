package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "realtime.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "REALTIME_PORT")
	setString(&cfg.Server.CORSOrigin, "REALTIME_CORS_ORIGIN")
	setString(&cfg.Broker.Driver, "REALTIME_BROKER_DRIVER")
	setString(&cfg.Broker.RedisURL, "REDIS_URL")
	setString(&cfg.Broker.NATSURL, "NATS_URL")
	setString(&cfg.Broker.ChannelPrefix, "REALTIME_CHANNEL_PREFIX")
	setDuration(&cfg.Broker.ConnectTimeout, "REALTIME_BROKER_CONNECT_TIMEOUT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "REALTIME_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "REALTIME_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "REALTIME_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "REALTIME_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.Auth.JWTSecret, "REALTIME_JWT_SECRET")
	setInt64(&cfg.Auth.ClaimsCacheSize, "REALTIME_CLAIMS_CACHE_SIZE")
	setString(&cfg.Logging.Level, "REALTIME_LOG_LEVEL")
	setString(&cfg.Logging.Service, "REALTIME_LOG_SERVICE")
}

// validate rejects configurations the service cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	switch cfg.Broker.Driver {
	case "redis", "nats":
	default:
		return fmt.Errorf("broker.driver must be redis or nats, got %q", cfg.Broker.Driver)
	}
	if cfg.Broker.ConnectTimeout <= 0 {
		return errors.New("broker.connect_timeout must be positive")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
