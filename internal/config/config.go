// Package config provides hierarchical configuration loading for the
// realtime service. Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the realtime service.
type Config struct {
	Server   Server   `yaml:"server"`
	Broker   Broker   `yaml:"broker"`
	Postgres Postgres `yaml:"postgres"`
	Auth     Auth     `yaml:"auth"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Broker holds pub/sub broker configuration. Driver selects the adapter:
// "redis" (default) or "nats".
type Broker struct {
	Driver         string        `yaml:"driver"`
	RedisURL       string        `yaml:"redis_url"`
	NATSURL        string        `yaml:"nats_url"`
	ChannelPrefix  string        `yaml:"channel_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Postgres holds the tenant-directory connection configuration. An empty DSN
// disables the directory lookup; tokens must then carry a tenant claim.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// Auth holds token validation configuration.
type Auth struct {
	JWTSecret       string `yaml:"jwt_secret"`
	ClaimsCacheSize int64  `yaml:"claims_cache_size"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Broker: Broker{
			Driver:         "redis",
			RedisURL:       "redis://localhost:6379/0",
			NATSURL:        "nats://localhost:4222",
			ChannelPrefix:  "elevatecrm",
			ConnectTimeout: 5 * time.Second,
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Auth: Auth{
			JWTSecret:     "dev-secret-change-me",
			ClaimsCacheSize: 4096,
		},
		Logging: Logging{
			Level:   "info",
			Service: "realtime",
		},
	}
}
