// Package config loads runtime configuration for the roadmap tool.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Local      Local      `yaml:"local"`
	Cloud      Cloud      `yaml:"cloud"`
	Breaker    Breaker    `yaml:"breaker"`
	NATS       NATS       `yaml:"nats"`
	Server     Server     `yaml:"server"`
	Cache      Cache      `yaml:"cache"`
	Logging    Logging    `yaml:"logging"`
	Resourcing Resourcing `yaml:"resourcing"`
}

// Local is the SQLite document store.
type Local struct {
	Path string `yaml:"path"`
}

// Cloud is the PostgreSQL document store. An empty DSN disables it.
type Cloud struct {
	DSN             string        `yaml:"dsn"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Enabled reports whether a cloud store is configured.
func (c Cloud) Enabled() bool { return c.DSN != "" }

// Breaker guards cloud calls after startup.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NATS carries change notifications between running instances. An empty URL
// disables them.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Cache sizes the in-process hierarchy cache.
type Cache struct {
	MaxItems int64 `yaml:"max_items"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Resourcing seeds the personnel plan when nothing has been saved yet.
type Resourcing struct {
	Years []string `yaml:"years"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Local: Local{Path: defaultDBPath()},
		Cloud: Cloud{
			ConnectTimeout:  5 * time.Second,
			MaxConns:        4,
			MinConns:        0,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Breaker: Breaker{
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		},
		NATS: NATS{Subject: "roadmap.changes"},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache:      Cache{MaxItems: 64},
		Logging:    Logging{Level: "info", Format: "text"},
		Resourcing: Resourcing{Years: []string{"2026", "2027", "2028"}},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".roadmap", "roadmap.db")
	}
	return filepath.Join(home, ".roadmap", "roadmap.db")
}
