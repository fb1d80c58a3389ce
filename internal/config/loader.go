package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "roadmap.yaml"

// Load returns a Config from DefaultConfigFile, if present, and the
// environment.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config using the hierarchy defaults < YAML < ENV. A
// missing YAML file is not an error.
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

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
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

// loadEnv overlays non-empty environment variables onto cfg.
func loadEnv(cfg *Config) {
	setString(&cfg.Local.Path, "ROADMAP_DB")
	setString(&cfg.Cloud.DSN, "DATABASE_URL")
	setDuration(&cfg.Cloud.ConnectTimeout, "ROADMAP_CLOUD_CONNECT_TIMEOUT")
	setInt32(&cfg.Cloud.MaxConns, "ROADMAP_PG_MAX_CONNS")
	setInt(&cfg.Breaker.MaxFailures, "ROADMAP_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ROADMAP_BREAKER_TIMEOUT")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "ROADMAP_NATS_SUBJECT")
	setString(&cfg.Server.Addr, "ROADMAP_ADDR")
	setInt64(&cfg.Cache.MaxItems, "ROADMAP_CACHE_MAX_ITEMS")
	setString(&cfg.Logging.Level, "ROADMAP_LOG_LEVEL")
	setString(&cfg.Logging.Format, "ROADMAP_LOG_FORMAT")
	if v := os.Getenv("ROADMAP_RESOURCING_YEARS"); v != "" {
		cfg.Resourcing.Years = splitList(v)
	}
}

func validate(cfg *Config) error {
	if cfg.Local.Path == "" {
		return errors.New("local.path is required")
	}
	if cfg.Cloud.Enabled() && cfg.Cloud.ConnectTimeout <= 0 {
		return errors.New("cloud.connect_timeout must be positive")
	}
	if cfg.Cloud.Enabled() && cfg.Cloud.HealthCheck <= 0 {
		return errors.New("cloud.health_check must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Cache.MaxItems < 1 {
		return errors.New("cache.max_items must be >= 1")
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
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
