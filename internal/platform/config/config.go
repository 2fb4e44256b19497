package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for company and onboarding records.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageREST     = "rest"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string        `yaml:"addr"`
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	SubmitTimeout time.Duration `yaml:"submit_timeout"`
}

// DatabaseConfig selects the relational backend.
type DatabaseConfig struct {
	Backend string `yaml:"backend"`
	URL     string `yaml:"url"`
	// Driver is the database/sql driver name: "pgx" or "postgres" (lib/pq).
	Driver       string `yaml:"driver"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RESTConfig points at a PostgREST-compatible hosted backend.
type RESTConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig configures the draft slot store. Empty URL means in-memory slots.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	DraftTTL     time.Duration `yaml:"draft_ttl"`
}

// AuditConfig configures the Kafka fan-out of history events. No brokers disables it.
type AuditConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Buffer  int      `yaml:"buffer"`
}

// Config is the full service configuration.
type Config struct {
	Server   Server         `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	REST     RESTConfig     `yaml:"rest"`
	Redis    RedisConfig    `yaml:"redis"`
	Audit    AuditConfig    `yaml:"audit"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8080",
			JWTSigningKey: "dev-secret-key-change-in-production",
			JWTIssuer:     "empresaflow",
			SubmitTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Backend:      StorageMemory,
			Driver:       "pgx",
			MaxOpenConns: 10,
		},
		REST: RESTConfig{Timeout: 10 * time.Second},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			DraftTTL:     30 * 24 * time.Hour,
		},
		Audit: AuditConfig{Topic: "empresaflow.history", Buffer: 256},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any),
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads the configuration using EMPRESAFLOW_CONFIG as the optional file path.
func FromEnv() (Config, error) {
	return Load(os.Getenv("EMPRESAFLOW_CONFIG"))
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "EMPRESAFLOW_ADDR")
	setString(&cfg.Server.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.Server.JWTIssuer, "JWT_ISSUER")
	setString(&cfg.Database.Backend, "STORAGE_BACKEND")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.REST.BaseURL, "REST_BASE_URL")
	setString(&cfg.REST.APIKey, "REST_API_KEY")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Audit.Topic, "AUDIT_TOPIC")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Audit.Brokers = splitList(v)
	}
	if err := setDuration(&cfg.Server.SubmitTimeout, "SUBMIT_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&cfg.Redis.DraftTTL, "DRAFT_TTL")
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database url is required for the postgres backend"))
		}
		if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
			errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
		}
	case StorageREST:
		if c.REST.BaseURL == "" {
			errs = append(errs, errors.New("rest base url is required for the rest backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Database.Backend))
	}
	if c.Server.SubmitTimeout <= 0 {
		errs = append(errs, errors.New("submit timeout must be positive"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	if len(c.Audit.Brokers) > 0 && c.Audit.Topic == "" {
		errs = append(errs, errors.New("audit topic is required when kafka brokers are set"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
