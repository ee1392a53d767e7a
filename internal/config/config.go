// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeout is the default HTTP read timeout.
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default HTTP write timeout.
	DefaultWriteTimeout = 30 * time.Second
	// DefaultPollInterval is the default publish worker poll interval.
	DefaultPollInterval = 30 * time.Second
	// DefaultBatchSize is the default number of ideas the worker claims per poll.
	DefaultBatchSize = 10
	// DefaultDedupTTL is how long duplicate-publication cache keys live in Redis.
	DefaultDedupTTL = 7 * 24 * time.Hour
)

// Config holds the full service configuration.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `yaml:"address"`       // e.g., ":8090"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // Default: 30s
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis connection settings for the dedup cache,
// channel metrics, and the pub/sub publisher.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WorkerConfig holds publish worker settings.
type WorkerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Channels     []string      `yaml:"channels"` // Channels the worker publishes to
	DedupTTL     time.Duration `yaml:"dedup_ttl"`
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Worker.Enabled && len(c.Worker.Channels) == 0 {
		return errors.New("worker.channels is required when worker.enabled is true")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be positive, got %v", c.Worker.PollInterval)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8090"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = DefaultPollInterval
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = DefaultBatchSize
	}
	if cfg.Worker.DedupTTL == 0 {
		cfg.Worker.DedupTTL = DefaultDedupTTL
	}
}

// overrideWithEnvVars overrides configuration with environment variables.
func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("CONTENTQ_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("CONTENTQ_DB_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("CONTENTQ_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("CONTENTQ_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("CONTENTQ_DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("CONTENTQ_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CONTENTQ_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
}

// loadEnvFiles loads .env files before environment overrides are applied.
// ENV_FILE takes priority; otherwise .env is loaded if present.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the YAML configuration at path, applies defaults, .env files,
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses common boolean string representations.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
