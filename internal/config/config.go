package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Results ResultsConfig `yaml:"results"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int    `yaml:"port"`
	Host           string `yaml:"host"`
	GinMode        string `yaml:"gin_mode"`
	AllowedOrigins string `yaml:"allowed_origins"`
	AllowedMethods string `yaml:"allowed_methods"`
	AllowedHeaders string `yaml:"allowed_headers"`
	WebDir         string `yaml:"web_dir"`
}

// BackendConfig points at the recommendation backend
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	RecommendTimeout int    `yaml:"recommend_timeout"` // seconds
	ChatTimeout      int    `yaml:"chat_timeout"`      // seconds
	MetaTimeout      int    `yaml:"meta_timeout"`      // seconds
	TopN             int    `yaml:"topn"`
}

// StorageConfig selects where conversations are persisted
type StorageConfig struct {
	Driver             string `yaml:"driver"` // memory, sqlite, postgres, redis
	DSN                string `yaml:"dsn"`
	RedisURL           string `yaml:"redis_url"`
	RedisPrefix        string `yaml:"redis_prefix"`
	TTLHours           int    `yaml:"ttl_hours"`
	MaxConnections     int    `yaml:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections"`
}

// SessionConfig holds the browser session cookie settings
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Secure     bool   `yaml:"secure"`
}

// ResultsConfig holds match percentage display settings
type ResultsConfig struct {
	FloorPct    float64 `yaml:"floor_pct"`
	CeilPct     float64 `yaml:"ceil_pct"`
	TightSpread float64 `yaml:"tight_spread"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			GinMode:        "release",
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,PUT,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,Authorization",
			WebDir:         "./cmd/server/web",
		},
		Backend: BackendConfig{
			BaseURL:          "http://localhost:8000",
			RecommendTimeout: 20,
			ChatTimeout:      60,
			MetaTimeout:      10,
			TopN:             18,
		},
		Storage: StorageConfig{
			Driver:             "memory",
			RedisPrefix:        "vroom:",
			TTLHours:           24 * 30,
			MaxConnections:     10,
			MaxIdleConnections: 2,
		},
		Session: SessionConfig{
			CookieName: "vroom_sid",
			MaxAgeDays: 30,
		},
		Results: ResultsConfig{
			FloorPct:    75,
			CeilPct:     99,
			TightSpread: 0.01,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from an optional YAML file (VROOM_CONFIG) and then
// environment variables, which take precedence.
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	return LoadFile(os.Getenv("VROOM_CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server = ServerConfig{
		Port:           getEnvAsInt("SERVER_PORT", cfg.Server.Port),
		Host:           getEnv("SERVER_HOST", cfg.Server.Host),
		GinMode:        getEnv("GIN_MODE", cfg.Server.GinMode),
		AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins),
		AllowedMethods: getEnv("CORS_ALLOWED_METHODS", cfg.Server.AllowedMethods),
		AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", cfg.Server.AllowedHeaders),
		WebDir:         getEnv("WEB_DIR", cfg.Server.WebDir),
	}
	cfg.Backend = BackendConfig{
		BaseURL:          strings.TrimRight(getEnv("BACKEND_BASE_URL", getEnv("NEXT_PUBLIC_API_BASE", cfg.Backend.BaseURL)), "/"),
		RecommendTimeout: getEnvAsInt("BACKEND_RECOMMEND_TIMEOUT", cfg.Backend.RecommendTimeout),
		ChatTimeout:      getEnvAsInt("BACKEND_CHAT_TIMEOUT", cfg.Backend.ChatTimeout),
		MetaTimeout:      getEnvAsInt("BACKEND_META_TIMEOUT", cfg.Backend.MetaTimeout),
		TopN:             getEnvAsInt("RECOMMEND_TOPN", cfg.Backend.TopN),
	}
	cfg.Storage = StorageConfig{
		Driver:             strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver)),
		DSN:                getEnv("DATABASE_URL", getEnv("STORAGE_DSN", cfg.Storage.DSN)),
		RedisURL:           getEnv("REDIS_URL", cfg.Storage.RedisURL),
		RedisPrefix:        getEnv("REDIS_PREFIX", cfg.Storage.RedisPrefix),
		TTLHours:           getEnvAsInt("STORAGE_TTL_HOURS", cfg.Storage.TTLHours),
		MaxConnections:     getEnvAsInt("STORAGE_MAX_CONNECTIONS", cfg.Storage.MaxConnections),
		MaxIdleConnections: getEnvAsInt("STORAGE_MAX_IDLE_CONNECTIONS", cfg.Storage.MaxIdleConnections),
	}
	cfg.Session = SessionConfig{
		CookieName: getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName),
		MaxAgeDays: getEnvAsInt("SESSION_MAX_AGE_DAYS", cfg.Session.MaxAgeDays),
		Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", cfg.Session.Secure),
	}
	cfg.Results = ResultsConfig{
		FloorPct:    getEnvAsFloat("RESULTS_FLOOR_PCT", cfg.Results.FloorPct),
		CeilPct:     getEnvAsFloat("RESULTS_CEIL_PCT", cfg.Results.CeilPct),
		TightSpread: getEnvAsFloat("RESULTS_TIGHT_SPREAD", cfg.Results.TightSpread),
	}
	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", cfg.Logging.Level),
		Format: getEnv("LOG_FORMAT", cfg.Logging.Format),
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if c.Backend.RecommendTimeout <= 0 {
		return fmt.Errorf("backend recommend timeout must be positive")
	}
	if c.Backend.TopN <= 0 {
		return fmt.Errorf("topn must be positive")
	}
	if c.Results.FloorPct >= c.Results.CeilPct {
		return fmt.Errorf("results floor (%.0f) must be below ceil (%.0f)", c.Results.FloorPct, c.Results.CeilPct)
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s requires a DSN", c.Storage.Driver)
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage driver redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	return nil
}

// RecommendTimeoutDuration returns the client-side deadline for a recommendation request
func (c *BackendConfig) RecommendTimeoutDuration() time.Duration {
	return time.Duration(c.RecommendTimeout) * time.Second
}

// ChatTimeoutDuration returns the client-side deadline for a chat turn
func (c *BackendConfig) ChatTimeoutDuration() time.Duration {
	return time.Duration(c.ChatTimeout) * time.Second
}

// MetaTimeoutDuration returns the client-side deadline for a meta fetch
func (c *BackendConfig) MetaTimeoutDuration() time.Duration {
	return time.Duration(c.MetaTimeout) * time.Second
}

// TTL returns how long an idle conversation is kept
func (c *StorageConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
