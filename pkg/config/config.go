package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apidockhq/apidock/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Reputation engine configuration
	Reputation ReputationConfig

	// Notification configuration
	Notify NotifyConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds SQL database configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver string
	// DSN is the connection string for postgres, or the file path for sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds the optional Redis score cache configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ReputationConfig holds reputation engine settings
type ReputationConfig struct {
	// PolicyFile is an optional YAML file overriding point values,
	// tier thresholds, and edit quotas. Watched for changes at runtime.
	PolicyFile string
	// ReconcileSchedule is a cron expression for the score
	// reconciliation job; empty disables it.
	ReconcileSchedule string
	CacheTTL          time.Duration
	L1CacheSize       int
}

// NotifyConfig holds notification delivery settings
type NotifyConfig struct {
	WebhookURL    string
	WebhookSecret string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Reputation:    loadReputationConfig(),
		Notify:        loadNotifyConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("APIDOCK_HOST", "0.0.0.0"),
		Port:            getEnv("APIDOCK_PORT", "8080"),
		ReadTimeout:     getEnvDuration("APIDOCK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("APIDOCK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("APIDOCK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("APIDOCK_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("APIDOCK_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:       getEnv("APIDOCK_DB_DRIVER", "sqlite"),
		DSN:          getEnv("APIDOCK_DB_DSN", "apidock.db"),
		MaxOpenConns: getEnvInt("APIDOCK_DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvInt("APIDOCK_DB_MAX_IDLE_CONNS", 5),
	}
}

// loadRedisConfig loads Redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  getEnvBool("APIDOCK_REDIS_ENABLED", false),
		Addr:     getEnv("APIDOCK_REDIS_ADDR", "localhost:6379"),
		Password: getEnv("APIDOCK_REDIS_PASSWORD", ""),
		DB:       getEnvInt("APIDOCK_REDIS_DB", 0),
	}
}

// loadReputationConfig loads reputation engine settings from environment
func loadReputationConfig() ReputationConfig {
	return ReputationConfig{
		PolicyFile:        getEnv("APIDOCK_POLICY_FILE", ""),
		ReconcileSchedule: getEnv("APIDOCK_RECONCILE_SCHEDULE", "0 3 * * *"),
		CacheTTL:          getEnvDuration("APIDOCK_SCORE_CACHE_TTL", 5*time.Minute),
		L1CacheSize:       getEnvInt("APIDOCK_L1_CACHE_SIZE", 1024),
	}
}

// loadNotifyConfig loads notification settings from environment
func loadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		WebhookURL:    getEnv("APIDOCK_WEBHOOK_URL", ""),
		WebhookSecret: getEnv("APIDOCK_WEBHOOK_SECRET", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("APIDOCK_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("APIDOCK_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("APIDOCK_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("APIDOCK_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("APIDOCK_OTEL_SERVICE_NAME", "apidock"),
		OTelServiceVersion: getEnv("APIDOCK_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("APIDOCK_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite)", c.Database.Driver)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Notify.WebhookURL != "" && !strings.HasPrefix(c.Notify.WebhookURL, "http") {
		return fmt.Errorf("webhook URL must be an http(s) URL")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
