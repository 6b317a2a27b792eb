package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"dormhub-backend/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Redis       RedisConfig       `yaml:"redis"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Log         LogConfig         `yaml:"log"`
	Reservation ReservationConfig `yaml:"reservation"`
	Quota       QuotaConfig       `yaml:"quota"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Outbox      OutboxConfig      `yaml:"outbox"`
}

// ServerConfig contains the HTTP API and gRPC health listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains the shared secret of the identity service
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type RedisConfig struct {
	URL                   string `yaml:"url"`
	IdempotencyTTLSeconds int    `yaml:"idempotency_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// ReservationConfig tunes the expiry sweep. The hold length itself is fixed at 48h.
type ReservationConfig struct {
	ExpireBatchSize int `yaml:"expire_batch_size"`
}

// QuotaConfig contains the free tier ceilings
type QuotaConfig struct {
	FreeFavorites    int `yaml:"free_favorites"`
	FreeReservations int `yaml:"free_reservations"`
}

// SchedulerConfig contains cron schedule settings (seconds precision, UTC)
type SchedulerConfig struct {
	ExpireReservations string `yaml:"expire_reservations"`
	DispatchOutbox     string `yaml:"dispatch_outbox"`
}

type OutboxConfig struct {
	BatchSize            int `yaml:"batch_size"`
	StaleAfterSeconds    int `yaml:"stale_after_seconds"`
	MaxRetryDelaySeconds int `yaml:"max_retry_delay_seconds"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory is loaded first so its values can override the file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Brokers
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Broker defaults
	if c.Redis.IdempotencyTTLSeconds <= 0 {
		c.Redis.IdempotencyTTLSeconds = 24 * 60 * 60
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "rental_events"
	}

	// Quota defaults
	if c.Quota.FreeFavorites <= 0 {
		c.Quota.FreeFavorites = domain.DefaultQuotaLimits.Favorites
	}
	if c.Quota.FreeReservations <= 0 {
		c.Quota.FreeReservations = domain.DefaultQuotaLimits.Reservations
	}

	if c.Reservation.ExpireBatchSize <= 0 {
		c.Reservation.ExpireBatchSize = 500
	}

	// Scheduler defaults
	if c.Scheduler.ExpireReservations == "" {
		c.Scheduler.ExpireReservations = "0 * * * * *" // every minute
	}
	if c.Scheduler.DispatchOutbox == "" {
		c.Scheduler.DispatchOutbox = "*/5 * * * * *" // every 5 seconds
	}

	// Outbox defaults
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.StaleAfterSeconds <= 0 {
		c.Outbox.StaleAfterSeconds = 60
	}
	if c.Outbox.MaxRetryDelaySeconds <= 0 {
		c.Outbox.MaxRetryDelaySeconds = 300
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP API address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the health server address, empty when disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

func (c *Config) QuotaLimits() domain.QuotaLimits {
	return domain.QuotaLimits{
		Favorites:    c.Quota.FreeFavorites,
		Reservations: c.Quota.FreeReservations,
	}
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Redis.IdempotencyTTLSeconds) * time.Second
}
