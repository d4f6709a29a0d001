package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/collection-engine/internal/logger"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DATABASE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"REDIS_ENABLED"`
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     string        `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	RouteTTL time.Duration `mapstructure:"REDIS_ROUTE_TTL"`
}

type SchedulerConfig struct {
	RouteCloseSpec  string `mapstructure:"SCHEDULER_ROUTE_CLOSE_SPEC"`
	DelinquencySpec string `mapstructure:"SCHEDULER_DELINQUENCY_SPEC"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	OperationalTimezone         string `mapstructure:"OPERATIONAL_TIMEZONE"`
	ResetWindow                 string `mapstructure:"RESET_WINDOW"`
	DelinquencyThreshold        int    `mapstructure:"DELINQUENCY_THRESHOLD"`
	DefaultCommissionPercentage string `mapstructure:"DEFAULT_COMMISSION_PERCENTAGE"`
	DefaultCurrency             string `mapstructure:"DEFAULT_CURRENCY"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                   "8080",
	"SERVER_HOST":                   "0.0.0.0",
	"ENV":                           "development",
	"SERVER_READ_TIMEOUT":           "15s",
	"SERVER_WRITE_TIMEOUT":          "15s",
	"DATABASE_DRIVER":               "postgres",
	"DATABASE_URL":                  "",
	"DATABASE_MAX_OPEN_CONNS":       25,
	"DATABASE_MAX_IDLE_CONNS":       5,
	"DATABASE_CONN_MAX_LIFETIME":    "5m",
	"REDIS_ENABLED":                 false,
	"REDIS_HOST":                    "localhost",
	"REDIS_PORT":                    "6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"REDIS_ROUTE_TTL":               "168h",
	"SCHEDULER_ROUTE_CLOSE_SPEC":    "0 5 0 * * *",
	"SCHEDULER_DELINQUENCY_SPEC":    "0 0 6 * * *",
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "json",
	"OPERATIONAL_TIMEZONE":          "America/Bogota",
	"RESET_WINDOW":                  "24h",
	"DELINQUENCY_THRESHOLD":         2,
	"DEFAULT_COMMISSION_PERCENTAGE": "10",
	"DEFAULT_CURRENCY":              "COP",
	"HEALTH_CHECK_TIMEOUT":          "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.DelinquencyThreshold <= 0 {
		return fmt.Errorf("DELINQUENCY_THRESHOLD must be greater than 0")
	}

	if _, err := time.LoadLocation(c.Business.OperationalTimezone); err != nil {
		return fmt.Errorf("OPERATIONAL_TIMEZONE must be a valid IANA zone: %w", err)
	}

	window, err := time.ParseDuration(c.Business.ResetWindow)
	if err != nil {
		return fmt.Errorf("RESET_WINDOW must be a valid duration: %w", err)
	}
	if window <= 0 {
		return fmt.Errorf("RESET_WINDOW must be positive")
	}

	// Validate commission percentage
	pct, err := decimal.NewFromString(c.Business.DefaultCommissionPercentage)
	if err != nil {
		return fmt.Errorf("DEFAULT_COMMISSION_PERCENTAGE must be a valid decimal: %w", err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("DEFAULT_COMMISSION_PERCENTAGE must be between 0 and 100")
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the data source name for the configured driver
func (d DatabaseConfig) DSN() string {
	return d.URL
}

// GetOperationalLocation returns the timezone every calendar day is evaluated in
func (c *Config) GetOperationalLocation() *time.Location {
	loc, err := time.LoadLocation(c.Business.OperationalTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetResetWindow returns how long after a payment it can still be reset
func (c *Config) GetResetWindow() time.Duration {
	window, _ := time.ParseDuration(c.Business.ResetWindow)
	return window
}

// GetDefaultCommissionPercentage returns the default commission as decimal
func (c *Config) GetDefaultCommissionPercentage() decimal.Decimal {
	pct, _ := decimal.NewFromString(c.Business.DefaultCommissionPercentage)
	return pct
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetLoggerConfig maps the logging section onto the logger package
func (c *Config) GetLoggerConfig() logger.LogConfig {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	return cfg
}
