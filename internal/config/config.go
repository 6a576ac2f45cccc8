package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/barneeyyu/library-server/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Loan         LoanConfig         `yaml:"loan"`
	Limits       map[string]int     `yaml:"limits"`
	Retry        RetryConfig        `yaml:"retry"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Notification NotificationConfig `yaml:"notification"`
	Tracing      TracingConfig      `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type LoanConfig struct {
	PeriodMonths int `yaml:"period_months"`
	DueSoonDays  int `yaml:"due_soon_days"`
}

// RetryConfig bounds how often a conflicting borrow or return is re-run
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	BaseDelayMS  int     `yaml:"base_delay_ms"`
	JitterFactor float64 `yaml:"jitter_factor"`
}

// RateLimitConfig is applied per borrower
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SendDueSoonNotices string `yaml:"send_due_soon_notices"`
	ReportOverdueLoans string `yaml:"report_overdue_loans"`
}

// NotificationConfig selects how borrower notices are delivered
type NotificationConfig struct {
	Provider       string `yaml:"provider"` // "log", "sendgrid" or "smtp"
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

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

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Notification
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notification.SendGridAPIKey = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.Notification.SMTPHost = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Notification.SMTPPort)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.Notification.SMTPUser = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Notification.SMTPPassword = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.Notification.FromEmail = val
	}

	// Tracing
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
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
	if c.Database.Port == 0 {
		c.Database.Port = 5432
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
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Loan defaults
	if c.Loan.PeriodMonths == 0 {
		c.Loan.PeriodMonths = 1
	}
	if c.Loan.DueSoonDays == 0 {
		c.Loan.DueSoonDays = domain.DueSoonDays
	}
	if c.Loan.PeriodMonths < 0 || c.Loan.DueSoonDays < 0 {
		return fmt.Errorf("loan period and due-soon window must be positive")
	}

	// Limits validation
	for name, limit := range c.Limits {
		if !domain.Category(strings.ToUpper(name)).Valid() {
			return fmt.Errorf("unknown borrow limit category: %s", name)
		}
		if limit < 0 {
			return fmt.Errorf("borrow limit for %s must not be negative", name)
		}
	}

	// Retry defaults
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMS == 0 {
		c.Retry.BaseDelayMS = 10
	}
	if c.Retry.JitterFactor == 0 {
		c.Retry.JitterFactor = 0.3
	}
	if c.Retry.MaxAttempts < 0 || c.Retry.BaseDelayMS < 0 || c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		return fmt.Errorf("invalid retry settings: %+v", c.Retry)
	}

	// Rate limit defaults
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}

	// Scheduler defaults
	if c.Scheduler.SendDueSoonNotices == "" {
		c.Scheduler.SendDueSoonNotices = "0 0 9 * * *" // Daily at 9 AM UTC
	}
	if c.Scheduler.ReportOverdueLoans == "" {
		c.Scheduler.ReportOverdueLoans = "0 0 * * * *" // Hourly
	}

	// Notification validation
	switch c.Notification.Provider {
	case "", "log":
		c.Notification.Provider = "log"
	case "sendgrid":
		if c.Notification.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required")
		}
		if c.Notification.FromEmail == "" {
			return fmt.Errorf("notification from address is required")
		}
	case "smtp":
		if c.Notification.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.Notification.SMTPPort <= 0 || c.Notification.SMTPPort > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.Notification.SMTPPort)
		}
		if c.Notification.FromEmail == "" {
			return fmt.Errorf("notification from address is required")
		}
	default:
		return fmt.Errorf("unknown notification provider: %s", c.Notification.Provider)
	}
	if c.Notification.FromName == "" {
		c.Notification.FromName = "Library Circulation"
	}

	// Tracing defaults
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "library-server"
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
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

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LimitCaps returns the configured borrow caps keyed by category.
func (c *Config) LimitCaps() map[domain.Category]int {
	caps := make(map[domain.Category]int, len(c.Limits))
	for name, limit := range c.Limits {
		caps[domain.Category(strings.ToUpper(name))] = limit
	}
	return caps
}
