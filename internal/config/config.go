package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. It is constructed once at
// startup and passed down explicitly; no component reads the environment
// on its own.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Payment  PaymentConfig
	Email    EmailConfig
	Identity IdentityConfig
	Checkout CheckoutConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"metacheckout"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// PaymentConfig holds payment provider credentials and endpoints.
type PaymentConfig struct {
	APIBaseURL    string `env:"PAYMENT_API_BASE_URL" envDefault:"https://api.stripe.com/v1"`
	SecretKey     string `env:"PAYMENT_SECRET_KEY"`
	WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

// EmailConfig holds transactional email provider configuration.
type EmailConfig struct {
	APIBaseURL   string        `env:"EMAIL_API_BASE_URL" envDefault:"https://api.resend.com"`
	APIKey       string        `env:"EMAIL_API_KEY"`
	From         string        `env:"EMAIL_FROM" envDefault:"orders@meta-checkout.local"`
	ReplyTo      string        `env:"EMAIL_REPLY_TO"`
	TemplateDir  string        `env:"EMAIL_TEMPLATE_DIR"`
	SendDelay    time.Duration `env:"EMAIL_SEND_DELAY" envDefault:"1s"`
	S3Enabled    bool          `env:"EMAIL_TEMPLATE_S3_ENABLED" envDefault:"false"`
	S3Bucket     string        `env:"EMAIL_TEMPLATE_S3_BUCKET"`
	S3Region     string        `env:"EMAIL_TEMPLATE_S3_REGION" envDefault:"ap-southeast-1"`
	S3Prefix     string        `env:"EMAIL_TEMPLATE_S3_PREFIX" envDefault:"templates/"`
}

// IdentityConfig holds auth provider admin API configuration.
type IdentityConfig struct {
	BaseURL    string `env:"IDENTITY_BASE_URL"`
	ServiceKey string `env:"IDENTITY_SERVICE_KEY"`
}

// CheckoutConfig holds checkout flow tunables.
type CheckoutConfig struct {
	// ResumeTokenTTL bounds how long an abandoned checkout can be resumed.
	// Long enough to return from a banking app, short enough to limit
	// exposure if the link leaks.
	ResumeTokenTTL time.Duration `env:"RESUME_TOKEN_TTL" envDefault:"2h"`
	// OrderTTL is how long a pending order stays eligible for payment.
	OrderTTL time.Duration `env:"ORDER_TTL" envDefault:"24h"`
	// SiteBaseURL is the public origin used to build resume links.
	SiteBaseURL string `env:"SITE_BASE_URL" envDefault:"http://localhost:8080"`
	// LoginBaseURL is where provisioned users are sent to sign in.
	LoginBaseURL string `env:"LOGIN_BASE_URL" envDefault:"http://localhost:8080"`
	// ReminderAfter is how long an order may sit pending before the
	// abandoned-cart reminder goes out.
	ReminderAfter time.Duration `env:"REMINDER_AFTER" envDefault:"1h"`
	// ReminderInterval is how often the reminder sweep runs. Zero
	// disables the sweeper.
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"10m"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Payment.SecretKey == "" {
		return fmt.Errorf("payment secret key is required")
	}

	if c.Payment.WebhookSecret == "" {
		return fmt.Errorf("payment webhook secret is required")
	}

	if c.Checkout.ResumeTokenTTL <= 0 {
		return fmt.Errorf("resume token TTL must be positive")
	}

	if c.Checkout.ReminderInterval < 0 {
		return fmt.Errorf("reminder interval cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Email.S3Enabled {
		if c.Email.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when template S3 loading is enabled")
		}
		if c.Email.S3Region == "" {
			return fmt.Errorf("S3 region is required when template S3 loading is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
