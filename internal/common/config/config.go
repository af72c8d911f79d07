// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Session       SessionConfig      `mapstructure:"session"`
	Submission    SubmissionConfig   `mapstructure:"submission"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout   int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout  int    `mapstructure:"write_timeout"` // milliseconds
	AllowedOrigin string `mapstructure:"allowed_origin"`

	// RateLimit applies per client IP to the contact and subscribe endpoints.
	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requests_per_minute"`
		Burst             int `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SessionConfig selects where form sessions live between requests.
type SessionConfig struct {
	Store string `mapstructure:"store" validate:"oneof=memory redis"`
	TTL   int    `mapstructure:"ttl" validate:"min=1"` // milliseconds
	// SubmitLockTTL bounds how long a crashed replica can hold the submit lock.
	SubmitLockTTL int `mapstructure:"submit_lock_ttl"` // milliseconds
}

// SubmissionConfig configures the external webhooks that receive completed forms.
type SubmissionConfig struct {
	WebhookURL          string `mapstructure:"webhook_url" validate:"required,url"`
	ContactWebhookURL   string `mapstructure:"contact_webhook_url" validate:"omitempty,url"`
	SubscribeWebhookURL string `mapstructure:"subscribe_webhook_url" validate:"omitempty,url"`
	Timeout             int    `mapstructure:"timeout" validate:"min=1"` // milliseconds
	ConfirmationRoute   string `mapstructure:"confirmation_route" validate:"required"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// NotificationConfig holds settings for post-submission notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email" validate:"required_if=Enabled true"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled        bool   `mapstructure:"enabled"`
		RecruiterPhone string `mapstructure:"recruiter_phone" validate:"required_if=Enabled true"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}
