// File: internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the immutable application configuration. It is loaded once at
// startup and passed into component constructors; no package reads it from
// a global.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	MFA      MFAConfig      `mapstructure:"mfa"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN renders the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr renders the host:port pair for the redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// JWTConfig configures access token signing. Only symmetric HS256 is
// supported; the same key also keys the refresh-token hasher.
type JWTConfig struct {
	SigningAlgorithm string        `mapstructure:"signing_algorithm"`
	SigningKey       string        `mapstructure:"signing_key"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
}

// SessionConfig configures refresh-token session behaviour.
// IdleTimeout of zero disables idle logout.
type SessionConfig struct {
	RefreshTokenTTL        time.Duration `mapstructure:"refresh_token_ttl"`
	RememberMeTTL          time.Duration `mapstructure:"remember_me_ttl"`
	RotateRefreshTokens    bool          `mapstructure:"rotate_refresh_tokens"`
	BlacklistAfterRotation bool          `mapstructure:"blacklist_after_rotation"`
	IdleTimeout            time.Duration `mapstructure:"idle_timeout"`
}

type MFAConfig struct {
	TOTPIssuerName    string        `mapstructure:"totp_issuer_name"`
	BackupCodeCount   int           `mapstructure:"backup_code_count"`
	ChallengeTokenTTL time.Duration `mapstructure:"challenge_token_ttl"`
	// ChallengeStore selects the pending-challenge backend: "memory" for
	// single-instance deployments, "redis" when running multiple replicas.
	ChallengeStore string `mapstructure:"challenge_store"`
}

type CookieConfig struct {
	AccessName  string `mapstructure:"access_name"`
	RefreshName string `mapstructure:"refresh_name"`
	Domain      string `mapstructure:"domain"`
	Path        string `mapstructure:"path"`
	Secure      bool   `mapstructure:"secure"`
	SameSite    string `mapstructure:"samesite"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures distributed tracing export. Prometheus metrics
// are always served on /metrics regardless of this block.
type TelemetryConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

// IsDevelopment reports whether the server runs in the development
// environment (relaxes the Secure cookie default).
func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
