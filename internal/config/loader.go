// File: internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from config.<env>.yaml and AUTH_* environment
// variables. A missing config file is fine; defaults plus environment
// variables are enough to run.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/skillsflow-auth")
	}

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = env
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the auth core cannot run with.
func Validate(cfg *Config) error {
	if cfg.JWT.SigningKey == "" {
		return errors.New("jwt.signing_key is required")
	}
	if cfg.JWT.SigningAlgorithm != "HS256" {
		return fmt.Errorf("unsupported jwt.signing_algorithm %q (only HS256)", cfg.JWT.SigningAlgorithm)
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		return errors.New("jwt.access_token_ttl must be positive")
	}
	if cfg.Session.RefreshTokenTTL <= 0 {
		return errors.New("session.refresh_token_ttl must be positive")
	}
	if cfg.Session.IdleTimeout < 0 {
		return errors.New("session.idle_timeout cannot be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "auth.events")

	v.SetDefault("jwt.signing_algorithm", "HS256")
	v.SetDefault("jwt.access_token_ttl", time.Hour)

	v.SetDefault("session.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("session.remember_me_ttl", 30*24*time.Hour)
	v.SetDefault("session.rotate_refresh_tokens", true)
	v.SetDefault("session.blacklist_after_rotation", true)
	v.SetDefault("session.idle_timeout", time.Duration(0))

	v.SetDefault("mfa.totp_issuer_name", "SkillsFlow ERP")
	v.SetDefault("mfa.backup_code_count", 10)
	v.SetDefault("mfa.challenge_token_ttl", 5*time.Minute)
	v.SetDefault("mfa.challenge_store", "memory")

	v.SetDefault("cookie.access_name", "sf_access")
	v.SetDefault("cookie.refresh_name", "sf_refresh")
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.samesite", "lax")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "skillsflow-auth")
}
