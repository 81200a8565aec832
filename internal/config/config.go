// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AppBaseURL     string `mapstructure:"APP_BASE_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// Minutes to wait after the last qualifying availability edit before the
	// sweep fans out the batched "added availability" notification.
	NotificationCooldownMinutes int `mapstructure:"NOTIFICATION_COOLDOWN_MINUTES"`

	// Outbound transport settings. Empty Twilio credentials put the SMS
	// sender in mock mode, matching local development behavior.
	PushTimeoutSeconds int    `mapstructure:"PUSH_TIMEOUT_SECONDS"`
	TwilioAccountSID   string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber   string `mapstructure:"TWILIO_PHONE_NUMBER"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config.
	// The config file may not exist yet, so this error is ignored.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			log.Printf("no profile-specific config for %q, using base config and environment", env)
		}
	}

	viper.SetDefault("PORT", "5001")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "dev-secret-key-change-in-production")
	viper.SetDefault("APP_BASE_URL", "http://localhost:5001")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "gatherly")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("NOTIFICATION_COOLDOWN_MINUTES", 15)
	viper.SetDefault("PUSH_TIMEOUT_SECONDS", 5)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// NotificationCooldown returns the aggregation cooldown as a duration.
func (c *Config) NotificationCooldown() time.Duration {
	return time.Duration(c.NotificationCooldownMinutes) * time.Minute
}

// PushTimeout returns the bounded timeout applied to each push delivery attempt.
func (c *Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.NotificationCooldownMinutes <= 0 {
		return errors.New("NOTIFICATION_COOLDOWN_MINUTES must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "dev-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	}

	return nil
}
