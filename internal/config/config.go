// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	DBURL          string        `mapstructure:"DB_URL"`
	GithubToken    string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL   string        `mapstructure:"GITHUB_API_URL"`
	BackgroundSync bool          `mapstructure:"BACKGROUND_SYNC"`
	SyncInterval   time.Duration `mapstructure:"SYNC_INTERVAL"`
}

// LoadConfig reads configuration from file and/or environment variables.
// GITHUB_TOKEN is optional: without it requests run anonymously against the
// public rate limit. GITHUB_API_URL overrides the API base for GHES or tests.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("BACKGROUND_SYNC", false)
	viper.SetDefault("SYNC_INTERVAL", "1h")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SyncInterval <= 0 {
		return nil, errors.New("SYNC_INTERVAL must be a positive duration")
	}

	return &cfg, nil
}
