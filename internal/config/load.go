package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// WORDRILL_SERVER_PORT overrides server.port.
const envPrefix = "WORDRILL"

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over values from the
// config file, which takes precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every key so AutomaticEnv
// can see them (viper only reads env vars for keys it knows about).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("quota.free_daily_limit", 20)
	v.SetDefault("quota.free_max_article_words", 2000)
	v.SetDefault("quota.premium_daily_limit", 200)
	v.SetDefault("quota.premium_max_article_words", 20000)
	v.SetDefault("quota.default_timezone", "UTC")

	v.SetDefault("scheduler.min_ease_factor", 1.3)
	v.SetDefault("scheduler.max_ease_factor", 2.5)
	v.SetDefault("scheduler.relearn_step_minutes", 10)
	v.SetDefault("scheduler.graduation_interval_days", 1.0)
	v.SetDefault("scheduler.max_interval_days", 365.0)

	v.SetDefault("review.default_batch_size", 20)
	v.SetDefault("review.max_batch_size", 100)
}
