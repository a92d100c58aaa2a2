package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Quota     QuotaConfig     `mapstructure:"quota" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings needed to verify bearer tokens issued
// by the external auth service. This service never issues tokens itself.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// QuotaConfig contains tier limits and the fallback time zone used when a
// user has no zone configured. Limits live in configuration, not code, so
// product can change them without touching scheduling logic.
type QuotaConfig struct {
	FreeDailyLimit         int    `mapstructure:"free_daily_limit" validate:"required,gt=0"`
	FreeMaxArticleWords    int    `mapstructure:"free_max_article_words" validate:"required,gt=0"`
	PremiumDailyLimit      int    `mapstructure:"premium_daily_limit" validate:"required,gt=0"`
	PremiumMaxArticleWords int    `mapstructure:"premium_max_article_words" validate:"required,gt=0"`
	DefaultTimezone        string `mapstructure:"default_timezone" validate:"required"`
}

// SchedulerConfig contains overrides for the scheduling algorithm.
// Zero values keep the built-in defaults.
type SchedulerConfig struct {
	MinEaseFactor          float64 `mapstructure:"min_ease_factor" validate:"omitempty,gt=1"`
	MaxEaseFactor          float64 `mapstructure:"max_ease_factor" validate:"omitempty,gt=1"`
	RelearnStepMinutes     int     `mapstructure:"relearn_step_minutes" validate:"omitempty,gt=0"`
	GraduationIntervalDays float64 `mapstructure:"graduation_interval_days" validate:"omitempty,gt=0"`
	MaxIntervalDays        float64 `mapstructure:"max_interval_days" validate:"required,gt=0"`
}

// ReviewConfig contains settings for review batch composition.
type ReviewConfig struct {
	DefaultBatchSize int `mapstructure:"default_batch_size" validate:"required,gt=0"`
	MaxBatchSize     int `mapstructure:"max_batch_size" validate:"required,gt=0"`
}
