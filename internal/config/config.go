package config

import (
	"time"

	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Session   SessionConfig   `mapstructure:"session"   validate:"required"`
	Client    ClientConfig    `mapstructure:"client"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// RateLimitPerSecond and RateLimitBurst bound requests per user.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"      validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the store backend.
	Driver          string        `mapstructure:"driver"            validate:"required,oneof=postgres sqlite"`
	URL             string        `mapstructure:"url"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// AuthConfig contains the settings for validating bearer tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// SchedulerConfig overrides the default scheduling parameters. When
// ParamsFile is set, the YAML preset it names is used instead of the inline
// values.
type SchedulerConfig struct {
	srs.ParamsConfig `mapstructure:",squash"`

	ParamsFile string `mapstructure:"params_file"`
}

// Params builds the scheduler parameters this configuration describes.
func (c SchedulerConfig) Params() (srs.Params, error) {
	if c.ParamsFile != "" {
		return srs.LoadParamsFile(c.ParamsFile)
	}
	return srs.NewParams(c.ParamsConfig)
}

// SessionConfig controls study sessions.
type SessionConfig struct {
	// BatchSize is the number of due cards fetched per session.
	BatchSize int `mapstructure:"batch_size" validate:"gt=0,lte=500"`

	// RequeueThreshold is the interval below which a reviewed card is put
	// back at the end of the session queue.
	RequeueThreshold time.Duration `mapstructure:"requeue_threshold" validate:"gt=0"`
}

// ClientConfig configures the HTTP client used by the study command.
type ClientConfig struct {
	BaseURL         string        `mapstructure:"base_url"         validate:"required,url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"          validate:"gt=0"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"  validate:"gt=0"`
	Burst           int           `mapstructure:"burst"            validate:"gt=0"`
	BreakerFailures uint32        `mapstructure:"breaker_failures" validate:"gt=0"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"  validate:"gt=0"`
}
