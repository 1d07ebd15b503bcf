package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load,
// e.g. SCRY_DATABASE_URL.
const EnvPrefix = "SCRY"

// ConfigFileEnv names the environment variable that points at an explicit
// config file.
const ConfigFileEnv = "SCRY_CONFIG"

var validate = validator.New()

// Load reads the configuration from defaults, an optional config.yaml in
// the working directory (or the file named by SCRY_CONFIG) and SCRY_*
// environment variables, in increasing order of precedence, then validates
// the result.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return LoadFromViper(v)
}

// LoadFromViper unmarshals and validates a configuration from v.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadClient reads only the client and session sections, for commands
// that talk to a running server and need no database or signing key.
func LoadClient() (*ClientConfig, *SessionConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg.Client); err != nil {
		return nil, nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	if err := validate.Struct(&cfg.Session); err != nil {
		return nil, nil, fmt.Errorf("invalid session configuration: %w", err)
	}
	return &cfg.Client, &cfg.Session, nil
}

// NewViper returns a viper instance with defaults and environment binding
// but no config file, for tests and embedding.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range []string{"database.url", "auth.jwt_secret", "client.token", "scheduler.params_file"} {
		_ = v.BindEnv(key)
	}
	return v
}

func newViper() (*viper.Viper, error) {
	v := NewViper()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.rate_limit_per_second", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("scheduler.desired_retention", 0.9)
	v.SetDefault("scheduler.minimum_interval_days", 1)
	v.SetDefault("scheduler.maximum_interval_days", 365)
	v.SetDefault("scheduler.learning_steps", []string{"1m", "10m"})
	v.SetDefault("scheduler.relearning_steps", []string{"10m"})
	v.SetDefault("scheduler.easy_step_factor", 1.5)
	v.SetDefault("scheduler.enable_fuzz", true)

	v.SetDefault("session.batch_size", 20)
	v.SetDefault("session.requeue_threshold", "30m")

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "10s")
	v.SetDefault("client.rate_per_second", 5.0)
	v.SetDefault("client.burst", 10)
	v.SetDefault("client.breaker_failures", 5)
	v.SetDefault("client.breaker_timeout", "30s")
}
