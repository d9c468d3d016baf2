package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Table    TableConfig    `mapstructure:"table"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// BackendConfig holds the storefront REST backend configuration
type BackendConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Token                string   `mapstructure:"token"`
	Timeout              int      `mapstructure:"timeout"` // Seconds per remote call
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"` // 0 disables pacing
	CircuitBreakerDelay  int      `mapstructure:"circuit_breaker_delay"`   // Seconds
	HealthPath           string   `mapstructure:"health_path"`
	Proxies              []string `mapstructure:"proxies"`
}

// TableConfig holds defaults for every admin table
type TableConfig struct {
	PageSize   int `mapstructure:"page_size"`
	MaxWorkers int `mapstructure:"max_workers"` // Concurrent mutations per bulk action
}

// DatabaseConfig holds the audit database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

func (c BackendConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c BackendConfig) CircuitBreakerDuration() time.Duration {
	return time.Duration(c.CircuitBreakerDelay) * time.Second
}

// Load loads configuration from an optional YAML file with environment
// variable and command line flag overrides
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("STOREADMIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindFlags maps CLI flags onto their config keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := map[string]string{
		"config":     "config",
		"backend":    "backend.base_url",
		"token":      "backend.token",
		"timeout":    "backend.timeout",
		"page-size":  "table.page_size",
		"log-level":  "log.level",
		"log-format": "log.format",
	}
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must be set")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %d", c.Backend.Timeout)
	}
	if c.Table.PageSize <= 0 {
		return fmt.Errorf("table.page_size must be positive, got %d", c.Table.PageSize)
	}
	if c.Table.MaxWorkers <= 0 {
		return fmt.Errorf("table.max_workers must be positive, got %d", c.Table.MaxWorkers)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("backend.base_url", "http://localhost:5000/api")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 15)
	v.SetDefault("backend.max_retries", 2)
	v.SetDefault("backend.max_requests_per_second", 20)
	v.SetDefault("backend.circuit_breaker_delay", 60)
	v.SetDefault("backend.health_path", "/health")
	v.SetDefault("backend.proxies", []string{})

	v.SetDefault("table.page_size", 10)
	v.SetDefault("table.max_workers", 8)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storeadmin")
	v.SetDefault("database.user", "storeadmin")
	v.SetDefault("database.password", "storeadmin")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "storeadmin")
	v.SetDefault("redis.min_idle_time", 120)
}
