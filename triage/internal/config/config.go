package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/telhawk-systems/telhawk-soc/common/database"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Type       string                  `mapstructure:"type"`
	Postgres   database.PostgresConfig `mapstructure:"postgres"`
	Migrations string                  `mapstructure:"migrations"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	Name          string        `mapstructure:"name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type FeedConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Mode       string        `mapstructure:"mode"`
	Backoff    time.Duration `mapstructure:"backoff"`
	CaseChance float64       `mapstructure:"case_chance"`
}

type DashboardConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone. Empty or "Local" means the
// process's local zone.
func (c DashboardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type WebSocketConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	Buffer            int           `mapstructure:"buffer"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1048576)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "telhawk")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "telhawk_triage")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_conns", 25)
	v.SetDefault("database.migrations", "file://migrations")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "telhawk-triage")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.timeout", "5s")
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests", 600)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("feed.enabled", true)
	v.SetDefault("feed.mode", "direct")
	v.SetDefault("feed.backoff", "10s")
	v.SetDefault("feed.case_chance", 0.35)
	v.SetDefault("dashboard.timezone", "Local")
	v.SetDefault("websocket.heartbeat_interval", "30s")
	v.SetDefault("websocket.idle_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.buffer", 64)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/triage")
	}

	// Environment variables override, e.g. TRIAGE_DATABASE_POSTGRES_HOST
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	switch c.Feed.Mode {
	case "direct", "ingest":
	default:
		return fmt.Errorf("unsupported feed mode %q", c.Feed.Mode)
	}
	if c.Feed.CaseChance < 0 || c.Feed.CaseChance > 1 {
		return fmt.Errorf("feed case_chance must be between 0 and 1, got %v", c.Feed.CaseChance)
	}
	if c.RateLimit.Enabled && c.RateLimit.Requests <= 0 {
		return fmt.Errorf("ratelimit requests must be positive when enabled")
	}
	if _, err := c.Dashboard.Location(); err != nil {
		return err
	}
	return nil
}
