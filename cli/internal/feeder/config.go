package feeder

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the feed driver configuration.
type Config struct {
	Version  string         `mapstructure:"version" yaml:"version"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
}

// DefaultsConfig holds the driver settings.
type DefaultsConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	ClientID int64         `mapstructure:"client_id" yaml:"client_id"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Count    int           `mapstructure:"count" yaml:"count"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Seed     int64         `mapstructure:"seed" yaml:"seed"`
}

// LoadConfig loads configuration with cascade: FEED_* env > ./feed.yaml > ~/.thawk/feed.yaml > defaults.
// Command-line flags are applied by the caller.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("feed")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FEED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".thawk"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "1.0")
	v.SetDefault("defaults.url", "http://127.0.0.1:8000/api/ingest/")
	v.SetDefault("defaults.client_id", 1)
	v.SetDefault("defaults.interval", 2*time.Second)
	v.SetDefault("defaults.count", 0)
	v.SetDefault("defaults.timeout", 5*time.Second)
	v.SetDefault("defaults.seed", 0)
}

// Validate checks the settings the runner depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Defaults.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an http(s) URL, got %q", c.Defaults.URL)
	}
	if c.Defaults.ClientID <= 0 {
		return fmt.Errorf("client_id must be positive, got %d", c.Defaults.ClientID)
	}
	if c.Defaults.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", c.Defaults.Interval)
	}
	if c.Defaults.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Defaults.Count)
	}
	if c.Defaults.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Defaults.Timeout)
	}
	return nil
}
