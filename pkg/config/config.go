package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix     = "CAMPAIGNDASH"
	configFileEnv = "CAMPAIGNDASH_CONFIG_FILE"
)

// Application settings
type Config struct {
	Server   ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Ingest   IngestConfig  `yaml:"ingest" envconfig:"INGEST"`
	Timezone string        `yaml:"timezone" envconfig:"TIMEZONE"`
}

// Server settings
type ServerConfig struct {
	Port            string        `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// Upload handling
type IngestConfig struct {
	MaxUploadBytes  int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	UploadRateLimit float64 `yaml:"upload_rate_limit" envconfig:"UPLOAD_RATE_LIMIT"`
	UploadBurst     int     `yaml:"upload_burst" envconfig:"UPLOAD_BURST"`
}

// Logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ingest: IngestConfig{
			MaxUploadBytes:  32 << 20,
			UploadRateLimit: 2,
			UploadBurst:     4,
		},
		Timezone: "Local",
	}
}

// Load layers defaults, the optional YAML file named by CAMPAIGNDASH_CONFIG_FILE,
// then CAMPAIGNDASH_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(configFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Location resolves the configured timezone used for send times and date filters.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if c.Ingest.UploadRateLimit <= 0 || c.Ingest.UploadBurst <= 0 {
		return errors.New("upload rate limit and burst must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
