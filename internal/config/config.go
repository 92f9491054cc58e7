package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Upload  UploadConfig  `mapstructure:"upload" yaml:"upload"`
	Retry   RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig contains remote API settings
type APIConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Token   string        `mapstructure:"token" yaml:"token"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PathsConfig contains local directory settings
type PathsConfig struct {
	SpacesDir string `mapstructure:"spaces_dir" yaml:"spaces_dir"`
	StateDir  string `mapstructure:"state_dir" yaml:"state_dir"`
}

// UploadConfig contains upload run settings
type UploadConfig struct {
	Force           bool `mapstructure:"force" yaml:"force"`
	Publish         bool `mapstructure:"publish" yaml:"publish"`
	Concurrency     int  `mapstructure:"concurrency" yaml:"concurrency"`
	Interactive     bool `mapstructure:"interactive" yaml:"interactive"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`
}

// RetryConfig contains retry executor settings
type RetryConfig struct {
	RateLimitRetries int           `mapstructure:"rate_limit_retries" yaml:"rate_limit_retries"`
	TransientRetries int           `mapstructure:"transient_retries" yaml:"transient_retries"`
	BaseDelay        time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay         time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Validate validates the configuration and applies defaults for out-of-range
// values.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.url is not a valid URL: %s", c.API.URL)
	}
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required")
	}
	c.API.URL = strings.TrimRight(c.API.URL, "/")

	if c.API.Timeout < time.Second {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.Upload.Concurrency < 1 {
		c.Upload.Concurrency = DefaultConcurrency
	}
	if c.Retry.RateLimitRetries < 1 {
		c.Retry.RateLimitRetries = DefaultRateLimitRetries
	}
	if c.Retry.TransientRetries < 1 {
		c.Retry.TransientRetries = DefaultTransientRetries
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = DefaultBaseDelay
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	if c.Paths.SpacesDir == "" {
		c.Paths.SpacesDir = DefaultSpacesDir
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = DefaultStateDir
	}
	return nil
}
