package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	DefaultAPITimeout = 60 * time.Second

	DefaultConcurrency     = 2
	DefaultPublish         = true
	DefaultContinueOnError = true

	DefaultRateLimitRetries = 5
	DefaultTransientRetries = 3
	DefaultBaseDelay        = 3 * time.Second
	DefaultMaxDelay         = 60 * time.Second

	DefaultSpacesDir = "./spaces"
	DefaultStateDir  = "./state"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wikiport"
	}
	return filepath.Join(home, ".wikiport")
}
