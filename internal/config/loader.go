package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load() (*Config, error) {
	v := viper.GetViper()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables (WIKIPORT_*)
	v.SetEnvPrefix("WIKIPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", DefaultAPITimeout)

	v.SetDefault("paths.spaces_dir", DefaultSpacesDir)
	v.SetDefault("paths.state_dir", DefaultStateDir)

	v.SetDefault("upload.force", false)
	v.SetDefault("upload.publish", DefaultPublish)
	v.SetDefault("upload.concurrency", DefaultConcurrency)
	v.SetDefault("upload.interactive", false)
	v.SetDefault("upload.continue_on_error", DefaultContinueOnError)

	v.SetDefault("retry.rate_limit_retries", DefaultRateLimitRetries)
	v.SetDefault("retry.transient_retries", DefaultTransientRetries)
	v.SetDefault("retry.base_delay", DefaultBaseDelay)
	v.SetDefault("retry.max_delay", DefaultMaxDelay)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.file", "")
}
