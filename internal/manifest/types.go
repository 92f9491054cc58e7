package manifest

import "fmt"

// Config represents a batch upload manifest: the set of spaces to
// synchronize in one run, with shared options.
type Config struct {
	Spaces  []Space `yaml:"spaces" json:"spaces"`
	Options Options `yaml:"options" json:"options"`
}

// Space selects one space export for the run. Key must match a
// <key>.json file in the spaces directory.
type Space struct {
	Key   string `yaml:"key" json:"key"`
	Force *bool  `yaml:"force,omitempty" json:"force,omitempty"`
}

// Options represents global manifest options. ContinueOnError keeps the run
// going past a failed space; when false the remaining spaces are not
// started. Pointer fields distinguish "unset" from an explicit false.
type Options struct {
	ContinueOnError *bool `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	Force           bool  `yaml:"force,omitempty" json:"force,omitempty"`
	Publish         *bool `yaml:"publish,omitempty" json:"publish,omitempty"`
	Concurrency     int   `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// Validate validates the manifest configuration
func (c *Config) Validate() error {
	if len(c.Spaces) == 0 {
		return ErrNoSpaces
	}
	seen := make(map[string]bool, len(c.Spaces))
	for i, sp := range c.Spaces {
		if sp.Key == "" {
			return fmt.Errorf("space %d: %w", i, ErrEmptyKey)
		}
		if seen[sp.Key] {
			return fmt.Errorf("space %d: %w: %s", i, ErrDuplicateKey, sp.Key)
		}
		seen[sp.Key] = true
	}
	return nil
}

// ForceFor reports whether a given space should be force-updated, combining
// the per-space override with the global option.
func (c *Config) ForceFor(key string) bool {
	for _, sp := range c.Spaces {
		if sp.Key == key && sp.Force != nil {
			return *sp.Force
		}
	}
	return c.Options.Force
}

// Keys returns the space keys in manifest order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.Spaces))
	for i, sp := range c.Spaces {
		keys[i] = sp.Key
	}
	return keys
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	continueOnError := true
	return Options{
		ContinueOnError: &continueOnError,
		Concurrency:     2,
	}
}
