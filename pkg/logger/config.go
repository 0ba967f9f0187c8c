package logger

import (
	"github.com/vnykmshr/batchflow/pkg/common/validation"
)

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateOneOf("logging", "level", c.Level,
		"trace", "debug", "info", "warn", "error", "fatal", "disabled"); err != nil {
		return err
	}
	if err := validation.ValidateOneOf("logging", "format", c.Format,
		FormatJSON, FormatConsole, FormatPretty); err != nil {
		return err
	}
	return validation.ValidateOneOf("logging", "output", c.Output, "stdout", "stderr")
}
