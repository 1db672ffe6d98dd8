package logger

import (
	"fmt"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}
	validFormats = []string{"json", "console"}
	validOutputs = []string{"console", "file", "both"}
)

// Config defines the logger configuration
type Config struct {
	Level            string     `mapstructure:"level"`  // debug, info, warn, error
	Format           string     `mapstructure:"format"` // json, console
	Output           string     `mapstructure:"output"` // console, file, both
	File             FileConfig `mapstructure:"file"`
	EnableCaller     bool       `mapstructure:"enablecaller"`
	EnableStacktrace bool       `mapstructure:"enablestacktrace"`
}

// FileConfig defines rotated file output
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"` // MB
	MaxAge     int    `mapstructure:"maxage"`  // days
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns the configuration used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		Level:            "info",
		Format:           "json",
		Output:           "console",
		EnableCaller:     true,
		EnableStacktrace: true,
		File: FileConfig{
			Filename:   "logs/zhi-evaluator.log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

// writesFile reports whether the output includes the rotated file
func (c *Config) writesFile() bool {
	return c.Output == "file" || c.Output == "both"
}

// writesConsole reports whether the output includes stdout
func (c *Config) writesConsole() bool {
	return c.Output == "console" || c.Output == "both"
}

// Validate checks level, format, output and file settings
func (c *Config) Validate() error {
	if !oneOf(strings.ToLower(c.Level), validLevels) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Level, strings.Join(validLevels, ", "))
	}
	if !oneOf(c.Format, validFormats) {
		return fmt.Errorf("invalid log format %q, must be 'json' or 'console'", c.Format)
	}
	if !oneOf(c.Output, validOutputs) {
		return fmt.Errorf("invalid log output %q, must be 'console', 'file' or 'both'", c.Output)
	}

	if !c.writesFile() {
		return nil
	}
	switch {
	case c.File.Filename == "":
		return fmt.Errorf("log file filename is required when output is %q", c.Output)
	case c.File.MaxSize <= 0:
		return fmt.Errorf("log file maxsize must be greater than 0")
	case c.File.MaxAge <= 0:
		return fmt.Errorf("log file maxage must be greater than 0")
	case c.File.MaxBackups < 0:
		return fmt.Errorf("log file maxbackups must be greater than or equal to 0")
	}
	return nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
