// Package config provides configuration management for assimilator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/assimilator/pkg/similarity"
)

const (
	// DefaultThreshold is the edit-distance cutoff used when none is configured.
	DefaultThreshold = similarity.DefaultThreshold
	// DefaultDelimiter is the CSV field separator.
	DefaultDelimiter = ","
	// DefaultLogLevel is the zerolog level name used by the CLI.
	DefaultLogLevel = "info"
)

// Environment variables overriding file values.
const (
	EnvKeyColumn  = "ASSIMILATOR_KEY_COLUMN"
	EnvThreshold  = "ASSIMILATOR_THRESHOLD"
	EnvReferences = "ASSIMILATOR_REFERENCES"
	EnvDelimiter  = "ASSIMILATOR_DELIMITER"
	EnvLogLevel   = "ASSIMILATOR_LOG_LEVEL"
)

var (
	// ErrInvalidThreshold is returned for a negative threshold.
	ErrInvalidThreshold = errors.New("config: threshold must be non-negative")
	// ErrInvalidDelimiter is returned when the delimiter is not a single character.
	ErrInvalidDelimiter = errors.New("config: delimiter must be a single character")
)

// Config holds the settings shared by every command.
type Config struct {
	KeyColumn     string   `yaml:"key_column"`
	Delimiter     string   `yaml:"delimiter"`
	LogLevel      string   `yaml:"log_level"`
	References    []string `yaml:"references"`
	Threshold     int      `yaml:"threshold"`
	AllReferences bool     `yaml:"all_references"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Delimiter: DefaultDelimiter,
		LogLevel:  DefaultLogLevel,
	}
}

// DataDir returns the per-user settings directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".assimilator")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// ProfilesPath returns the location of the named profiles file.
func ProfilesPath() string {
	return filepath.Join(DataDir(), "profiles.yaml")
}

// Load reads the YAML file at path (DefaultPath when empty) over the
// defaults and applies environment overrides. A missing file is not an
// error. A file that cannot be parsed is logged and ignored.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Default()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Invalid config file, using defaults")
		} else {
			cfg = fileCfg
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvKeyColumn); v != "" {
		c.KeyColumn = v
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil || threshold < 0 {
			log.Warn().
				Str("env_value", v).
				Msg("Invalid threshold in environment, keeping configured value")
		} else {
			c.Threshold = threshold
		}
	}
	if v := os.Getenv(EnvReferences); v != "" {
		c.References = splitList(v)
	}
	if v := os.Getenv(EnvDelimiter); v != "" {
		c.Delimiter = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.Threshold)
	}
	if c.Delimiter != "" && utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidDelimiter, c.Delimiter)
	}
	return nil
}

// Comma returns the CSV delimiter as a rune, ',' when unset.
func (c *Config) Comma() rune {
	if c.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
