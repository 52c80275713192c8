// Package config handles qsn configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (QSN_*)
//  2. Config file (<user config dir>/qsn/config.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/qsnshell/qsn/internal/paths"
)

const (
	// DefaultDisplayMode is the default QSN display mode for commands that
	// don't pass --mode explicitly.
	DefaultDisplayMode = "utf8"
	// DefaultRetention is the default transcript pruning retention as a
	// duration string.
	DefaultRetention = "720h"
)

const minIntervalDuration = 1 * time.Second

// Config holds the qsn configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("encode.mode", DefaultDisplayMode)
	v.SetDefault("transcript.enabled", true)
	v.SetDefault("transcript.scrollback_lines", 10000)
	v.SetDefault("transcript.retention", DefaultRetention)

	// Config file location
	configDir, err := paths.ConfigRoot()
	if err == nil {
		transcriptDir, transcriptErr := paths.TranscriptDir()
		if transcriptErr == nil {
			v.SetDefault("transcript.dir", transcriptDir)
		} else {
			if home, homeErr := os.UserHomeDir(); homeErr == nil {
				v.SetDefault("transcript.dir", filepath.Join(home, ".local", "state", "qsn", "transcripts"))
			}
		}

		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("QSN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			slog.Default().Warn("error reading config file", "component", "config", "event.type", "config.read.warning", "error", err.Error())
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	// Ensure config directory exists
	configDir, err := paths.ConfigRoot()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, "config.yaml")

	if err := c.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// YAML renders all configuration as YAML, for 'qsn config list --format yaml'.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c.All())
	if err != nil {
		return "", fmt.Errorf("marshal config as yaml: %w", err)
	}

	return string(out), nil
}

// EncodeMode returns the configured default display mode for 'qsn encode'.
func (c *Config) EncodeMode() string {
	return c.GetString("encode.mode")
}

// TranscriptEnabled returns whether session recording is enabled.
func (c *Config) TranscriptEnabled() bool {
	return c.v.GetBool("transcript.enabled")
}

// TranscriptDir returns the configured transcript storage directory.
func (c *Config) TranscriptDir() string {
	return c.GetString("transcript.dir")
}

// TranscriptScrollbackLines returns the configured in-memory transcript ring size.
func (c *Config) TranscriptScrollbackLines() int {
	return c.GetInt("transcript.scrollback_lines")
}

// parseDuration reads a config key and interprets it as a duration.
// It first tries time.ParseDuration (e.g. "30s", "1m"). If that fails,
// it tries parsing as a bare integer (seconds) for backward compatibility.
// Returns fallback if the result is less than minIntervalDuration.
func (c *Config) parseDuration(key string, fallback time.Duration) time.Duration {
	raw := c.GetString(key)
	if raw == "" {
		return fallback
	}

	// Try Go duration string first (e.g. "30s", "1m30s").
	if d, err := time.ParseDuration(raw); err == nil {
		if d < minIntervalDuration {
			return fallback
		}

		return d
	}

	// Backward compat: bare integer treated as seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		d := time.Duration(secs) * time.Second
		if d < minIntervalDuration {
			return fallback
		}

		return d
	}

	return fallback
}

// TranscriptRetention returns the configured retention period for transcript pruning.
func (c *Config) TranscriptRetention() time.Duration {
	return c.parseDuration("transcript.retention", 30*24*time.Hour)
}
