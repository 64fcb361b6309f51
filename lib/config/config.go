// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the Waypoint client configuration.
//
// Configuration comes from exactly one YAML file, located via the
// WAYPOINT_CONFIG environment variable or a --config flag. There is
// no search path and no automatic discovery: the effective
// configuration is always auditable from a single file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config
// flag is given.
const EnvVar = "WAYPOINT_CONFIG"

// Config is the full client configuration.
type Config struct {
	// Owner is the authenticated subject all local state belongs to.
	// Required.
	Owner string `yaml:"owner"`

	// StateDir is the directory holding the local cache database and
	// the notification preferences file. Required.
	StateDir string `yaml:"state_dir"`

	// Remote configures the backend the reconciliation worker mirrors
	// local writes to.
	Remote RemoteConfig `yaml:"remote"`

	// Tracking configures the live fleet feed.
	Tracking TrackingConfig `yaml:"tracking"`
}

// RemoteConfig configures the remote store client.
type RemoteConfig struct {
	// BaseURL is the backend API root (e.g. "https://api.waypoint.example").
	// Empty disables reconciliation entirely: writes stay local.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each individual remote write attempt.
	// Default: 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// TrackingConfig configures the simulated live fleet feed.
type TrackingConfig struct {
	// Interval is the tick period of the tracking feed.
	// Default: 15s. Must be at least 1s when set.
	Interval time.Duration `yaml:"interval"`

	// Units is the fleet size. Default: 4.
	Units int `yaml:"units"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromEnv resolves the config path from the --config flag value
// (may be empty) or the WAYPOINT_CONFIG environment variable, then
// loads it. An empty result from both sources is an error.
func LoadFromEnv(flagValue string) (*Config, error) {
	path := flagValue
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file: set %s or pass --config", EnvVar)
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 10 * time.Second
	}
	if c.Tracking.Interval == 0 {
		c.Tracking.Interval = 15 * time.Second
	}
	if c.Tracking.Units == 0 {
		c.Tracking.Units = 4
	}
}

func (c *Config) validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout must not be negative")
	}
	if c.Tracking.Interval < time.Second {
		return fmt.Errorf("tracking.interval must be at least 1s, got %s", c.Tracking.Interval)
	}
	if c.Tracking.Units < 0 {
		return fmt.Errorf("tracking.units must not be negative")
	}
	return nil
}
