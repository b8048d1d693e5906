// Package config provides configuration management for Ontoscope.
//
// Every setting has a default, so the explorer runs without a config file.
// A file overrides defaults field by field; command line flags override the
// file.
//
// Config file locations (priority order):
//  1. $ONTOSCOPE_CONFIG
//  2. ./ontoscope.yaml
//  3. $XDG_CONFIG_HOME/ontoscope/config.yaml
//  4. ~/.config/ontoscope/config.yaml
//  5. /etc/ontoscope/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr          = ":3000"
	DefaultOntologyURL   = "https://www.w3.org/2002/07/owl"
	DefaultQuery         = "SELECT ?s ?p ?o WHERE {?s ?p ?o} LIMIT 10"
	DefaultSampleLimit   = 20
	DefaultMaxRows       = 1000
	DefaultMaxScan       = 100000
	DefaultMaxBytes      = 32 << 20
	DefaultUserAgent     = "ontoscope/1.0"
	DefaultGraphHeight   = "600px"
	DefaultGraphWidth    = "100%"
	DefaultVisNetworkURL = "https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadOrDiscover loads path when it is set, otherwise searches the
// default locations
func LoadOrDiscover(path string) (*Config, string, error) {
	if path != "" {
		return LoadFromPath(path)
	}
	return Load()
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	// Loading a large ontology happens inside the request
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(90 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = Duration(30 * time.Second)
	}
	if c.Fetch.MaxBytes == 0 {
		c.Fetch.MaxBytes = DefaultMaxBytes
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = 3
	}

	if c.Explorer.DefaultURL == "" {
		c.Explorer.DefaultURL = DefaultOntologyURL
	}
	if c.Explorer.DefaultQuery == "" {
		c.Explorer.DefaultQuery = DefaultQuery
	}
	if c.Explorer.SampleLimit == 0 {
		c.Explorer.SampleLimit = DefaultSampleLimit
	}
	if c.Explorer.MaxRows == 0 {
		c.Explorer.MaxRows = DefaultMaxRows
	}
	if c.Explorer.MaxScan == 0 {
		c.Explorer.MaxScan = DefaultMaxScan
	}

	if c.Render.Height == "" {
		c.Render.Height = DefaultGraphHeight
	}
	if c.Render.Width == "" {
		c.Render.Width = DefaultGraphWidth
	}
	if c.Render.VisNetworkURL == "" {
		c.Render.VisNetworkURL = DefaultVisNetworkURL
	}
}

// Validate reports settings that cannot be used
func (c *Config) Validate() error {
	var errs []error
	if c.Fetch.MaxBytes < 0 {
		errs = append(errs, errors.New("fetch.max_bytes must not be negative"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.max_retries must not be negative"))
	}
	if c.Explorer.SampleLimit < 0 {
		errs = append(errs, errors.New("explorer.sample_limit must not be negative"))
	}
	if c.Explorer.MaxRows < 0 || c.Explorer.MaxScan < 0 {
		errs = append(errs, errors.New("explorer.max_rows and explorer.max_scan must not be negative"))
	}
	for _, t := range c.Explorer.PropertyTypes {
		if !strings.Contains(t, ":") {
			errs = append(errs, fmt.Errorf("explorer.property_types: %q is not an absolute IRI", t))
		}
	}
	return errors.Join(errs...)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Default ontology: %s\n", c.Server.Addr, c.Explorer.DefaultURL)
	summary += fmt.Sprintf("Fetch timeout: %s, Max size: %d bytes, Retries: %d\n",
		c.Fetch.Timeout.Duration(), c.Fetch.MaxBytes, c.Fetch.MaxRetries)
	summary += fmt.Sprintf("Samples: %d, Max rows: %d", c.Explorer.SampleLimit, c.Explorer.MaxRows)
	if len(c.Explorer.PropertyTypes) > 0 {
		summary += fmt.Sprintf(", Extra property types: %s", strings.Join(c.Explorer.PropertyTypes, " "))
	}

	return summary
}
