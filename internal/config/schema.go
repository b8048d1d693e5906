package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Explorer ExplorerConfig `yaml:"explorer"`
	Render   RenderConfig   `yaml:"render"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins for CORS; empty allows any origin
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// FetchConfig controls how ontology documents are downloaded
type FetchConfig struct {
	Timeout      Duration `yaml:"timeout"`
	MaxBytes     int64    `yaml:"max_bytes"`
	UserAgent    string   `yaml:"user_agent"`
	MaxRetries   int      `yaml:"max_retries"`
	BlockPrivate bool     `yaml:"block_private"` // refuse loopback and private network hosts
}

// ExplorerConfig holds the defaults of an exploration
type ExplorerConfig struct {
	DefaultURL   string `yaml:"default_url"`
	DefaultQuery string `yaml:"default_query"`
	SampleLimit  int    `yaml:"sample_limit"`
	MaxRows      int    `yaml:"max_rows"`
	MaxScan      int    `yaml:"max_scan"`
	// PropertyTypes are extra rdf:type objects that mark a property,
	// e.g. owl:ObjectProperty. rdf:Property is always included.
	PropertyTypes    []string `yaml:"property_types,omitempty"`
	SkipBlankParents bool     `yaml:"skip_blank_parents"`
}

// RenderConfig holds hierarchy graph rendering settings
type RenderConfig struct {
	Height        string `yaml:"height"`
	Width         string `yaml:"width"`
	VisNetworkURL string `yaml:"vis_network_url"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
