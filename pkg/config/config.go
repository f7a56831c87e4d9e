// Package config loads the immutable service configuration.
//
// Configuration comes from an optional YAML file plus environment variable
// overrides for credentials. It is loaded once at startup and passed
// explicitly into the components that need it; nothing reads it from global
// state afterwards.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Acquire   AcquireConfig   `yaml:"acquire"`
	Workers   WorkersConfig   `yaml:"workers"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AcquireConfig controls media acquisition.
type AcquireConfig struct {
	TempDir        string `yaml:"tempDir"`
	Attempts       int    `yaml:"attempts"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	AudioFormat    string `yaml:"audioFormat"`
	Bitrate        string `yaml:"bitrate"`
}

// Timeout returns the overall acquisition wall-clock ceiling.
func (a AcquireConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// WorkersConfig sizes the identification worker pool.
type WorkersConfig struct {
	Count     int `yaml:"count"`
	QueueSize int `yaml:"queueSize"`
}

// ProvidersConfig holds recognition provider settings. A provider with empty
// credentials is treated as disabled and skipped by the orchestrator.
type ProvidersConfig struct {
	// Order lists provider names in attempt priority. Unknown names are
	// rejected at load time.
	Order []string `yaml:"order"`

	AudD     AudDConfig     `yaml:"audd"`
	ACRCloud ACRCloudConfig `yaml:"acrcloud"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
}

// AudDConfig configures the AudD fingerprint API adapter.
type AudDConfig struct {
	APIToken       string `yaml:"apiToken"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-call timeout for the AudD adapter.
func (a AudDConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ACRCloudConfig configures the ACRCloud fingerprint adapter.
type ACRCloudConfig struct {
	Host           string `yaml:"host"`
	AccessKey      string `yaml:"accessKey"`
	AccessSecret   string `yaml:"accessSecret"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-call timeout for the ACRCloud adapter.
func (a ACRCloudConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// YouTubeConfig configures the YouTube metadata heuristic adapter.
type YouTubeConfig struct {
	APIKey         string `yaml:"apiKey"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-call timeout for the YouTube metadata adapter.
func (y YouTubeConfig) Timeout() time.Duration {
	return time.Duration(y.TimeoutSeconds) * time.Second
}

// DefaultProviderOrder lists providers in default attempt priority: the
// metadata heuristic is quota-cheap and fast, so it runs first; fingerprint
// providers follow.
var DefaultProviderOrder = []string{"youtube", "audd", "acrcloud"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{Level: "info"},
		Acquire: AcquireConfig{
			TempDir:        os.TempDir(),
			Attempts:       3,
			TimeoutSeconds: 90,
			AudioFormat:    "mp3",
			Bitrate:        "192K",
		},
		Workers: WorkersConfig{
			Count:     4,
			QueueSize: 64,
		},
		Providers: ProvidersConfig{
			Order: append([]string(nil), DefaultProviderOrder...),
			AudD: AudDConfig{
				Endpoint:       "https://api.audd.io/",
				TimeoutSeconds: 20,
			},
			ACRCloud: ACRCloudConfig{
				TimeoutSeconds: 15,
			},
			YouTube: YouTubeConfig{
				Endpoint:       "https://www.googleapis.com/youtube/v3/videos",
				TimeoutSeconds: 10,
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays credential and ordering overrides from the environment.
// Credentials belong in the environment rather than on disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("AUDD_API_TOKEN"); v != "" {
		c.Providers.AudD.APIToken = v
	}
	if v := os.Getenv("ACR_HOST"); v != "" {
		c.Providers.ACRCloud.Host = v
	}
	if v := os.Getenv("ACR_ACCESS_KEY"); v != "" {
		c.Providers.ACRCloud.AccessKey = v
	}
	if v := os.Getenv("ACR_ACCESS_SECRET"); v != "" {
		c.Providers.ACRCloud.AccessSecret = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.Providers.YouTube.APIKey = v
	}
	if v := os.Getenv("PROVIDER_ORDER"); v != "" {
		var order []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				order = append(order, name)
			}
		}
		if len(order) > 0 {
			c.Providers.Order = order
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Acquire.Attempts < 1 {
		return fmt.Errorf("acquire attempts must be >= 1, got %d", c.Acquire.Attempts)
	}
	if c.Workers.Count < 1 {
		return fmt.Errorf("worker count must be >= 1, got %d", c.Workers.Count)
	}
	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("provider order must not be empty")
	}
	known := map[string]bool{"youtube": true, "audd": true, "acrcloud": true}
	for _, name := range c.Providers.Order {
		if !known[name] {
			return fmt.Errorf("unknown provider in order: %q", name)
		}
	}
	return nil
}
