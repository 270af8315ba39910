// Package config loads service configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a field empty.
const (
	DefaultServerAddr        = ":8080"
	DefaultMaxAttempts       = 3
	DefaultRetryDelay        = 200 * time.Millisecond
	DefaultCallTimeout       = 15 * time.Second
	DefaultHealthInterval    = 30 * time.Second
	DefaultActivityTimeout   = 20 * time.Second
	DefaultDirectoryRefresh  = 15 * time.Minute
	DefaultMetadataCacheSize = 4096
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	RPC      RPCConfig      `yaml:"rpc"`
	Activity ActivityConfig `yaml:"activity"`
	Metadata MetadataConfig `yaml:"metadata"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RPCConfig configures the Solana RPC endpoint pool and failover policy.
type RPCConfig struct {
	Endpoints      []string      `yaml:"endpoints"`
	WSEndpoint     string        `yaml:"ws_endpoint"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

// ActivityConfig configures the wallet activity provider client.
type ActivityConfig struct {
	BaseURL   string        `yaml:"base_url"`
	AuthToken string        `yaml:"auth_token"`
	Network   string        `yaml:"network"`
	RPS       float64       `yaml:"rps"`
	Burst     int           `yaml:"burst"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MetadataConfig configures tiered token metadata resolution.
type MetadataConfig struct {
	DirectoryURL     string        `yaml:"directory_url"`
	DirectoryRefresh time.Duration `yaml:"directory_refresh"`
	ProviderURL      string        `yaml:"provider_url"`
	CacheSize        int           `yaml:"cache_size"`
	Concurrency      int           `yaml:"concurrency"`
	PostgresDSN      string        `yaml:"postgres_dsn"`
}

// WatchConfig lists wallet addresses followed live for cache prewarming.
type WatchConfig struct {
	Addresses []string `yaml:"addresses"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. An empty path loads from environment
// and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets and
// endpoints are the usual deployment-time overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SOLANA_RPC_ENDPOINTS"); v != "" {
		c.RPC.Endpoints = splitList(v)
	}
	if v := os.Getenv("SOLANA_WS_ENDPOINT"); v != "" {
		c.RPC.WSEndpoint = v
	}
	if v := os.Getenv("ACTIVITY_BASE_URL"); v != "" {
		c.Activity.BaseURL = v
	}
	if v := os.Getenv("ACTIVITY_AUTH_TOKEN"); v != "" {
		c.Activity.AuthToken = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Metadata.PostgresDSN = v
	}
	if v := os.Getenv("WATCH_ADDRESSES"); v != "" {
		c.Watch.Addresses = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.RPC.MaxAttempts <= 0 {
		c.RPC.MaxAttempts = DefaultMaxAttempts
	}
	if c.RPC.RetryDelay <= 0 {
		c.RPC.RetryDelay = DefaultRetryDelay
	}
	if c.RPC.CallTimeout <= 0 {
		c.RPC.CallTimeout = DefaultCallTimeout
	}
	if c.RPC.HealthInterval <= 0 {
		c.RPC.HealthInterval = DefaultHealthInterval
	}
	if c.Activity.Timeout <= 0 {
		c.Activity.Timeout = DefaultActivityTimeout
	}
	if c.Metadata.DirectoryRefresh <= 0 {
		c.Metadata.DirectoryRefresh = DefaultDirectoryRefresh
	}
	if c.Metadata.CacheSize <= 0 {
		c.Metadata.CacheSize = DefaultMetadataCacheSize
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if len(c.RPC.Endpoints) == 0 {
		return fmt.Errorf("config: at least one rpc endpoint is required")
	}
	for _, ep := range c.RPC.Endpoints {
		if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
			return fmt.Errorf("config: rpc endpoint %q must be http(s)", ep)
		}
	}
	if c.Activity.BaseURL == "" {
		return fmt.Errorf("config: activity base_url is required")
	}
	if len(c.Watch.Addresses) > 0 && c.RPC.WSEndpoint == "" {
		return fmt.Errorf("config: ws_endpoint is required when watch addresses are set")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
