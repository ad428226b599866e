package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elevatebox/elevatebox/internal/security"
)

// FileName is the site configuration file looked up by LoadFromDir.
const FileName = "elevatebox.yaml"

// Config represents the elevatebox site configuration
type Config struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	ContentDir  string           `yaml:"content_dir,omitempty"` // Pages directory relative to the site dir (default: site dir)
	Server      ServerConfig     `yaml:"server"`
	Sink        SinkConfig       `yaml:"sink"`
	Contact     ContactConfig    `yaml:"contact"`
	Onboarding  OnboardingConfig `yaml:"onboarding"`
	RateLimit   *RateLimitConfig `yaml:"rate_limit,omitempty"`
	Notify      []NotifyConfig   `yaml:"notify,omitempty"`
	Features    FeaturesConfig   `yaml:"features"`
}

// SinkConfig selects and configures the document sink that receives submissions
type SinkConfig struct {
	Type    string            `yaml:"type"`              // "memory", "sqlite", "postgres", "file", "rest"
	DB      string            `yaml:"db,omitempty"`      // For sqlite: database file path (default: ./elevatebox.db)
	DSN     string            `yaml:"dsn,omitempty"`     // For postgres: connection string (default: $DATABASE_URL)
	Dir     string            `yaml:"dir,omitempty"`     // For file: output directory (default: ./submissions)
	URL     string            `yaml:"url,omitempty"`     // For rest: base URL, documents are POSTed to {url}/{collection}
	Headers map[string]string `yaml:"headers,omitempty"` // For rest: HTTP headers (env vars expanded)
	Timeout string            `yaml:"timeout,omitempty"` // Write timeout (e.g., "5s"). Default: 10s
}

// GetType returns the sink type (default: "memory")
func (c SinkConfig) GetType() string {
	if c.Type == "" {
		return "memory"
	}
	return c.Type
}

// GetTimeout returns the parsed write timeout (default: 10s)
func (c SinkConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetDSN returns the postgres DSN with env expansion, falling back to DATABASE_URL
func (c SinkConfig) GetDSN() string {
	if c.DSN != "" {
		return os.ExpandEnv(c.DSN)
	}
	return os.Getenv("DATABASE_URL")
}

// GetHeaders returns the configured headers with environment variables expanded
func (c SinkConfig) GetHeaders() map[string]string {
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = os.ExpandEnv(v)
	}
	return headers
}

// ContactConfig configures the contact form
type ContactConfig struct {
	Collection   string `yaml:"collection,omitempty"`    // Target collection (default: contacts)
	RejectRule   string `yaml:"reject_rule,omitempty"`   // "corrected" (default) or "literal"
	ErrorReset   string `yaml:"error_reset,omitempty"`   // Reset delay after a rejected submit (default: 1s)
	SuccessReset string `yaml:"success_reset,omitempty"` // Reset delay after a write (default: 2.5s)
}

// GetCollection returns the collection name (default: "contacts")
func (c ContactConfig) GetCollection() string {
	if c.Collection == "" {
		return "contacts"
	}
	return c.Collection
}

// GetErrorReset returns the reset delay after a rejected submit (default: 1s)
func (c ContactConfig) GetErrorReset() time.Duration {
	return parseDuration(c.ErrorReset, time.Second)
}

// GetSuccessReset returns the reset delay after a write (default: 2.5s)
func (c ContactConfig) GetSuccessReset() time.Duration {
	return parseDuration(c.SuccessReset, 2500*time.Millisecond)
}

// OnboardingConfig configures the onboarding wizard
type OnboardingConfig struct {
	Config     string `yaml:"config,omitempty"`     // Wizard definition file; empty uses the built-in steps
	Collection string `yaml:"collection,omitempty"` // Collection for completed submissions; empty disables the write
	StartStep  int    `yaml:"start_step,omitempty"` // Initial step index (clamped)
}

// ConfigPath resolves the wizard definition path against siteDir
func (c OnboardingConfig) ConfigPath(siteDir string) string {
	if c.Config == "" || filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(siteDir, c.Config)
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig holds rate limiting configuration for island connections
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 10)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 20)
}

// GetRPS returns the rate limit in requests per second (default: 10)
func (c *RateLimitConfig) GetRPS() float64 {
	if c == nil || c.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RequestsPerSecond
}

// GetBurst returns the burst size (default: 20)
func (c *RateLimitConfig) GetBurst() int {
	if c == nil || c.Burst <= 0 {
		return 20
	}
	return c.Burst
}

// NotifyConfig declares an output told about stored contact submissions
type NotifyConfig struct {
	Type    string `yaml:"type"`              // "slack", "email" or "log"
	Channel string `yaml:"channel,omitempty"` // For slack: channel override (webhook from $SLACK_WEBHOOK_URL)
	To      string `yaml:"to,omitempty"`      // For email: recipient (SMTP settings from SMTP_* env)
	Subject string `yaml:"subject,omitempty"` // For email: subject line
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title:       "Elevate Box",
		Description: "Build your profile and get matched with the right roles",
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Sink: SinkConfig{
			Type: "memory",
		},
		Features: FeaturesConfig{
			HotReload: true,
		},
	}
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Sink.GetType() {
	case "memory", "sqlite", "postgres", "file", "rest":
	default:
		return fmt.Errorf("config: unknown sink type %q", c.Sink.Type)
	}
	if c.Sink.GetType() == "rest" && c.Sink.URL != "" {
		if _, err := security.CheckHTTPURL(os.ExpandEnv(c.Sink.URL)); err != nil {
			return fmt.Errorf("config: sink.url: %w", err)
		}
	}
	switch c.Contact.RejectRule {
	case "", "corrected", "literal":
	default:
		return fmt.Errorf("config: unknown contact.reject_rule %q", c.Contact.RejectRule)
	}
	for i, n := range c.Notify {
		if n.Type != "slack" && n.Type != "email" && n.Type != "log" {
			return fmt.Errorf("config: notify[%d]: unknown type %q", i, n.Type)
		}
	}
	for name, v := range map[string]string{
		"sink.timeout":          c.Sink.Timeout,
		"contact.error_reset":   c.Contact.ErrorReset,
		"contact.success_reset": c.Contact.SuccessReset,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}

// ContentPath resolves the pages directory against siteDir
func (c *Config) ContentPath(siteDir string) string {
	if c.ContentDir == "" {
		return siteDir
	}
	if filepath.IsAbs(c.ContentDir) {
		return c.ContentDir
	}
	return filepath.Join(siteDir, c.ContentDir)
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir loads elevatebox.yaml from dir, or the defaults when it is absent
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
