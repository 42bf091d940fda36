// Package config loads the newsletter service configuration from a YAML
// file with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Jellyfin   JellyfinConfig `yaml:"jellyfin"`
	Recipients []Recipient    `yaml:"recipients"`
	Mail       MailConfig     `yaml:"mail"`
	Send       bool           `yaml:"send"`
	OutputDir  string         `yaml:"output_dir"`
	Template   string         `yaml:"template"`
	Server     ServerConfig   `yaml:"server"`
	Polling    PollingConfig  `yaml:"polling"`
}

// JellyfinConfig holds media server API settings
type JellyfinConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	RecentLimit    int    `yaml:"recent_limit"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout for media server requests
func (c JellyfinConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Recipient is one configured newsletter recipient
type Recipient struct {
	Name string `yaml:"name"`
	Mail string `yaml:"mail"`
}

// MailConfig holds SMTP delivery settings
type MailConfig struct {
	Host    string   `yaml:"host"`
	Port    int      `yaml:"port"`
	Secure  bool     `yaml:"secure"`
	Auth    MailAuth `yaml:"auth"`
	From    string   `yaml:"from"`
	Subject string   `yaml:"subject"`
	ReplyTo string   `yaml:"reply_to"`
}

// MailAuth holds SMTP credentials
type MailAuth struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// ServerConfig holds the admin/ops HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PollingConfig controls the daemon-mode run schedule
type PollingConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the daemon polling interval
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Jellyfin.RecentLimit == 0 {
		cfg.Jellyfin.RecentLimit = 10
	}
	if cfg.Jellyfin.TimeoutSeconds == 0 {
		cfg.Jellyfin.TimeoutSeconds = 30
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Template == "" {
		cfg.Template = "templates/body.html.liquid"
	}
	if cfg.Polling.IntervalMinutes == 0 {
		cfg.Polling.IntervalMinutes = 1440
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = "New on your media server"
	}

	// The media server API builds URLs by concatenation and expects a
	// trailing slash on the base URL.
	if cfg.Jellyfin.BaseURL != "" && !strings.HasSuffix(cfg.Jellyfin.BaseURL, "/") {
		cfg.Jellyfin.BaseURL += "/"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if baseURL := os.Getenv("JELLYFIN_BASE_URL"); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		cfg.Jellyfin.BaseURL = baseURL
	}
	if token := os.Getenv("JELLYFIN_TOKEN"); token != "" {
		cfg.Jellyfin.Token = token
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.Mail.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Mail.Port = p
		}
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.Mail.Auth.User = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		cfg.Mail.Auth.Pass = pass
	}

	return cfg, nil
}

// Validate checks that the configuration is complete enough to run
func (c *Config) Validate() error {
	if c.Jellyfin.BaseURL == "" {
		return fmt.Errorf("jellyfin.base_url is required")
	}
	if c.Jellyfin.Token == "" {
		return fmt.Errorf("jellyfin.token is required")
	}
	if len(c.Recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	for i, r := range c.Recipients {
		if r.Name == "" {
			return fmt.Errorf("recipients[%d]: name is required", i)
		}
		if r.Mail == "" {
			return fmt.Errorf("recipients[%d]: mail is required", i)
		}
	}
	if c.Send {
		if c.Mail.Host == "" {
			return fmt.Errorf("mail.host is required when send is enabled")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required when send is enabled")
		}
	}
	return nil
}
