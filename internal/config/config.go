// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the email sender.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shineum/email-sender-lite/internal/account"
)

// defaultTimeout bounds connect and each SMTP command.
const defaultTimeout = 10 * time.Second

// defaultSMTPSPort is used for smtps accounts that leave the port out.
const defaultSMTPSPort = 465

// Config holds the complete application configuration.
type Config struct {
	Accounts  []account.Account `yaml:"smtp_accounts" validate:"dive"`
	HTTP      HTTPConfig        `yaml:"http"`
	Transport TransportConfig   `yaml:"transport"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds the HTTP invocation server configuration.
type HTTPConfig struct {
	Listen   string `yaml:"listen" validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TransportConfig holds settings shared by all transports.
type TransportConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	cfg.applyAccountDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()
	cfg.applyAccountDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthEnabled returns true if HTTP Basic authentication credentials are configured.
func (c *Config) AuthEnabled() bool {
	return c.HTTP.Username != "" && c.HTTP.Password != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":8080"
	c.Transport.Timeout = defaultTimeout
	c.Logging.Level = "info"
}

// applyAccountDefaults fills in the port of smtps accounts that omit it.
func (c *Config) applyAccountDefaults() {
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.Port == 0 && a.TransportName() == account.TransportSMTPS {
			a.Port = defaultSMTPSPort
		}
	}
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := os.Getenv("HTTP_USERNAME"); v != "" {
		c.HTTP.Username = v
	}
	if v := os.Getenv("HTTP_PASSWORD"); v != "" {
		c.HTTP.Password = v
	}
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Transport.Timeout = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	// A single account can be supplied entirely through the environment.
	// It is placed first and marked default so it wins over file accounts.
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		a := account.Account{
			Name:       os.Getenv("SMTP_ACCOUNT_NAME"),
			IsDefault:  true,
			Server:     v,
			User:       os.Getenv("SMTP_USER"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			SenderName: os.Getenv("SMTP_SENDER_NAME"),
			Transport:  strings.ToLower(os.Getenv("SMTP_TRANSPORT")),
		}
		if p := os.Getenv("SMTP_PORT"); p != "" {
			if port, err := strconv.Atoi(p); err == nil {
				a.Port = port
			}
		}
		c.Accounts = append([]account.Account{a}, c.Accounts...)
	}
}
