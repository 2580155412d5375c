package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"qareport/internal/errors"
	"qareport/internal/export"
	"qareport/internal/logging"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Report  ReportConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	MaxUploadMB int
}

// MaxUploadBytes is the upload size limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// SessionConfig holds in-memory session settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// ReportConfig holds exported-document settings
type ReportConfig struct {
	Title             string
	ChartScriptURL    string
	FontStylesheetURL string
}

// Assets returns the external URLs referenced by exported documents
func (r ReportConfig) Assets() export.Assets {
	return export.Assets{FontStylesheetURL: r.FontStylesheetURL, ChartScriptURL: r.ChartScriptURL}
}

// WebhookConfig holds the AI report form endpoint; an empty URL disables the form
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// Enabled reports whether a webhook endpoint is configured
func (w WebhookConfig) Enabled() bool {
	return w.URL != ""
}

// LogConfig holds logging verbosity
type LogConfig struct {
	Level string
}

// ParsedLevel returns the configured level, INFO when unset or unknown
func (l LogConfig) ParsedLevel() logging.Level {
	level, _ := logging.ParseLevel(l.Level)
	return level
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  loadServerConfig(),
		Session: loadSessionConfig(),
		Report:  loadReportConfig(),
		Webhook: loadWebhookConfig(),
		Log:     LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", GinMode: "debug", MaxUploadMB: 20},
		Session: SessionConfig{TTL: 2 * time.Hour, SweepInterval: 5 * time.Minute},
		Report: ReportConfig{
			Title:             export.DefaultTitle,
			ChartScriptURL:    export.DefaultChartScriptURL,
			FontStylesheetURL: export.DefaultFontStylesheetURL,
		},
		Webhook: WebhookConfig{Timeout: 30 * time.Second},
		Log:     LogConfig{Level: "INFO"},
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 20),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
	}
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		Title:             getEnvOrDefault("REPORT_TITLE", export.DefaultTitle),
		ChartScriptURL:    getEnvOrDefault("CHART_SCRIPT_URL", export.DefaultChartScriptURL),
		FontStylesheetURL: getEnvOrDefault("FONT_STYLESHEET_URL", export.DefaultFontStylesheetURL),
	}
}

func loadWebhookConfig() WebhookConfig {
	return WebhookConfig{
		URL:     getEnvOrDefault("WEBHOOK_URL", ""),
		Timeout: getEnvDurationOrDefault("WEBHOOK_TIMEOUT", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	if config.Session.SweepInterval <= 0 {
		return errors.ConfigInvalid("SESSION_SWEEP_INTERVAL must be positive")
	}
	if config.Webhook.URL != "" {
		u, err := url.Parse(config.Webhook.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.ConfigInvalid("WEBHOOK_URL must be an absolute http(s) URL")
		}
	}
	if config.Webhook.Timeout <= 0 {
		return errors.ConfigInvalid("WEBHOOK_TIMEOUT must be positive")
	}
	if _, ok := logging.ParseLevel(config.Log.Level); !ok {
		return errors.ConfigInvalid("LOG_LEVEL must be ERROR, WARN, INFO, DEBUG or TRACE")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
