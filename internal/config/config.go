// Package config provides configuration management for intentify.
//
// Configuration is an explicit object built once at startup and passed to
// every component that needs it. There is no ambient credential state: the
// Google API key lives on the Config and nowhere else.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultHTTPPort          = 8000
	DefaultModel             = "gemini-2.5-flash-lite"
	DefaultGenerativeBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultSpeechEndpoint    = "https://speech.googleapis.com/v1/speech:recognize"
	DefaultLanguageCode      = "en-US"
)

// Config holds all service configuration.
type Config struct {
	HTTPPort int `yaml:"http_port"`

	// Persistence. Driver is "sqlite" or "postgres". DSN is the postgres
	// connection string; DBPath is the sqlite file path.
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseDSN    string `yaml:"database_dsn"`
	DBPath         string `yaml:"db_path"`
	MaxConns       int    `yaml:"max_conns"`

	// Generative / transcription backends.
	GoogleAPIKey      string `yaml:"google_api_key"`
	Model             string `yaml:"model"`
	GenerativeBaseURL string `yaml:"generative_base_url"`
	SpeechEndpoint    string `yaml:"speech_endpoint"`
	LanguageCode      string `yaml:"language_code"`

	// GenerateTimeoutSecs bounds every outbound backend call.
	GenerateTimeoutSecs int `yaml:"generate_timeout_secs"`

	// MaxBackendCalls bounds how many backend calls may be in flight at
	// once across all requests.
	MaxBackendCalls int `yaml:"max_backend_calls"`

	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTPPort:            DefaultHTTPPort,
		DatabaseDriver:      "sqlite",
		DBPath:              DBPath(),
		MaxConns:            4,
		Model:               DefaultModel,
		GenerativeBaseURL:   DefaultGenerativeBaseURL,
		SpeechEndpoint:      DefaultSpeechEndpoint,
		LanguageCode:        DefaultLanguageCode,
		GenerateTimeoutSecs: 60,
		MaxBackendCalls:     8,
		CORSOrigins:         []string{"*"},
	}
}

// DataDir returns the data directory (~/.intentify).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".intentify")
}

// DBPath returns the default sqlite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "intentify.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// Load reads settings.yaml (if present) over the defaults, then applies
// environment overrides. A missing settings file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies environment variable overrides.
// VERTEX_AI_API_KEY takes precedence over GOOGLE_API_KEY for the key.
func (c *Config) applyEnv() {
	if v := os.Getenv("VERTEX_AI_API_KEY"); v != "" {
		c.GoogleAPIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GoogleAPIKey = v
	}
	if v := os.Getenv("INTENTIFY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseDriver = "postgres"
		c.DatabaseDSN = v
	}
	if v := os.Getenv("INTENTIFY_DB_PATH"); v != "" {
		c.DatabaseDriver = "sqlite"
		c.DBPath = v
	}
	if v := os.Getenv("INTENTIFY_MODEL"); v != "" {
		c.Model = v
	}
}
