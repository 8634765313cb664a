// Package common provides shared utilities for Tether
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Tether
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration. The credential here
// is the elevated service credential used only by the connection store.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Directory DirectoryConfig `toml:"directory"`
	Provider  ProviderConfig  `toml:"provider"`
	Gemini    GeminiConfig    `toml:"gemini"`
}

// DirectoryConfig holds the external user directory configuration.
type DirectoryConfig struct {
	BaseURL   string `toml:"base_url"`
	AppID     string `toml:"app_id"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DirectoryConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ProviderConfig holds the OAuth provider endpoints and client credentials.
type ProviderConfig struct {
	AuthorizeURL string `toml:"authorize_url"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Timeout      string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AuthConfig holds linking-flow and session configuration.
type AuthConfig struct {
	// SiteURL is where linking outcomes redirect the browser.
	SiteURL string `toml:"site_url"`
	// RedirectBaseURL is the public base of this server, used to build the
	// OAuth redirect_uri registered with the provider.
	RedirectBaseURL string `toml:"redirect_base_url"`
	SessionCookie   string `toml:"session_cookie"`
	StateSecret     string `toml:"state_secret"`
	StateExpiry     string `toml:"state_expiry"`
	TokenCipherKey  string `toml:"token_cipher_key"`
}

// GetStateExpiry parses and returns the state token expiry duration.
func (c *AuthConfig) GetStateExpiry() time.Duration {
	d, err := time.ParseDuration(c.StateExpiry)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// RedirectURI returns the full OAuth callback URI for this server.
func (c *AuthConfig) RedirectURI() string {
	return strings.TrimRight(c.RedirectBaseURL, "/") + "/api/link/callback"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "tether",
			Database:  "tether",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			Directory: DirectoryConfig{
				BaseURL:   "https://parseapi.back4app.com",
				RateLimit: 10,
				Timeout:   "10s",
			},
			Provider: ProviderConfig{
				AuthorizeURL: "https://api.supabase.com/v1/oauth/authorize",
				TokenURL:     "https://api.supabase.com/v1/oauth/token",
				Timeout:      "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Auth: AuthConfig{
			SiteURL:         "http://localhost:3000",
			RedirectBaseURL: "http://localhost:8080",
			SessionCookie:   "session_token",
			StateExpiry:     "10m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TETHER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TETHER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TETHER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TETHER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("TETHER_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("TETHER_STORAGE_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("TETHER_STORAGE_DATABASE"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("TETHER_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("TETHER_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	// Client overrides
	if v := os.Getenv("TETHER_DIRECTORY_URL"); v != "" {
		config.Clients.Directory.BaseURL = v
	}
	if v := os.Getenv("TETHER_DIRECTORY_APP_ID"); v != "" {
		config.Clients.Directory.AppID = v
	}
	if v := os.Getenv("TETHER_PROVIDER_AUTHORIZE_URL"); v != "" {
		config.Clients.Provider.AuthorizeURL = v
	}
	if v := os.Getenv("TETHER_PROVIDER_TOKEN_URL"); v != "" {
		config.Clients.Provider.TokenURL = v
	}
	if v := os.Getenv("TETHER_PROVIDER_CLIENT_ID"); v != "" {
		config.Clients.Provider.ClientID = v
	}
	if v := os.Getenv("TETHER_PROVIDER_CLIENT_SECRET"); v != "" {
		config.Clients.Provider.ClientSecret = v
	}

	// Auth overrides
	if v := os.Getenv("TETHER_SITE_URL"); v != "" {
		config.Auth.SiteURL = v
	}
	if v := os.Getenv("TETHER_REDIRECT_BASE_URL"); v != "" {
		config.Auth.RedirectBaseURL = v
	}
	if v := os.Getenv("TETHER_SESSION_COOKIE"); v != "" {
		config.Auth.SessionCookie = v
	}
	if v := os.Getenv("TETHER_STATE_SECRET"); v != "" {
		config.Auth.StateSecret = v
	}
	if v := os.Getenv("TETHER_TOKEN_CIPHER_KEY"); v != "" {
		config.Auth.TokenCipherKey = v
	}
}

// ResolveAPIKey resolves an API key from environment variables with a
// config-file fallback.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "TETHER_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
