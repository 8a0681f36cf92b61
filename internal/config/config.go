// Package config provides YAML-based configuration management for the front-end server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Backend collaborator configuration
	Backend BackendConfig `yaml:"backend"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
	EnableGzip   bool   `yaml:"enableGzip"`
}

// BackendConfig points at the diagnosis and chat service
type BackendConfig struct {
	BaseURL        string `yaml:"baseURL"`
	PredictPath    string `yaml:"predictPath"`
	ChatPath       string `yaml:"chatPath"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// StorageConfig contains image blob storage settings
type StorageConfig struct {
	DataDirectory    string `yaml:"dataDirectory"`
	UploadsDirectory string `yaml:"uploadsDirectory"`
	MaxImageBytes    int64  `yaml:"maxImageBytes"`
}

// SessionConfig controls UI session lifetime
type SessionConfig struct {
	CookieName             string `yaml:"cookieName"`
	MaxSessions            int    `yaml:"maxSessions"`
	SessionTimeoutMinutes  int    `yaml:"sessionTimeoutMinutes"`
	CleanupIntervalMinutes int    `yaml:"cleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8080,
			BindAddress:  "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 90,
			IdleTimeout:  120,
			BodyLimit:    "20M",
			EnableGzip:   true,
		},
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:5000",
			PredictPath:    "/predict",
			ChatPath:       "/api/chat",
			TimeoutSeconds: 60,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MaxImageBytes:    16 * 1024 * 1024,
		},
		Session: SessionConfig{
			CookieName:             "km_session",
			MaxSessions:            500,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// created with the defaults. A .env file next to the working directory
// is loaded first so its values can act as overrides.
func LoadConfig(configPath string) (*AppConfig, error) {
	// .env is optional
	_ = godotenv.Load()

	var config *AppConfig
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config = DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = DefaultConfig()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# KrishiMitra front-end configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail at request time
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend baseURL is required")
	}
	if c.Storage.MaxImageBytes <= 0 {
		return fmt.Errorf("storage maxImageBytes must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookieName is required")
	}
	if c.Session.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("session sessionTimeoutMinutes must be positive")
	}
	if c.Session.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("session cleanupIntervalMinutes must be positive")
	}
	return nil
}

// envOverrides are the environment variables that override the file.
// Unset variables leave the file's values alone.
type envOverrides struct {
	Port       int    `env:"PORT"`
	BackendURL string `env:"BACKEND_URL"`
	DataDir    string `env:"DATA_DIR"`
	LogLevel   string `env:"LOG_LEVEL"`
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.BackendURL != "" {
		c.Backend.BaseURL = o.BackendURL
	}
	// DATA_DIR moves uploads along with it
	if o.DataDir != "" {
		c.Storage.DataDirectory = o.DataDir
		c.Storage.UploadsDirectory = filepath.Join(o.DataDir, "uploads")
	}
	if o.LogLevel != "" {
		c.Advanced.LogLevel = o.LogLevel
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// BackendTimeout returns the per-request timeout for backend calls
func (c *AppConfig) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// SessionTimeout returns how long an idle session is kept
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Session.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
