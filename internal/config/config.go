// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/signet.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultServerURL                 = "http://localhost:8080"
	defaultTickInterval              = 100 * time.Millisecond
	defaultPollInterval              = 5 * time.Second
	defaultHeartbeatInterval         = 15 * time.Second
	defaultErrorGrace                = 3 * time.Second
	defaultSlidesReadyDelay          = 1 * time.Second
	defaultOfflineThreshold          = 90 * time.Second
	defaultPreviewAddr               = ""
	envPrefix                        = "SIGNET"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Player   PlayerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// OfflineThreshold is how long a device may go without a heartbeat
	// before the server marks it offline.
	OfflineThreshold time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PlayerConfig holds device player configuration
type PlayerConfig struct {
	// ServerURL is the base URL of the device API service.
	ServerURL string
	// DeviceID identifies an already-registered device. Empty means the
	// player registers itself with PairingCode on startup.
	DeviceID    string
	PairingCode string
	APIToken    string

	TickInterval      time.Duration
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	ErrorGrace        time.Duration
	SlidesReadyDelay  time.Duration

	// PreviewAddr enables the local websocket preview listener when set
	// (e.g. "127.0.0.1:9090"). Empty disables it.
	PreviewAddr string
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/signet")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)
	v.SetDefault("server.offlinethreshold", defaultOfflineThreshold)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.migrationspath", "file://./migrations")

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("player.serverurl", defaultServerURL)
	v.SetDefault("player.tickinterval", defaultTickInterval)
	v.SetDefault("player.pollinterval", defaultPollInterval)
	v.SetDefault("player.heartbeatinterval", defaultHeartbeatInterval)
	v.SetDefault("player.errorgrace", defaultErrorGrace)
	v.SetDefault("player.slidesreadydelay", defaultSlidesReadyDelay)
	v.SetDefault("player.previewaddr", defaultPreviewAddr)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Server.OfflineThreshold <= 0 {
		return fmt.Errorf("invalid offline threshold: %v (must be > 0)", c.Server.OfflineThreshold)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Player.ServerURL == "" {
		return fmt.Errorf("player server URL cannot be empty")
	}
	for name, d := range map[string]time.Duration{
		"tick interval":      c.Player.TickInterval,
		"poll interval":      c.Player.PollInterval,
		"heartbeat interval": c.Player.HeartbeatInterval,
		"error grace":        c.Player.ErrorGrace,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid player %s: %v (must be > 0)", name, d)
		}
	}
	if c.Player.SlidesReadyDelay < 0 {
		return fmt.Errorf("invalid player slides ready delay: %v (must be >= 0)", c.Player.SlidesReadyDelay)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
