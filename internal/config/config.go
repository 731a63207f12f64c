package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Media    MediaConfig    `yaml:"media"`
	Session  SessionConfig  `yaml:"session"`
	Feed     FeedConfig     `yaml:"feed"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MediaConfig holds audio and cover storage settings
type MediaConfig struct {
	SongsDir       string `yaml:"songs_dir"`
	CoversDir      string `yaml:"covers_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// SessionConfig holds session cookie settings. Secret has no default; the
// server refuses to start without one (set it here or via SESSION_SECRET).
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	CookieName string `yaml:"cookie_name"`
	TTL        string `yaml:"ttl"`
	Secure     bool   `yaml:"secure"`
}

// FeedConfig holds home-page feed settings
type FeedConfig struct {
	SearchLimit int `yaml:"search_limit"`
}

// DisplayConfig maps category names to card styles
type DisplayConfig struct {
	Styles        map[string]string `yaml:"styles"`
	FallbackStyle string            `yaml:"fallback_style"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// defaults returns a Config with sensible defaults
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5001,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "30s",
		},
		Database: DatabaseConfig{
			Path: "data/tunebox.db",
		},
		Media: MediaConfig{
			SongsDir:       "static/songs",
			CoversDir:      "static/covers",
			MaxUploadBytes: 16 << 20,
		},
		Session: SessionConfig{
			CookieName: "tunebox_session",
			TTL:        "168h",
		},
		Feed: FeedConfig{
			SearchLimit: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order; later files override earlier ones.
// Environment variables override file values.
func Load(paths ...string) (*Config, error) {
	cfg := defaults()

	for _, path := range paths {
		if err := loadFile(cfg, path); err != nil {
			// Skip missing files silently (config.local.yaml may not exist)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadFile reads a YAML file and merges into cfg
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return nil
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeConfig copies non-zero values from src to dst
func mergeConfig(dst, src *Config) {
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	setString(&dst.Server.ReadTimeout, src.Server.ReadTimeout)
	setString(&dst.Server.WriteTimeout, src.Server.WriteTimeout)
	setString(&dst.Server.ShutdownTimeout, src.Server.ShutdownTimeout)

	setString(&dst.Database.Path, src.Database.Path)

	setString(&dst.Media.SongsDir, src.Media.SongsDir)
	setString(&dst.Media.CoversDir, src.Media.CoversDir)
	if src.Media.MaxUploadBytes != 0 {
		dst.Media.MaxUploadBytes = src.Media.MaxUploadBytes
	}

	setString(&dst.Session.Secret, src.Session.Secret)
	setString(&dst.Session.CookieName, src.Session.CookieName)
	setString(&dst.Session.TTL, src.Session.TTL)
	if src.Session.Secure {
		dst.Session.Secure = true
	}

	if src.Feed.SearchLimit != 0 {
		dst.Feed.SearchLimit = src.Feed.SearchLimit
	}

	if len(src.Display.Styles) > 0 {
		if dst.Display.Styles == nil {
			dst.Display.Styles = make(map[string]string, len(src.Display.Styles))
		}
		maps.Copy(dst.Display.Styles, src.Display.Styles)
	}
	setString(&dst.Display.FallbackStyle, src.Display.FallbackStyle)

	setString(&dst.Log.Level, src.Log.Level)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setString(&cfg.Database.Path, os.Getenv("DB_PATH"))
	setString(&cfg.Media.SongsDir, os.Getenv("SONGS_DIR"))
	setString(&cfg.Media.CoversDir, os.Getenv("COVERS_DIR"))
	setString(&cfg.Session.Secret, os.Getenv("SESSION_SECRET"))
	setString(&cfg.Log.Level, os.Getenv("LOG_LEVEL"))
}

// validate checks required fields and value constraints
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if cfg.Media.SongsDir == "" || cfg.Media.CoversDir == "" {
		return fmt.Errorf("media.songs_dir and media.covers_dir are required")
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("media.max_upload_bytes must be positive, got %d", cfg.Media.MaxUploadBytes)
	}
	if cfg.Feed.SearchLimit < 1 {
		return fmt.Errorf("feed.search_limit must be at least 1, got %d", cfg.Feed.SearchLimit)
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}

	durations := map[string]func() (time.Duration, error){
		"server.read_timeout":     cfg.GetReadTimeout,
		"server.write_timeout":    cfg.GetWriteTimeout,
		"server.shutdown_timeout": cfg.GetShutdownTimeout,
		"session.ttl":             cfg.GetSessionTTL,
	}
	for name, get := range durations {
		if _, err := get(); err != nil {
			return fmt.Errorf("%s invalid: %w", name, err)
		}
	}

	return nil
}

// Helper methods to get parsed duration values

func (c *Config) GetReadTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ReadTimeout)
}

func (c *Config) GetWriteTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.WriteTimeout)
}

func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

func (c *Config) GetSessionTTL() (time.Duration, error) {
	return time.ParseDuration(c.Session.TTL)
}
