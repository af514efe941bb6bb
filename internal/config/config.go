// Package config handles feedctl configuration loading using viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. ARTICLEFEED_API_BASE_URL.
const EnvPrefix = "ARTICLEFEED"

// Config is the complete feedctl configuration.
type Config struct {
	API             APIConfig    `mapstructure:"api"`
	Stream          StreamConfig `mapstructure:"stream"`
	Sinks           SinksConfig  `mapstructure:"sinks"`
	Log             LogConfig    `mapstructure:"log"`
	CredentialsFile string       `mapstructure:"credentials_file"` // Empty = <user config dir>/feedctl/credentials

	settings map[string]interface{}
}

// ─── API ───

// APIConfig locates the article feed API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // JSON calls only, image streams are bounded by the caller
}

// ─── Image stream ───

// StreamConfig tunes image stream decoding.
type StreamConfig struct {
	Boundary  string `mapstructure:"boundary"`   // Used when the server does not announce one
	ChunkSize int    `mapstructure:"chunk_size"` // Bytes per read
	MaxFrames int    `mapstructure:"max_frames"` // 0 = no limit
}

// ─── Sinks ───

// SinksConfig selects where decoded images go.
type SinksConfig struct {
	Dir     DirSinkConfig     `mapstructure:"dir"`
	Journal JournalSinkConfig `mapstructure:"journal"`
	NATS    NATSSinkConfig    `mapstructure:"nats"`
	Redis   RedisSinkConfig   `mapstructure:"redis"`
}

// DirSinkConfig writes images as files.
type DirSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Prefix  string `mapstructure:"prefix"`
}

// JournalSinkConfig appends images to a record log.
type JournalSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// NATSSinkConfig publishes images to NATS.
type NATSSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// RedisSinkConfig caches images in Redis.
type RedisSinkConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ─── Logging ───

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // trace / debug / info / warn / error
	Format string           `mapstructure:"format"` // json / text
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// Load reads the configuration. An empty path uses defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.settings = v.AllSettings()

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values for every key so that each one can be
// overridden from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("stream.boundary", "--frame")
	v.SetDefault("stream.chunk_size", 32*1024)
	v.SetDefault("stream.max_frames", 0)

	v.SetDefault("sinks.dir.enabled", false)
	v.SetDefault("sinks.dir.path", "images")
	v.SetDefault("sinks.dir.prefix", "article")
	v.SetDefault("sinks.journal.enabled", false)
	v.SetDefault("sinks.journal.path", "images.journal")
	v.SetDefault("sinks.nats.enabled", false)
	v.SetDefault("sinks.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("sinks.nats.subject", "articlefeed.images")
	v.SetDefault("sinks.redis.enabled", false)
	v.SetDefault("sinks.redis.addr", "127.0.0.1:6379")
	v.SetDefault("sinks.redis.password", "")
	v.SetDefault("sinks.redis.db", 0)
	v.SetDefault("sinks.redis.prefix", "articlefeed:image")
	v.SetDefault("sinks.redis.ttl", "300s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "feedctl.log")
	v.SetDefault("log.file.rotation.max_size_mb", 10)
	v.SetDefault("log.file.rotation.max_age_days", 7)
	v.SetDefault("log.file.rotation.max_backups", 3)
	v.SetDefault("log.file.rotation.compress", false)

	v.SetDefault("credentials_file", "")
}

// ValidateAndApplyDefaults validates configuration and fills runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── API ──
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q (must be an http or https URL)", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	// ── Stream ──
	if cfg.Stream.Boundary == "" {
		return fmt.Errorf("stream.boundary must not be empty")
	}
	if cfg.Stream.ChunkSize <= 0 {
		return fmt.Errorf("stream.chunk_size must be positive, got %d", cfg.Stream.ChunkSize)
	}
	if cfg.Stream.MaxFrames < 0 {
		return fmt.Errorf("stream.max_frames must not be negative, got %d", cfg.Stream.MaxFrames)
	}

	// ── Sinks ──
	if cfg.Sinks.Dir.Enabled && cfg.Sinks.Dir.Path == "" {
		return fmt.Errorf("sinks.dir.path is required when sinks.dir.enabled=true")
	}
	if cfg.Sinks.Journal.Enabled && cfg.Sinks.Journal.Path == "" {
		return fmt.Errorf("sinks.journal.path is required when sinks.journal.enabled=true")
	}
	if cfg.Sinks.NATS.Enabled && (cfg.Sinks.NATS.URL == "" || cfg.Sinks.NATS.Subject == "") {
		return fmt.Errorf("sinks.nats.url and sinks.nats.subject are required when sinks.nats.enabled=true")
	}
	if cfg.Sinks.Redis.Enabled && cfg.Sinks.Redis.Addr == "" {
		return fmt.Errorf("sinks.redis.addr is required when sinks.redis.enabled=true")
	}

	// ── Log ──
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("log.file.path is required when log.file.enabled=true")
	}

	// ── Credentials ──
	if cfg.CredentialsFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("cannot locate credentials file: %w", err)
		}
		cfg.CredentialsFile = filepath.Join(dir, "feedctl", "credentials")
	}
	return nil
}

// YAML renders the merged settings (file, environment and defaults) with
// secrets masked.
func (cfg *Config) YAML() ([]byte, error) {
	out := cfg.settings
	if cfg.Sinks.Redis.Password != "" {
		out = redact(cfg.settings, "sinks", "redis", "password")
	}
	return yaml.Marshal(out)
}

// redact returns a copy of settings with the value at path replaced.
func redact(settings map[string]interface{}, path ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	if len(path) == 1 {
		if _, ok := out[path[0]]; ok {
			out[path[0]] = "******"
		}
		return out
	}
	if sub, ok := out[path[0]].(map[string]interface{}); ok {
		out[path[0]] = redact(sub, path[1:]...)
	}
	return out
}
