// Package config loads drivetools configuration.
//
// Values are resolved in order: built-in defaults, an optional TOML file,
// DRIVETOOLS_* environment variables, and finally command-line flags (applied
// by the cmd package on top of the returned Config).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DRIVETOOLS_"

// Transport names accepted by the MCP server.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds the resolved application configuration.
type Config struct {
	// CredentialsFile is the OAuth client-secrets file downloaded from the
	// Google Cloud console.
	CredentialsFile string
	// TokenFile holds the persisted access/refresh token pair.
	TokenFile string

	Auth      AuthConfig
	Retry     RetryConfig
	RateLimit RateLimitConfig
	Server    ServerConfig
	Log       LogConfig
}

// AuthConfig controls the interactive authorization flow.
type AuthConfig struct {
	// CallbackPort is the loopback port for the OAuth redirect. 0 picks a free port.
	CallbackPort int
	// Timeout bounds how long the flow waits for the browser redirect.
	Timeout     time.Duration
	OpenBrowser bool
}

// RetryConfig tunes retries of transient Drive API failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// RateLimitConfig tunes the client-side token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig controls the MCP server.
type ServerConfig struct {
	Transport   string
	HTTPAddr    string
	MetricsAddr string
	// ReadOnly hides the create, update and delete tools.
	ReadOnly bool
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		CredentialsFile: "credentials.json",
		TokenFile:       DefaultTokenFile(),
		Auth: AuthConfig{
			CallbackPort: 0,
			Timeout:      5 * time.Minute,
			OpenBrowser:  true,
		},
		Retry: RetryConfig{
			MaxAttempts:     4,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			MaxElapsed:      30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 8,
			Burst:             10,
		},
		Server: ServerConfig{
			Transport:   TransportStdio,
			HTTPAddr:    ":8080",
			MetricsAddr: ":9090",
			ReadOnly:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultTokenFile returns the default token location in the user cache dir.
func DefaultTokenFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "google.token"
	}
	return filepath.Join(dir, "drivetools", "google.token")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "drivetools", "config.toml")
}

// Load resolves configuration from defaults, the TOML file at path and the
// environment. An empty path means DefaultPath; a missing file at the default
// location is not an error, a missing file at an explicit path is.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := cfg.mergeFile(path); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, err
	}

	if err := cfg.mergeEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file must not be empty")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file must not be empty")
	}
	if c.Auth.CallbackPort < 0 || c.Auth.CallbackPort > 65535 {
		return fmt.Errorf("callback port %d out of range (0-65535)", c.Auth.CallbackPort)
	}
	if c.Auth.Timeout <= 0 {
		return fmt.Errorf("auth timeout must be positive, got %s", c.Auth.Timeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.InitialInterval <= 0 || c.Retry.MaxInterval <= 0 || c.Retry.MaxElapsed <= 0 {
		return fmt.Errorf("retry intervals must be positive")
	}
	if c.Retry.InitialInterval > c.Retry.MaxInterval {
		return fmt.Errorf("retry initial interval %s exceeds max interval %s", c.Retry.InitialInterval, c.Retry.MaxInterval)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (supported: %s, %s)", c.Server.Transport, TransportStdio, TransportStreamableHTTP)
	}
	return nil
}

// fileConfig mirrors the TOML layout. Durations are strings such as "30s".
type fileConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`

	Auth struct {
		CallbackPort *int   `toml:"callback_port"`
		Timeout      string `toml:"timeout"`
		OpenBrowser  *bool  `toml:"open_browser"`
	} `toml:"auth"`

	Retry struct {
		MaxAttempts     int    `toml:"max_attempts"`
		InitialInterval string `toml:"initial_interval"`
		MaxInterval     string `toml:"max_interval"`
		MaxElapsed      string `toml:"max_elapsed"`
	} `toml:"retry"`

	RateLimit struct {
		RequestsPerSecond float64 `toml:"requests_per_second"`
		Burst             int     `toml:"burst"`
	} `toml:"rate_limit"`

	Server struct {
		Transport   string `toml:"transport"`
		HTTPAddr    string `toml:"http_addr"`
		MetricsAddr string `toml:"metrics_addr"`
		ReadOnly    *bool  `toml:"read_only"`
	} `toml:"server"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.CredentialsFile, fc.CredentialsFile)
	setString(&c.TokenFile, fc.TokenFile)

	if fc.Auth.CallbackPort != nil {
		c.Auth.CallbackPort = *fc.Auth.CallbackPort
	}
	if fc.Auth.OpenBrowser != nil {
		c.Auth.OpenBrowser = *fc.Auth.OpenBrowser
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"auth.timeout", fc.Auth.Timeout, &c.Auth.Timeout},
		{"retry.initial_interval", fc.Retry.InitialInterval, &c.Retry.InitialInterval},
		{"retry.max_interval", fc.Retry.MaxInterval, &c.Retry.MaxInterval},
		{"retry.max_elapsed", fc.Retry.MaxElapsed, &c.Retry.MaxElapsed},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s has invalid duration %q: %w", d.key, d.raw, err)
		}
		*d.dst = parsed
	}

	if fc.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = fc.Retry.MaxAttempts
	}
	if fc.RateLimit.RequestsPerSecond != 0 {
		c.RateLimit.RequestsPerSecond = fc.RateLimit.RequestsPerSecond
	}
	if fc.RateLimit.Burst != 0 {
		c.RateLimit.Burst = fc.RateLimit.Burst
	}

	setString(&c.Server.Transport, fc.Server.Transport)
	setString(&c.Server.HTTPAddr, fc.Server.HTTPAddr)
	setString(&c.Server.MetricsAddr, fc.Server.MetricsAddr)
	if fc.Server.ReadOnly != nil {
		c.Server.ReadOnly = *fc.Server.ReadOnly
	}

	setString(&c.Log.Level, fc.Log.Level)
	setString(&c.Log.Format, fc.Log.Format)
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	env := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := env("CREDENTIALS_FILE"); ok {
		c.CredentialsFile = v
	}
	if v, ok := env("TOKEN_FILE"); ok {
		c.TokenFile = v
	}
	if v, ok := env("TRANSPORT"); ok {
		c.Server.Transport = v
	}
	if v, ok := env("HTTP_ADDR"); ok {
		c.Server.HTTPAddr = v
	}
	if v, ok := env("METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := env("LOG_FORMAT"); ok {
		c.Log.Format = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CALLBACK_PORT", &c.Auth.CallbackPort},
		{"RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts},
		{"RATE_LIMIT_BURST", &c.RateLimit.Burst},
	}
	for _, i := range ints {
		v, ok := env(i.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s has invalid integer %q: %w", EnvPrefix, i.name, v, err)
		}
		*i.dst = parsed
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"AUTH_TIMEOUT", &c.Auth.Timeout},
		{"RETRY_INITIAL_INTERVAL", &c.Retry.InitialInterval},
		{"RETRY_MAX_INTERVAL", &c.Retry.MaxInterval},
		{"RETRY_MAX_ELAPSED", &c.Retry.MaxElapsed},
	}
	for _, d := range durations {
		v, ok := env(d.name)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s has invalid duration %q: %w", EnvPrefix, d.name, v, err)
		}
		*d.dst = parsed
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"OPEN_BROWSER", &c.Auth.OpenBrowser},
		{"READ_ONLY", &c.Server.ReadOnly},
	}
	for _, b := range bools {
		v, ok := env(b.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s has invalid boolean %q: %w", EnvPrefix, b.name, v, err)
		}
		*b.dst = parsed
	}

	if v, ok := env("RATE_LIMIT_RPS"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_RPS has invalid number %q: %w", EnvPrefix, v, err)
		}
		c.RateLimit.RequestsPerSecond = parsed
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
