package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "credentials.json", cfg.CredentialsFile)
	assert.NotEmpty(t, cfg.TokenFile)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxElapsed)
	assert.Equal(t, 8.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.True(t, cfg.Server.ReadOnly)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
credentials_file = "/etc/drivetools/client.json"

[auth]
callback_port = 8085
timeout = "2m"
open_browser = false

[retry]
max_attempts = 6
initial_interval = "1s"

[rate_limit]
requests_per_second = 2.5

[server]
transport = "streamable-http"
read_only = false

[log]
format = "json"
`)

	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "/etc/drivetools/client.json", cfg.CredentialsFile)
	assert.Equal(t, 8085, cfg.Auth.CallbackPort)
	assert.Equal(t, 2*time.Minute, cfg.Auth.Timeout)
	assert.False(t, cfg.Auth.OpenBrowser)
	assert.Equal(t, 6, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxInterval, "unset keys keep defaults")
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, TransportStreamableHTTP, cfg.Server.Transport)
	assert.False(t, cfg.Server.ReadOnly)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
`)

	cfg, err := load(path, envMap(map[string]string{
		"DRIVETOOLS_LOG_LEVEL":          "warn",
		"DRIVETOOLS_TOKEN_FILE":         "/tmp/token.json",
		"DRIVETOOLS_RETRY_MAX_ATTEMPTS": "2",
		"DRIVETOOLS_RETRY_MAX_ELAPSED":  "5s",
		"DRIVETOOLS_RATE_LIMIT_RPS":     "1.5",
		"DRIVETOOLS_READ_ONLY":          "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/token.json", cfg.TokenFile)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxElapsed)
	assert.Equal(t, 1.5, cfg.RateLimit.RequestsPerSecond)
	assert.False(t, cfg.Server.ReadOnly)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, err := load(missing, noEnv)
	assert.Error(t, err, "explicit path must exist")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad toml", file: "credentials_file = "},
		{name: "bad file duration", file: "[auth]\ntimeout = \"soon\""},
		{name: "bad env duration", env: map[string]string{"DRIVETOOLS_AUTH_TIMEOUT": "forever"}},
		{name: "bad env int", env: map[string]string{"DRIVETOOLS_CALLBACK_PORT": "eighty"}},
		{name: "bad env bool", env: map[string]string{"DRIVETOOLS_OPEN_BROWSER": "maybe"}},
		{name: "bad env float", env: map[string]string{"DRIVETOOLS_RATE_LIMIT_RPS": "fast"}},
		{name: "invalid transport", env: map[string]string{"DRIVETOOLS_TRANSPORT": "sse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file)
			_, err := load(path, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty credentials", func(c *Config) { c.CredentialsFile = "" }},
		{"empty token file", func(c *Config) { c.TokenFile = "" }},
		{"negative port", func(c *Config) { c.Auth.CallbackPort = -1 }},
		{"port too large", func(c *Config) { c.Auth.CallbackPort = 70000 }},
		{"zero timeout", func(c *Config) { c.Auth.Timeout = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"initial above max", func(c *Config) { c.Retry.InitialInterval = time.Minute }},
		{"zero rps", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
