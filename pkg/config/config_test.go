package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)

	session, monitor, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "localhost", session.Host)
	assert.Equal(t, 10011, session.Port)
	assert.Equal(t, "serveradmin", session.Username)
	assert.Empty(t, session.Secret)
	assert.Equal(t, 1, session.VirtualServerID)
	assert.Equal(t, "localhost:10011", session.Addr())

	assert.Equal(t, 30*time.Second, monitor.Interval)
	assert.Equal(t, 5, monitor.MaxAttempts)
	assert.Equal(t, 2*time.Second, monitor.InitialBackoff)
	assert.Equal(t, 60*time.Second, monitor.MaxBackoff)
	assert.Equal(t, 5*time.Second, monitor.JoinTimeout)
	assert.Equal(t, 10*time.Second, monitor.IOTimeout)
}

func TestLoadEnvOverrides(t *testing.T) { //nolint:paralleltest // uses process env
	t.Setenv(EnvHost, "ts.example.com")
	t.Setenv(EnvPort, "10022")
	t.Setenv(EnvPassword, "hunter2")
	t.Setenv(EnvServerID, "3")

	v := viper.New()
	SetDefaults(v)

	session, _, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "ts.example.com", session.Host)
	assert.Equal(t, 10022, session.Port)
	assert.Equal(t, "hunter2", session.Secret)
	assert.Equal(t, 3, session.VirtualServerID)
	assert.Equal(t, "ts.example.com:10022", session.Addr())
}

func TestSessionConfigValidate(t *testing.T) {
	t.Parallel()

	valid := SessionConfig{Host: "localhost", Port: 10011, Username: "serveradmin", VirtualServerID: 1}

	tests := []struct {
		name    string
		mutate  func(*SessionConfig)
		wantErr string
	}{
		{"valid", func(*SessionConfig) {}, ""},
		{"empty host", func(c *SessionConfig) { c.Host = "" }, "host"},
		{"port too low", func(c *SessionConfig) { c.Port = 0 }, "port"},
		{"port too high", func(c *SessionConfig) { c.Port = 70000 }, "port"},
		{"bad server id", func(c *SessionConfig) { c.VirtualServerID = 0 }, "virtual server id"},
		{"secret without user", func(c *SessionConfig) { c.Username = ""; c.Secret = "token" }, "user"},
		{"anonymous without user is fine", func(c *SessionConfig) { c.Username = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMonitorConfigValidate(t *testing.T) {
	t.Parallel()

	valid := DefaultMonitorConfig()

	tests := []struct {
		name    string
		mutate  func(*MonitorConfig)
		wantErr bool
	}{
		{"defaults are valid", func(*MonitorConfig) {}, false},
		{"zero interval", func(c *MonitorConfig) { c.Interval = 0 }, true},
		{"zero attempts", func(c *MonitorConfig) { c.MaxAttempts = 0 }, true},
		{"zero initial backoff", func(c *MonitorConfig) { c.InitialBackoff = 0 }, true},
		{"max below initial", func(c *MonitorConfig) { c.MaxBackoff = time.Second }, true},
		{"zero join timeout", func(c *MonitorConfig) { c.JoinTimeout = 0 }, true},
		{"negative io timeout", func(c *MonitorConfig) { c.IOTimeout = -time.Second }, true},
		{"zero io timeout disables deadlines", func(c *MonitorConfig) { c.IOTimeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
