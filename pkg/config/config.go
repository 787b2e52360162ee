// Package config defines the connection target and monitor settings for a
// ServerQuery session, with viper-backed flag/env resolution.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each key is bound both to a CLI flag and to the environment
// variable the original deployment used (TEAMSPEAK_*).
const (
	KeyHost            = "host"
	KeyPort            = "port"
	KeyUser            = "user"
	KeyPassword        = "password"
	KeyServerID        = "server-id"
	KeyMonitorInterval = "monitor-interval"
	KeyMaxAttempts     = "max-reconnect-attempts"
	KeyInitialBackoff  = "initial-backoff"
	KeyMaxBackoff      = "max-backoff"
	KeyJoinTimeout     = "join-timeout"
	KeyIOTimeout       = "io-timeout"
)

// Environment variable names, kept compatible with existing deployments.
const (
	EnvHost     = "TEAMSPEAK_HOST"
	EnvPort     = "TEAMSPEAK_PORT"
	EnvUser     = "TEAMSPEAK_USER"
	EnvPassword = "TEAMSPEAK_PASSWORD"
	EnvServerID = "TEAMSPEAK_SERVER_ID"
)

// Default connection settings.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 10011
	DefaultUser     = "serveradmin"
	DefaultServerID = 1
)

// Default monitor settings.
const (
	DefaultMonitorInterval = 30 * time.Second
	DefaultMaxAttempts     = 5
	DefaultInitialBackoff  = 2 * time.Second
	DefaultMaxBackoff      = 60 * time.Second
	DefaultJoinTimeout     = 5 * time.Second
	DefaultIOTimeout       = 10 * time.Second
)

// SessionConfig is the immutable connection target and credentials of one
// ServerQuery session.
type SessionConfig struct {
	Host            string
	Port            int
	Username        string
	// Secret is tried as a ServerQuery password first, then as a one-time
	// privilege token; empty means anonymous.
	Secret          string
	VirtualServerID int
}

// Addr returns the host:port dial target.
func (c SessionConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the connection target for obvious misconfiguration.
func (c SessionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.VirtualServerID < 1 {
		return fmt.Errorf("virtual server id %d out of range", c.VirtualServerID)
	}
	if c.Secret != "" && c.Username == "" {
		return fmt.Errorf("user must not be empty when a password is set")
	}
	return nil
}

// MonitorConfig tunes the health monitor and the per-exchange deadline.
type MonitorConfig struct {
	// Interval between liveness probes.
	Interval time.Duration
	// MaxAttempts bounds one reconnection burst.
	MaxAttempts int
	// InitialBackoff is the delay before the second reconnect attempt;
	// it doubles per attempt up to MaxBackoff, without jitter.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// JoinTimeout bounds waiting for the monitor goroutine on Disconnect.
	JoinTimeout time.Duration
	// IOTimeout bounds every wire round trip; zero disables deadlines.
	IOTimeout time.Duration
}

// DefaultMonitorConfig returns the standard monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:       DefaultMonitorInterval,
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		JoinTimeout:    DefaultJoinTimeout,
		IOTimeout:      DefaultIOTimeout,
	}
}

// Validate checks the monitor settings.
func (c MonitorConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max reconnect attempts must be at least 1")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max backoff must not be below initial backoff")
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join timeout must be positive")
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("io timeout must not be negative")
	}
	return nil
}

// SetDefaults registers defaults and environment bindings on v. Flag
// bindings are added by the CLI layer on top of this.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, DefaultHost)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyUser, DefaultUser)
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyServerID, DefaultServerID)
	v.SetDefault(KeyMonitorInterval, DefaultMonitorInterval)
	v.SetDefault(KeyMaxAttempts, DefaultMaxAttempts)
	v.SetDefault(KeyInitialBackoff, DefaultInitialBackoff)
	v.SetDefault(KeyMaxBackoff, DefaultMaxBackoff)
	v.SetDefault(KeyJoinTimeout, DefaultJoinTimeout)
	v.SetDefault(KeyIOTimeout, DefaultIOTimeout)

	// Errors from BindEnv only occur for empty key lists.
	_ = v.BindEnv(KeyHost, EnvHost)
	_ = v.BindEnv(KeyPort, EnvPort)
	_ = v.BindEnv(KeyUser, EnvUser)
	_ = v.BindEnv(KeyPassword, EnvPassword)
	_ = v.BindEnv(KeyServerID, EnvServerID)
}

// Load resolves the session and monitor configuration from v and validates
// both.
func Load(v *viper.Viper) (SessionConfig, MonitorConfig, error) {
	session := SessionConfig{
		Host:            v.GetString(KeyHost),
		Port:            v.GetInt(KeyPort),
		Username:        v.GetString(KeyUser),
		Secret:          v.GetString(KeyPassword),
		VirtualServerID: v.GetInt(KeyServerID),
	}
	if err := session.Validate(); err != nil {
		return SessionConfig{}, MonitorConfig{}, fmt.Errorf("invalid connection config: %w", err)
	}

	monitor := MonitorConfig{
		Interval:       v.GetDuration(KeyMonitorInterval),
		MaxAttempts:    v.GetInt(KeyMaxAttempts),
		InitialBackoff: v.GetDuration(KeyInitialBackoff),
		MaxBackoff:     v.GetDuration(KeyMaxBackoff),
		JoinTimeout:    v.GetDuration(KeyJoinTimeout),
		IOTimeout:      v.GetDuration(KeyIOTimeout),
	}
	if err := monitor.Validate(); err != nil {
		return SessionConfig{}, MonitorConfig{}, fmt.Errorf("invalid monitor config: %w", err)
	}

	return session, monitor, nil
}
