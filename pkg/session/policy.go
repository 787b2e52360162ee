package session

import (
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
)

// ReconnectPolicy computes the delay between attempts of one reconnection
// burst and bounds the burst length. The sequence is deterministic (no
// jitter): InitialDelay, doubling per attempt, capped at MaxDelay.
type ReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// newReconnectPolicy derives the policy from the monitor configuration.
func newReconnectPolicy(cfg config.MonitorConfig) ReconnectPolicy {
	return ReconnectPolicy{
		InitialDelay: cfg.InitialBackoff,
		MaxDelay:     cfg.MaxBackoff,
		MaxAttempts:  cfg.MaxAttempts,
	}
}

// Delay returns the wait after the given failed attempt (1-based):
// min(InitialDelay * 2^(attempt-1), MaxDelay).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// backOff builds the backoff source for one burst. RandomizationFactor zero
// keeps the sequence identical to Delay.
func (p ReconnectPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return b
}
