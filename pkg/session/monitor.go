package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
)

// healthMonitor periodically probes the session and, on a transport-level
// probe failure, runs one bounded reconnection burst. It never runs more
// than one burst at a time and never overlaps bursts with probe ticks.
type healthMonitor struct {
	manager *Manager
	cfg     config.MonitorConfig
	policy  ReconnectPolicy

	cancel context.CancelFunc
	done   chan struct{}
}

func newHealthMonitor(m *Manager, cfg config.MonitorConfig, policy ReconnectPolicy) *healthMonitor {
	return &healthMonitor{
		manager: m,
		cfg:     cfg,
		policy:  policy,
		done:    make(chan struct{}),
	}
}

func (hm *healthMonitor) start() {
	ctx, cancel := context.WithCancel(context.Background())
	hm.cancel = cancel
	go hm.run(ctx)
}

// stop cancels the monitor and waits for its goroutine, bounded by join.
// A monitor stuck in wire I/O is abandoned after a warning; its pending
// state transitions are rejected by the manager once it is detached.
func (hm *healthMonitor) stop(join time.Duration) {
	hm.cancel()
	select {
	case <-hm.done:
	case <-time.After(join):
		logger.Warnw("health monitor did not stop in time", "timeout", join)
	}
}

func (hm *healthMonitor) run(ctx context.Context) {
	defer close(hm.done)

	ticker := time.NewTicker(hm.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := hm.manager.probe(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		logger.Warnw("liveness probe failed", "error", err)
		if !hm.manager.markReconnecting(hm) {
			// Detached during shutdown.
			return
		}

		if hm.reconnectBurst(ctx) {
			logger.Info("session restored")
			continue
		}
		if ctx.Err() != nil {
			return
		}

		// Exhausted. Give up until the next probe tick, which starts a
		// fresh burst with the attempt counter reset.
		logger.Warnw("reconnection attempts exhausted",
			"max_attempts", hm.cfg.MaxAttempts)
		hm.manager.abandonHandle(hm)
	}
}

// reconnectBurst runs up to MaxAttempts full reconnection attempts with
// exponential backoff between failures. It returns true once a usable
// session exists again.
func (hm *healthMonitor) reconnectBurst(ctx context.Context) bool {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		if hm.manager.reconnect(ctx, hm) {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("reconnect attempt %d/%d failed",
			attempt, hm.cfg.MaxAttempts)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(hm.policy.backOff()),
		backoff.WithMaxTries(uint(hm.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warnw("reconnect failed, backing off",
				"next_delay", next, "error", err)
		}),
	)
	return err == nil
}
