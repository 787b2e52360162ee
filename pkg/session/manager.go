package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// quitTimeout bounds the best-effort protocol goodbye during Disconnect.
const quitTimeout = time.Second

// Manager owns the single ServerQuery session handle. It is constructed
// once and injected into every consumer; there is no package-level instance.
type Manager struct {
	cfg    config.SessionConfig
	monCfg config.MonitorConfig
	auth   *AuthNegotiator
	policy ReconnectPolicy

	// mu serializes every wire exchange and guards handle.
	mu     sync.Mutex
	handle *query.Conn

	// monMu guards monitor separately, so Disconnect can signal the
	// monitor without queuing behind an in-flight exchange.
	monMu   sync.Mutex
	monitor *healthMonitor

	state atomic.Int32
}

// NewManager creates a manager for the given target. No connection is
// opened until Connect.
func NewManager(cfg config.SessionConfig, monCfg config.MonitorConfig) *Manager {
	return &Manager{
		cfg:    cfg,
		monCfg: monCfg,
		auth:   NewAuthNegotiator(),
		policy: newReconnectPolicy(monCfg),
	}
}

// Config returns the immutable connection target.
func (m *Manager) Config() config.SessionConfig {
	return m.cfg
}

// Policy returns the reconnect policy derived from the monitor config.
func (m *Manager) Policy() ReconnectPolicy {
	return m.policy
}

// State returns a best-effort snapshot of the connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsConnected reports whether a usable session currently exists. It takes
// no lock and may race with concurrent state changes.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

func (m *Manager) setState(s State) {
	old := State(m.state.Swap(int32(s)))
	if old != s {
		logger.Debugw("connection state changed", "from", old.String(), "to", s.String())
	}
}

// Connect opens the transport, scopes the session to the configured virtual
// server, runs the authentication chain and starts the health monitor. It
// returns true whenever a live session handle exists afterwards; an
// anonymous, reduced-privilege session is a valid outcome, not an error.
// Only transport failures (and a rejected virtual-server selection) yield
// false.
func (m *Manager) Connect(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := m.connectLocked(ctx, true)
	if ok {
		m.startMonitor()
	}
	return ok
}

// connectLocked performs one full connection attempt with m.mu held.
// external distinguishes caller-issued Connect from the monitor's
// reconnection path, which keeps StateReconnecting on failure.
func (m *Manager) connectLocked(ctx context.Context, external bool) bool {
	failState := StateReconnecting
	if external {
		failState = StateDisconnected
		m.setState(StateConnecting)
	}

	// Creating a new handle always retires the previous one first.
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}

	addr := m.cfg.Addr()
	conn, err := query.Dial(ctx, addr, m.monCfg.IOTimeout)
	if err != nil {
		logger.Errorw("connection failed", "addr", addr, "error", err)
		m.setState(failState)
		return false
	}

	// Scope the session to one virtual server.
	use := query.NewCommand("use").ParamInt("sid", m.cfg.VirtualServerID)
	if _, err := conn.Exec(ctx, use); err != nil {
		conn.Close()
		if external && isServerRejection(err) {
			// The server is reachable but refuses the configured
			// instance; retrying with the same settings cannot help.
			logger.Errorw("virtual server selection rejected",
				"sid", m.cfg.VirtualServerID, "error", err)
			m.setState(StateFailed)
		} else {
			logger.Errorw("virtual server selection failed",
				"sid", m.cfg.VirtualServerID, "error", err)
			m.setState(failState)
		}
		return false
	}

	// Authentication rejections are tolerated; only transport failures
	// during the exchange abort the attempt.
	strategy, err := m.auth.Negotiate(ctx, conn, m.cfg)
	if err != nil {
		conn.Close()
		logger.Errorw("authentication aborted", "addr", addr, "error", err)
		m.setState(failState)
		return false
	}
	if strategy == (anonymousStrategy{}).Name() && m.cfg.Secret != "" {
		logger.Warn("all authentication strategies rejected, continuing with anonymous permissions")
	} else {
		logger.Infow("session authenticated", "strategy", strategy)
	}

	// Reachability check; a failure is informational only.
	if _, err := conn.Exec(ctx, query.NewCommand("whoami")); err != nil {
		logger.Warnw("connectivity check failed", "error", err)
	}

	m.handle = conn
	m.setState(StateConnected)
	logger.Infow("control session established", "addr", addr, "sid", m.cfg.VirtualServerID)
	return true
}

// Disconnect tears the session down: it stops the health monitor (joining
// it with the configured timeout), sends a best-effort protocol goodbye and
// closes the transport. It is idempotent and always ends Disconnected.
func (m *Manager) Disconnect() {
	m.stopMonitor()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
		_, _ = m.handle.Exec(ctx, query.NewCommand("quit"))
		cancel()

		m.handle.Close()
		m.handle = nil
		logger.Info("control session closed")
	}
	m.setState(StateDisconnected)
}

// WithSession grants fn exclusive access to the session handle, holding the
// manager mutex for the duration of fn's wire I/O. It fails immediately
// with ErrNotConnected when no usable session exists; callers are never
// parked to wait for a reconnect.
func (m *Manager) WithSession(ctx context.Context, fn func(ctx context.Context, conn *query.Conn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateConnected || m.handle == nil {
		return ErrNotConnected
	}
	return fn(ctx, m.handle)
}

// Exec runs one command with exclusive session access.
func (m *Manager) Exec(ctx context.Context, cmd *query.Command) (*query.Response, error) {
	var resp *query.Response
	err := m.WithSession(ctx, func(ctx context.Context, conn *query.Conn) error {
		var err error
		resp, err = conn.Exec(ctx, cmd)
		return err
	})
	return resp, err
}

// WithResult runs fn with exclusive session access and returns its typed
// result.
func WithResult[T any](ctx context.Context, m *Manager, fn func(ctx context.Context, conn *query.Conn) (T, error)) (T, error) {
	var result T
	err := m.WithSession(ctx, func(ctx context.Context, conn *query.Conn) error {
		var err error
		result, err = fn(ctx, conn)
		return err
	})
	return result, err
}

// probe checks liveness through the manager's own locked accessor. A
// protocol-level rejection still proves the link is alive; only transport
// failures (or a missing handle) count as probe failures.
func (m *Manager) probe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return ErrNotConnected
	}

	_, err := m.handle.Exec(ctx, query.NewCommand("whoami"))
	if err != nil && isServerRejection(err) {
		return nil
	}
	return err
}

// startMonitor starts the health monitor if it is not already running.
func (m *Manager) startMonitor() {
	m.monMu.Lock()
	defer m.monMu.Unlock()

	if m.monitor != nil {
		return
	}
	m.monitor = newHealthMonitor(m, m.monCfg, m.policy)
	m.monitor.start()
}

// stopMonitor detaches and joins the monitor. It deliberately avoids m.mu:
// the monitor must be cancellable while an exchange (or a reconnect
// attempt) is still holding the exchange mutex. Safe to call when no
// monitor is running.
func (m *Manager) stopMonitor() {
	m.monMu.Lock()
	monitor := m.monitor
	m.monitor = nil
	m.monMu.Unlock()

	if monitor != nil {
		monitor.stop(m.monCfg.JoinTimeout)
	}
}

// isActiveMonitor reports whether hm is still the attached monitor.
func (m *Manager) isActiveMonitor(hm *healthMonitor) bool {
	m.monMu.Lock()
	defer m.monMu.Unlock()
	return m.monitor == hm
}

// markReconnecting flips the state to Reconnecting on behalf of hm. It
// refuses when hm is no longer the active monitor (shutdown race).
func (m *Manager) markReconnecting(hm *healthMonitor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isActiveMonitor(hm) {
		return false
	}
	m.setState(StateReconnecting)
	return true
}

// reconnect performs one full reconnection attempt (re-authentication
// included) on behalf of hm.
func (m *Manager) reconnect(ctx context.Context, hm *healthMonitor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isActiveMonitor(hm) {
		return false
	}
	// A caller-issued Connect may have restored the session while this
	// burst was waiting out a backoff; adopt the fresh handle instead of
	// retiring it.
	if m.handle != nil && m.State() == StateConnected {
		return true
	}
	return m.connectLocked(ctx, false)
}

// abandonHandle clears the dead handle after an exhausted reconnection
// burst and reverts to Disconnected, leaving the monitor ticking.
func (m *Manager) abandonHandle(hm *healthMonitor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isActiveMonitor(hm) {
		return
	}
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	m.setState(StateDisconnected)
}
