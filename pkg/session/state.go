package session

// State represents the connection state of a Manager. Exactly one manager
// owns the authoritative value; IsConnected readers get a best-effort
// atomic snapshot.
type State int32

const (
	// StateDisconnected indicates no active session.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an established, usable session.
	StateConnected

	// StateReconnecting indicates the health monitor is running a
	// reconnection burst.
	StateReconnecting

	// StateFailed indicates the server rejected the virtual-server
	// selection: the configuration is wrong and reconnecting with the
	// same settings cannot help. Session access behaves as Disconnected.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
