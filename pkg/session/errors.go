package session

import (
	"errors"
	"fmt"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// ErrNotConnected is returned synchronously by WithSession and Exec whenever
// no usable session exists. Callers are never queued to wait for a future
// reconnect.
var ErrNotConnected = errors.New("not connected to the TeamSpeak server")

// TransportError wraps a socket-level failure (dial, read, write). It is
// fatal for the Connect call that produced it and is what the health monitor
// retries on; protocol-level rejections are *query.Error instead.
type TransportError struct {
	// Op is the operation that failed ("dial", "login", "whoami", ...).
	Op string
	// Addr is the connection target.
	Addr string
	// Err is the underlying error.
	Err error
}

// Error returns the error message.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s (%s): %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// newTransportError creates a transport error for an operation against addr.
func newTransportError(op, addr string, err error) *TransportError {
	return &TransportError{Op: op, Addr: addr, Err: err}
}

// isServerRejection reports whether err is a protocol-level status from the
// server rather than a transport failure.
func isServerRejection(err error) bool {
	var qErr *query.Error
	return errors.As(err, &qErr)
}
