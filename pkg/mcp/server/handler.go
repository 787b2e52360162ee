// Package server provides the MCP (Model Context Protocol) server exposing
// TeamSpeak ServerQuery administration tools.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/query"
	"github.com/teamspeak-mcp/tsmcp/pkg/session"
)

//go:generate mockgen -destination=mocks/mock_session.go -package=mocks -source=handler.go Session

// Session is the slice of the session manager the tool handlers need.
type Session interface {
	// Exec runs one ServerQuery command with exclusive session access.
	Exec(ctx context.Context, cmd *query.Command) (*query.Response, error)
	// IsConnected reports whether a usable session currently exists.
	IsConnected() bool
	// State returns the current connection state.
	State() session.State
	// Config returns the connection target.
	Config() config.SessionConfig
}

// Handler handles MCP tool requests against one ServerQuery session.
type Handler struct {
	session Session
}

// NewHandler creates a handler backed by the given session.
func NewHandler(s Session) *Handler {
	return &Handler{session: s}
}

// toolError maps a command failure to a tool result. Tool failures are
// reported to the model, never returned as protocol errors.
func toolError(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, session.ErrNotConnected) {
		return mcp.NewToolResultError("Not connected to the TeamSpeak server")
	}

	var qErr *query.Error
	if errors.As(err, &qErr) {
		if qErr.IsPermissionDenied() {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: insufficient permissions", action))
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %s", action, qErr.Msg))
	}

	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// parseError reports malformed tool arguments.
func parseError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err))
}
