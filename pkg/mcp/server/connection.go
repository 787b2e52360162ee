package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetConnectionInfo reports the session target and state without touching
// the wire.
func (h *Handler) GetConnectionInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.session.Config()

	result := map[string]interface{}{
		"host":              cfg.Host,
		"port":              cfg.Port,
		"virtual_server_id": cfg.VirtualServerID,
		"state":             h.session.State().String(),
		"connected":         h.session.IsConnected(),
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}
