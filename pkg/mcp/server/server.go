package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
	"github.com/teamspeak-mcp/tsmcp/pkg/versions"
)

// Transport modes of the MCP server.
const (
	ModeStdio          = "stdio"
	ModeStreamableHTTP = "streamable-http"
)

// DefaultMCPPort is the default port for the streamable HTTP transport.
const DefaultMCPPort = "8727"

// Config holds the configuration for the MCP server
type Config struct {
	Host string
	Port string
	Mode string
}

// Server represents the TeamSpeak MCP server
type Server struct {
	config     *Config
	mcpServer  *server.MCPServer
	httpServer *http.Server
	handler    *Handler
}

// New creates a new TeamSpeak MCP server on top of the given session.
func New(config *Config, sess Session) (*Server, error) {
	versionInfo := versions.GetVersionInfo()
	mcpServer := server.NewMCPServer(
		"teamspeak-mcp",
		versionInfo.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	handler := NewHandler(sess)
	registerTools(mcpServer, handler)

	s := &Server{
		config:    config,
		mcpServer: mcpServer,
		handler:   handler,
	}

	switch config.Mode {
	case ModeStdio:
	case ModeStreamableHTTP:
		streamableServer := server.NewStreamableHTTPServer(
			mcpServer,
			server.WithEndpointPath("/mcp"),
		)
		s.httpServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Host, config.Port),
			Handler:           streamableServer,
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		}
	default:
		return nil, fmt.Errorf("unknown transport mode %q", config.Mode)
	}

	return s, nil
}

// Start serves MCP requests and blocks until the transport shuts down.
func (s *Server) Start() error {
	if s.config.Mode == ModeStdio {
		logger.Info("Starting TeamSpeak MCP server on stdio")
		if err := server.ServeStdio(s.mcpServer); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	}

	logger.Infof("Starting TeamSpeak MCP server on http://%s:%s/mcp", s.config.Host, s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the MCP server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down MCP server...")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetAddress returns the server address for the HTTP transport.
func (s *Server) GetAddress() string {
	if s.config.Mode == ModeStdio {
		return "stdio"
	}
	return fmt.Sprintf("http://%s:%s/mcp", s.config.Host, s.config.Port)
}

// registerTools registers all MCP tools with the server
func registerTools(mcpServer *server.MCPServer, handler *Handler) {
	mcpServer.AddTool(mcp.Tool{
		Name:        "send_channel_message",
		Description: "Send a text message to a TeamSpeak channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message text to send",
				},
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Target channel ID (defaults to the current channel)",
				},
			},
			Required: []string{"message"},
		},
	}, handler.SendChannelMessage)

	mcpServer.AddTool(mcp.Tool{
		Name:        "send_private_message",
		Description: "Send a private text message to a client",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Target client ID",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message text to send",
				},
			},
			Required: []string{"client_id", "message"},
		},
	}, handler.SendPrivateMessage)

	mcpServer.AddTool(mcp.Tool{
		Name:        "poke_client",
		Description: "Send a poke (popup notification) to a client",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Target client ID",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Poke message",
				},
			},
			Required: []string{"client_id", "message"},
		},
	}, handler.PokeClient)

	mcpServer.AddTool(mcp.Tool{
		Name:        "list_clients",
		Description: "List the clients connected to the TeamSpeak server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListClients)

	mcpServer.AddTool(mcp.Tool{
		Name:        "list_channels",
		Description: "List the channels of the TeamSpeak server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListChannels)

	mcpServer.AddTool(mcp.Tool{
		Name:        "channel_info",
		Description: "Get detailed information about a channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Channel ID to inspect",
				},
			},
			Required: []string{"channel_id"},
		},
	}, handler.ChannelInfo)

	mcpServer.AddTool(mcp.Tool{
		Name:        "create_channel",
		Description: "Create a new channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Channel name",
				},
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "Optional channel topic",
				},
				"parent_id": map[string]interface{}{
					"type":        "number",
					"description": "Optional parent channel ID",
				},
				"permanent": map[string]interface{}{
					"type":        "boolean",
					"description": "Create a permanent channel (default temporary)",
				},
				"password": map[string]interface{}{
					"type":        "string",
					"description": "Optional channel password",
				},
			},
			Required: []string{"name"},
		},
	}, handler.CreateChannel)

	mcpServer.AddTool(mcp.Tool{
		Name:        "update_channel",
		Description: "Update properties of an existing channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Channel ID to update",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "New channel name",
				},
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "New channel topic",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "New channel description",
				},
				"password": map[string]interface{}{
					"type":        "string",
					"description": "New channel password (empty string removes it)",
				},
				"max_clients": map[string]interface{}{
					"type":        "number",
					"description": "New client limit",
				},
				"permanent": map[string]interface{}{
					"type":        "boolean",
					"description": "Make the channel permanent or temporary",
				},
			},
			Required: []string{"channel_id"},
		},
	}, handler.UpdateChannel)

	mcpServer.AddTool(mcp.Tool{
		Name:        "delete_channel",
		Description: "Delete a channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Channel ID to delete",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Delete even when clients are in the channel",
				},
			},
			Required: []string{"channel_id"},
		},
	}, handler.DeleteChannel)

	mcpServer.AddTool(mcp.Tool{
		Name:        "move_client",
		Description: "Move a client to another channel",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Client ID to move",
				},
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Destination channel ID",
				},
			},
			Required: []string{"client_id", "channel_id"},
		},
	}, handler.MoveClient)

	mcpServer.AddTool(mcp.Tool{
		Name:        "kick_client",
		Description: "Kick a client from its channel or from the server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Client ID to kick",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Optional kick reason shown to the client",
				},
				"from_server": map[string]interface{}{
					"type":        "boolean",
					"description": "Kick from the server instead of the channel",
				},
			},
			Required: []string{"client_id"},
		},
	}, handler.KickClient)

	mcpServer.AddTool(mcp.Tool{
		Name:        "ban_client",
		Description: "Ban a client from the server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Client ID to ban",
				},
				"duration": map[string]interface{}{
					"type":        "number",
					"description": "Ban duration in seconds (0 or omitted means permanent)",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Optional ban reason",
				},
			},
			Required: []string{"client_id"},
		},
	}, handler.BanClient)

	mcpServer.AddTool(mcp.Tool{
		Name:        "list_bans",
		Description: "List the active ban rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListBans)

	mcpServer.AddTool(mcp.Tool{
		Name:        "server_info",
		Description: "Get status and statistics of the virtual server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ServerInfo)

	mcpServer.AddTool(mcp.Tool{
		Name:        "list_server_groups",
		Description: "List the server groups",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListServerGroups)

	mcpServer.AddTool(mcp.Tool{
		Name:        "assign_client_to_group",
		Description: "Add a connected client to a server group",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"client_id": map[string]interface{}{
					"type":        "number",
					"description": "Client ID to assign",
				},
				"group_id": map[string]interface{}{
					"type":        "number",
					"description": "Server group ID",
				},
			},
			Required: []string{"client_id", "group_id"},
		},
	}, handler.AssignClientToGroup)

	mcpServer.AddTool(mcp.Tool{
		Name:        "create_privilege_token",
		Description: "Create a one-time privilege key for a server or channel group",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"group_id": map[string]interface{}{
					"type":        "number",
					"description": "Group ID the token grants membership of",
				},
				"channel_id": map[string]interface{}{
					"type":        "number",
					"description": "Channel ID for channel group tokens",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional token description",
				},
			},
			Required: []string{"group_id"},
		},
	}, handler.CreatePrivilegeToken)

	mcpServer.AddTool(mcp.Tool{
		Name:        "list_privilege_tokens",
		Description: "List the outstanding privilege keys",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListPrivilegeTokens)

	mcpServer.AddTool(mcp.Tool{
		Name:        "view_server_logs",
		Description: "View recent entries of the server log",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"lines": map[string]interface{}{
					"type":        "number",
					"description": "Number of log lines to fetch (default 50, max 100)",
				},
				"instance": map[string]interface{}{
					"type":        "boolean",
					"description": "Read the instance log instead of the virtual server log",
				},
			},
		},
	}, handler.ViewServerLogs)

	mcpServer.AddTool(mcp.Tool{
		Name:        "get_connection_info",
		Description: "Get the ServerQuery connection target and state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.GetConnectionInfo)
}
