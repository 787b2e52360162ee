package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// Kick scopes of the clientkick command.
const (
	kickFromChannel = 4
	kickFromServer  = 5
)

// ListClients lists the clients connected to the virtual server.
func (h *Handler) ListClients(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd := query.NewCommand("clientlist").
		Flag("uid").Flag("away").Flag("voice").Flag("times")
	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("list clients", err), nil
	}

	type clientInfo struct {
		ID        int    `json:"id"`
		Nickname  string `json:"nickname"`
		ChannelID int    `json:"channel_id"`
		UniqueID  string `json:"unique_id,omitempty"`
		Type      int    `json:"type"`
		Away      bool   `json:"away,omitempty"`
		IdleMs    int    `json:"idle_ms,omitempty"`
	}

	var results []clientInfo
	for _, entry := range resp.Entries {
		results = append(results, clientInfo{
			ID:        atoi(entry["clid"]),
			Nickname:  entry["client_nickname"],
			ChannelID: atoi(entry["cid"]),
			UniqueID:  entry["client_unique_identifier"],
			Type:      atoi(entry["client_type"]),
			Away:      entry["client_away"] == "1",
			IdleMs:    atoi(entry["client_idle_time"]),
		})
	}

	return mcp.NewToolResultStructuredOnly(results), nil
}

// moveClientArgs holds the arguments for moving a client
type moveClientArgs struct {
	ClientID  int `json:"client_id"`
	ChannelID int `json:"channel_id"`
}

// MoveClient moves a client into another channel.
func (h *Handler) MoveClient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &moveClientArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("clientmove").
		ParamInt("clid", args.ClientID).
		ParamInt("cid", args.ChannelID)
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("move client", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Client %d moved to channel %d", args.ClientID, args.ChannelID)), nil
}

// kickClientArgs holds the arguments for kicking a client
type kickClientArgs struct {
	ClientID   int    `json:"client_id"`
	Reason     string `json:"reason,omitempty"`
	FromServer bool   `json:"from_server,omitempty"`
}

// KickClient kicks a client from its channel or from the server.
func (h *Handler) KickClient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &kickClientArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	scope := kickFromChannel
	if args.FromServer {
		scope = kickFromServer
	}

	cmd := query.NewCommand("clientkick").
		ParamInt("clid", args.ClientID).
		ParamInt("reasonid", scope)
	if args.Reason != "" {
		cmd = cmd.Param("reasonmsg", args.Reason)
	}
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("kick client", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Client %d kicked", args.ClientID)), nil
}

// banClientArgs holds the arguments for banning a client
type banClientArgs struct {
	ClientID int    `json:"client_id"`
	Duration int    `json:"duration,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// BanClient bans a client. Duration is in seconds; zero means permanent.
func (h *Handler) BanClient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &banClientArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("banclient").ParamInt("clid", args.ClientID)
	if args.Duration > 0 {
		cmd = cmd.ParamInt("time", args.Duration)
	}
	if args.Reason != "" {
		cmd = cmd.Param("banreason", args.Reason)
	}
	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("ban client", err), nil
	}

	result := map[string]interface{}{
		"status":    "banned",
		"client_id": args.ClientID,
	}
	if banID := resp.First()["banid"]; banID != "" {
		result["ban_id"] = atoi(banID)
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}

// ListBans lists the active ban rules.
func (h *Handler) ListBans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := h.session.Exec(ctx, query.NewCommand("banlist"))
	if err != nil {
		var qErr *query.Error
		// An empty ban list is reported as a database-empty error.
		if errors.As(err, &qErr) && qErr.ID == 1281 {
			return mcp.NewToolResultStructuredOnly([]interface{}{}), nil
		}
		return toolError("list bans", err), nil
	}

	type banInfo struct {
		ID       int    `json:"id"`
		IP       string `json:"ip,omitempty"`
		UniqueID string `json:"unique_id,omitempty"`
		LastNick string `json:"last_nickname,omitempty"`
		Reason   string `json:"reason,omitempty"`
		Duration int    `json:"duration"`
		Created  int    `json:"created"`
	}

	var results []banInfo
	for _, entry := range resp.Entries {
		results = append(results, banInfo{
			ID:       atoi(entry["banid"]),
			IP:       entry["ip"],
			UniqueID: entry["uid"],
			LastNick: entry["lastnickname"],
			Reason:   entry["reason"],
			Duration: atoi(entry["duration"]),
			Created:  atoi(entry["created"]),
		})
	}

	return mcp.NewToolResultStructuredOnly(results), nil
}
