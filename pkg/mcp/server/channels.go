package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// ListChannels lists the channels of the virtual server.
func (h *Handler) ListChannels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd := query.NewCommand("channellist").
		Flag("topic").Flag("flags").Flag("voice").Flag("limits")
	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("list channels", err), nil
	}

	type channelInfo struct {
		ID          int    `json:"id"`
		ParentID    int    `json:"parent_id"`
		Name        string `json:"name"`
		Topic       string `json:"topic,omitempty"`
		Clients     int    `json:"clients"`
		MaxClients  int    `json:"max_clients"`
		IsPermanent bool   `json:"permanent"`
	}

	var results []channelInfo
	for _, entry := range resp.Entries {
		results = append(results, channelInfo{
			ID:          atoi(entry["cid"]),
			ParentID:    atoi(entry["pid"]),
			Name:        entry["channel_name"],
			Topic:       entry["channel_topic"],
			Clients:     atoi(entry["total_clients"]),
			MaxClients:  atoi(entry["channel_maxclients"]),
			IsPermanent: entry["channel_flag_permanent"] == "1",
		})
	}

	return mcp.NewToolResultStructuredOnly(results), nil
}

// channelInfoArgs holds the arguments for inspecting a channel
type channelInfoArgs struct {
	ChannelID int `json:"channel_id"`
}

// ChannelInfo returns the full property set of one channel.
func (h *Handler) ChannelInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &channelInfoArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("channelinfo").ParamInt("cid", args.ChannelID)
	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("get channel info", err), nil
	}

	info := resp.First()
	result := map[string]interface{}{
		"id":             args.ChannelID,
		"name":           info["channel_name"],
		"topic":          info["channel_topic"],
		"description":    info["channel_description"],
		"max_clients":    atoi(info["channel_maxclients"]),
		"permanent":      info["channel_flag_permanent"] == "1",
		"semi_permanent": info["channel_flag_semi_permanent"] == "1",
		"default":        info["channel_flag_default"] == "1",
		"password":       info["channel_flag_password"] == "1",
		"codec":          atoi(info["channel_codec"]),
		"codec_quality":  atoi(info["channel_codec_quality"]),
		"order":          atoi(info["channel_order"]),
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}

// createChannelArgs holds the arguments for creating a channel
type createChannelArgs struct {
	Name      string `json:"name"`
	Topic     string `json:"topic,omitempty"`
	ParentID  int    `json:"parent_id,omitempty"`
	Permanent bool   `json:"permanent,omitempty"`
	Password  string `json:"password,omitempty"`
}

// CreateChannel creates a channel. Channels are temporary unless marked
// permanent.
func (h *Handler) CreateChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &createChannelArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}
	if args.Name == "" {
		return mcp.NewToolResultError("Channel name cannot be empty"), nil
	}

	cmd := query.NewCommand("channelcreate").Param("channel_name", args.Name)
	if args.Topic != "" {
		cmd = cmd.Param("channel_topic", args.Topic)
	}
	if args.ParentID > 0 {
		cmd = cmd.ParamInt("cpid", args.ParentID)
	}
	if args.Permanent {
		cmd = cmd.ParamInt("channel_flag_permanent", 1)
	}
	if args.Password != "" {
		cmd = cmd.Param("channel_password", args.Password)
	}

	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("create channel", err), nil
	}

	result := map[string]interface{}{
		"status": "created",
		"id":     atoi(resp.First()["cid"]),
		"name":   args.Name,
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}

// updateChannelArgs holds the arguments for editing a channel. Pointer
// fields distinguish "not provided" from zero values.
type updateChannelArgs struct {
	ChannelID   int     `json:"channel_id"`
	Name        *string `json:"name,omitempty"`
	Topic       *string `json:"topic,omitempty"`
	Description *string `json:"description,omitempty"`
	Password    *string `json:"password,omitempty"`
	MaxClients  *int    `json:"max_clients,omitempty"`
	Permanent   *bool   `json:"permanent,omitempty"`
}

// UpdateChannel edits the provided properties of a channel, leaving the
// rest untouched.
func (h *Handler) UpdateChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &updateChannelArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("channeledit").ParamInt("cid", args.ChannelID)
	changed := 0
	if args.Name != nil {
		cmd = cmd.Param("channel_name", *args.Name)
		changed++
	}
	if args.Topic != nil {
		cmd = cmd.Param("channel_topic", *args.Topic)
		changed++
	}
	if args.Description != nil {
		cmd = cmd.Param("channel_description", *args.Description)
		changed++
	}
	if args.Password != nil {
		cmd = cmd.Param("channel_password", *args.Password)
		changed++
	}
	if args.MaxClients != nil {
		cmd = cmd.ParamInt("channel_maxclients", *args.MaxClients).
			ParamInt("channel_flag_maxclients_unlimited", 0)
		changed++
	}
	if args.Permanent != nil {
		cmd = cmd.ParamInt("channel_flag_permanent", boolFlag(*args.Permanent))
		changed++
	}
	if changed == 0 {
		return mcp.NewToolResultError("No channel properties provided"), nil
	}

	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("update channel", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Channel %d updated (%d properties)", args.ChannelID, changed)), nil
}

// deleteChannelArgs holds the arguments for deleting a channel
type deleteChannelArgs struct {
	ChannelID int  `json:"channel_id"`
	Force     bool `json:"force,omitempty"`
}

// DeleteChannel deletes a channel. With force, connected clients are
// kicked out instead of blocking the deletion.
func (h *Handler) DeleteChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &deleteChannelArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("channeldelete").
		ParamInt("cid", args.ChannelID).
		ParamInt("force", boolFlag(args.Force))
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("delete channel", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Channel %d deleted", args.ChannelID)), nil
}
