package server

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// Token types of the tokenadd command.
const (
	tokenTypeServerGroup  = 0
	tokenTypeChannelGroup = 1
)

// createTokenArgs holds the arguments for creating a privilege token
type createTokenArgs struct {
	GroupID     int    `json:"group_id"`
	ChannelID   int    `json:"channel_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreatePrivilegeToken creates a one-time privilege key granting membership
// of a server group, or of a channel group when a channel is given.
func (h *Handler) CreatePrivilegeToken(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &createTokenArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	tokenType := tokenTypeServerGroup
	if args.ChannelID > 0 {
		tokenType = tokenTypeChannelGroup
	}

	cmd := query.NewCommand("tokenadd").
		ParamInt("tokentype", tokenType).
		ParamInt("tokenid1", args.GroupID).
		ParamInt("tokenid2", args.ChannelID)
	if args.Description != "" {
		cmd = cmd.Param("tokendescription", args.Description)
	}

	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("create privilege token", err), nil
	}

	result := map[string]interface{}{
		"token":    resp.First()["token"],
		"group_id": args.GroupID,
	}
	if args.ChannelID > 0 {
		result["channel_id"] = args.ChannelID
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}

// ListPrivilegeTokens lists the outstanding privilege keys.
func (h *Handler) ListPrivilegeTokens(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := h.session.Exec(ctx, query.NewCommand("tokenlist"))
	if err != nil {
		var qErr *query.Error
		// No outstanding keys is reported as a database-empty error.
		if errors.As(err, &qErr) && qErr.ID == 1281 {
			return mcp.NewToolResultStructuredOnly([]interface{}{}), nil
		}
		return toolError("list privilege tokens", err), nil
	}

	type tokenInfo struct {
		Token       string `json:"token"`
		Type        int    `json:"type"`
		GroupID     int    `json:"group_id"`
		ChannelID   int    `json:"channel_id,omitempty"`
		Description string `json:"description,omitempty"`
		Created     int    `json:"created"`
	}

	var results []tokenInfo
	for _, entry := range resp.Entries {
		results = append(results, tokenInfo{
			Token:       entry["token"],
			Type:        atoi(entry["token_type"]),
			GroupID:     atoi(entry["token_id1"]),
			ChannelID:   atoi(entry["token_id2"]),
			Description: entry["token_description"],
			Created:     atoi(entry["token_created"]),
		})
	}

	return mcp.NewToolResultStructuredOnly(results), nil
}
