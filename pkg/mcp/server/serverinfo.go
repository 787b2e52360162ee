package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// ServerInfo returns the virtual server's status and statistics.
func (h *Handler) ServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := h.session.Exec(ctx, query.NewCommand("serverinfo"))
	if err != nil {
		return toolError("get server info", err), nil
	}

	info := resp.First()
	result := map[string]interface{}{
		"name":            info["virtualserver_name"],
		"status":          info["virtualserver_status"],
		"platform":        info["virtualserver_platform"],
		"version":         info["virtualserver_version"],
		"uptime_seconds":  atoi(info["virtualserver_uptime"]),
		"clients_online":  atoi(info["virtualserver_clientsonline"]),
		"max_clients":     atoi(info["virtualserver_maxclients"]),
		"channels_online": atoi(info["virtualserver_channelsonline"]),
		"port":            atoi(info["virtualserver_port"]),
		"welcome_message": info["virtualserver_welcomemessage"],
	}

	return mcp.NewToolResultStructuredOnly(result), nil
}

// ListServerGroups lists the server groups of the virtual server.
func (h *Handler) ListServerGroups(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := h.session.Exec(ctx, query.NewCommand("servergrouplist"))
	if err != nil {
		return toolError("list server groups", err), nil
	}

	type groupInfo struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Type int    `json:"type"`
	}

	var results []groupInfo
	for _, entry := range resp.Entries {
		results = append(results, groupInfo{
			ID:   atoi(entry["sgid"]),
			Name: entry["name"],
			Type: atoi(entry["type"]),
		})
	}

	return mcp.NewToolResultStructuredOnly(results), nil
}

// assignGroupArgs holds the arguments for a server group assignment
type assignGroupArgs struct {
	ClientID int `json:"client_id"`
	GroupID  int `json:"group_id"`
}

// AssignClientToGroup adds a connected client to a server group. The group
// assignment binds to the client's database identity, so it resolves the
// database id first.
func (h *Handler) AssignClientToGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &assignGroupArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	info := query.NewCommand("clientinfo").ParamInt("clid", args.ClientID)
	resp, err := h.session.Exec(ctx, info)
	if err != nil {
		return toolError("assign client to group", err), nil
	}
	dbID := atoi(resp.First()["client_database_id"])
	if dbID == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Client %d has no database identity", args.ClientID)), nil
	}

	add := query.NewCommand("servergroupaddclient").
		ParamInt("sgid", args.GroupID).
		ParamInt("cldbid", dbID)
	if _, err := h.session.Exec(ctx, add); err != nil {
		return toolError("assign client to group", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Client %d added to server group %d", args.ClientID, args.GroupID)), nil
}

// viewServerLogsArgs holds the arguments for reading the server log
type viewServerLogsArgs struct {
	Lines    int  `json:"lines,omitempty"`
	Instance bool `json:"instance,omitempty"`
}

// ViewServerLogs returns the most recent entries of the server log.
func (h *Handler) ViewServerLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &viewServerLogsArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}
	if args.Lines <= 0 {
		args.Lines = 50
	}
	if args.Lines > 100 {
		// Hard limit of the logview command.
		args.Lines = 100
	}

	cmd := query.NewCommand("logview").
		ParamInt("lines", args.Lines).
		ParamInt("reverse", 1).
		ParamInt("instance", boolFlag(args.Instance))
	resp, err := h.session.Exec(ctx, cmd)
	if err != nil {
		return toolError("view server logs", err), nil
	}

	var lines []string
	for _, entry := range resp.Entries {
		if l := entry["l"]; l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("Server log is empty"), nil
	}

	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
