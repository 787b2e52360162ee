package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// Text message target modes of the sendtextmessage command.
const (
	targetModeClient  = 1
	targetModeChannel = 2
)

// sendChannelMessageArgs holds the arguments for sending a channel message
type sendChannelMessageArgs struct {
	Message   string `json:"message"`
	ChannelID int    `json:"channel_id,omitempty"`
}

// SendChannelMessage posts a text message into a channel. Without an
// explicit channel the message goes to the query client's current channel.
func (h *Handler) SendChannelMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &sendChannelMessageArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}
	if args.Message == "" {
		return mcp.NewToolResultError("Message cannot be empty"), nil
	}

	// The server only delivers to the channel the query client sits in,
	// so switch channels first when one was requested.
	if args.ChannelID > 0 {
		clid, err := h.ownClientID(ctx)
		if err != nil {
			return toolError("send channel message", err), nil
		}
		move := query.NewCommand("clientmove").
			ParamInt("clid", clid).
			ParamInt("cid", args.ChannelID)
		if _, err := h.session.Exec(ctx, move); err != nil {
			return toolError("send channel message", err), nil
		}
	}

	cmd := query.NewCommand("sendtextmessage").ParamInt("targetmode", targetModeChannel)
	if args.ChannelID > 0 {
		cmd = cmd.ParamInt("target", args.ChannelID)
	}
	cmd = cmd.Param("msg", args.Message)
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("send channel message", err), nil
	}

	return mcp.NewToolResultText("Message sent to channel"), nil
}

// sendPrivateMessageArgs holds the arguments for sending a private message
type sendPrivateMessageArgs struct {
	ClientID int    `json:"client_id"`
	Message  string `json:"message"`
}

// SendPrivateMessage sends a direct text message to one client.
func (h *Handler) SendPrivateMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &sendPrivateMessageArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}
	if args.Message == "" {
		return mcp.NewToolResultError("Message cannot be empty"), nil
	}

	cmd := query.NewCommand("sendtextmessage").
		ParamInt("targetmode", targetModeClient).
		ParamInt("target", args.ClientID).
		Param("msg", args.Message)
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("send private message", err), nil
	}

	return mcp.NewToolResultText("Private message sent"), nil
}

// pokeClientArgs holds the arguments for poking a client
type pokeClientArgs struct {
	ClientID int    `json:"client_id"`
	Message  string `json:"message"`
}

// PokeClient sends a poke (popup notification) to one client.
func (h *Handler) PokeClient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := &pokeClientArgs{}
	if err := request.BindArguments(args); err != nil {
		return parseError(err), nil
	}

	cmd := query.NewCommand("clientpoke").
		ParamInt("clid", args.ClientID).
		Param("msg", args.Message)
	if _, err := h.session.Exec(ctx, cmd); err != nil {
		return toolError("poke client", err), nil
	}

	return mcp.NewToolResultText("Client poked"), nil
}

// ownClientID resolves the query client's own session id.
func (h *Handler) ownClientID(ctx context.Context) (int, error) {
	resp, err := h.session.Exec(ctx, query.NewCommand("whoami"))
	if err != nil {
		return 0, err
	}
	return atoi(resp.First()["client_id"]), nil
}
