package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/mcp/server/mocks"
	"github.com/teamspeak-mcp/tsmcp/pkg/query"
	"github.com/teamspeak-mcp/tsmcp/pkg/session"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return content.Text
}

// structuredJSON round-trips the structured content so tests can assert on
// it without knowing the handler's internal result types.
func structuredJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	return string(data)
}

func newHandlerWithMock(t *testing.T) (*Handler, *mocks.MockSession) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockSession := mocks.NewMockSession(ctrl)
	return NewHandler(mockSession), mockSession
}

func TestSendPrivateMessage(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			assert.Equal(t, `sendtextmessage targetmode=1 target=5 msg=hi\sthere`, cmd.String())
			return &query.Response{}, nil
		})

	result, err := handler.SendPrivateMessage(context.Background(),
		callRequest(map[string]any{"client_id": 5, "message": "hi there"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "Private message sent", textOf(t, result))
}

func TestSendChannelMessageDefaultsToCurrentChannel(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			assert.Equal(t, `sendtextmessage targetmode=2 msg=hello`, cmd.String())
			return &query.Response{}, nil
		})

	result, err := handler.SendChannelMessage(context.Background(),
		callRequest(map[string]any{"message": "hello"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestSendChannelMessageSwitchesChannel(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	gomock.InOrder(
		mockSession.EXPECT().
			Exec(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
				assert.Equal(t, "whoami", cmd.String())
				return &query.Response{Entries: []map[string]string{{"client_id": "2"}}}, nil
			}),
		mockSession.EXPECT().
			Exec(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
				assert.Equal(t, "clientmove clid=2 cid=8", cmd.String())
				return &query.Response{}, nil
			}),
		mockSession.EXPECT().
			Exec(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
				assert.Equal(t, "sendtextmessage targetmode=2 target=8 msg=hello", cmd.String())
				return &query.Response{}, nil
			}),
	)

	result, err := handler.SendChannelMessage(context.Background(),
		callRequest(map[string]any{"message": "hello", "channel_id": 8}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestSendChannelMessageRequiresMessage(t *testing.T) {
	t.Parallel()
	handler, _ := newHandlerWithMock(t)

	result, err := handler.SendChannelMessage(context.Background(),
		callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestToolReportsNotConnected(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		Return(nil, session.ErrNotConnected)

	result, err := handler.ListClients(context.Background(), callRequest(nil))
	require.NoError(t, err, "tool failures must be results, not protocol errors")
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Not connected")
}

func TestToolReportsPermissionDenied(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		Return(nil, &query.Error{ID: 2568, Msg: "insufficient client permissions"})

	result, err := handler.KickClient(context.Background(),
		callRequest(map[string]any{"client_id": 3}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "insufficient permissions")
}

func TestToolReportsMalformedArguments(t *testing.T) {
	t.Parallel()
	handler, _ := newHandlerWithMock(t)

	result, err := handler.MoveClient(context.Background(),
		callRequest(map[string]any{"client_id": "not-a-number"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Failed to parse arguments")
}

func TestListClients(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		Return(&query.Response{Entries: []map[string]string{
			{"clid": "1", "client_nickname": "serveradmin", "cid": "1", "client_type": "1"},
			{"clid": "7", "client_nickname": "alice", "cid": "2", "client_type": "0", "client_away": "1"},
		}}, nil)

	result, err := handler.ListClients(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	data := structuredJSON(t, result)
	assert.Contains(t, data, `"nickname":"alice"`)
	assert.Contains(t, data, `"away":true`)
}

func TestCreateChannel(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			rendered := cmd.String()
			assert.Contains(t, rendered, `channel_name=Town\sHall`)
			assert.Contains(t, rendered, "channel_flag_permanent=1")
			return &query.Response{Entries: []map[string]string{{"cid": "42"}}}, nil
		})

	result, err := handler.CreateChannel(context.Background(),
		callRequest(map[string]any{"name": "Town Hall", "permanent": true}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, structuredJSON(t, result), `"id":42`)
}

func TestCreateChannelRequiresName(t *testing.T) {
	t.Parallel()
	handler, _ := newHandlerWithMock(t)

	result, err := handler.CreateChannel(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestUpdateChannelRequiresProperties(t *testing.T) {
	t.Parallel()
	handler, _ := newHandlerWithMock(t)

	result, err := handler.UpdateChannel(context.Background(),
		callRequest(map[string]any{"channel_id": 3}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "No channel properties")
}

func TestUpdateChannelSendsOnlyProvidedProperties(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			rendered := cmd.String()
			assert.Contains(t, rendered, "cid=3")
			assert.Contains(t, rendered, `channel_topic=news`)
			assert.NotContains(t, rendered, "channel_name")
			return &query.Response{}, nil
		})

	result, err := handler.UpdateChannel(context.Background(),
		callRequest(map[string]any{"channel_id": 3, "topic": "news"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestBanClientIncludesDurationAndReason(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			rendered := cmd.String()
			assert.Contains(t, rendered, "clid=9")
			assert.Contains(t, rendered, "time=600")
			assert.Contains(t, rendered, `banreason=spam`)
			return &query.Response{Entries: []map[string]string{{"banid": "12"}}}, nil
		})

	result, err := handler.BanClient(context.Background(),
		callRequest(map[string]any{"client_id": 9, "duration": 600, "reason": "spam"}))
	require.NoError(t, err)
	assert.Contains(t, structuredJSON(t, result), `"ban_id":12`)
}

func TestListBansEmptyDatabase(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		Return(nil, &query.Error{ID: 1281, Msg: "database empty result set"})

	result, err := handler.ListBans(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError, "an empty ban list is not an error")
	assert.Equal(t, "[]", structuredJSON(t, result))
}

func TestAssignClientToGroupResolvesDatabaseID(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	gomock.InOrder(
		mockSession.EXPECT().
			Exec(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
				assert.Equal(t, "clientinfo clid=4", cmd.String())
				return &query.Response{Entries: []map[string]string{{"client_database_id": "77"}}}, nil
			}),
		mockSession.EXPECT().
			Exec(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
				assert.Equal(t, "servergroupaddclient sgid=6 cldbid=77", cmd.String())
				return &query.Response{}, nil
			}),
	)

	result, err := handler.AssignClientToGroup(context.Background(),
		callRequest(map[string]any{"client_id": 4, "group_id": 6}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestViewServerLogsClampsLineCount(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			assert.Contains(t, cmd.String(), "lines=100")
			return &query.Response{Entries: []map[string]string{{"l": "log line"}}}, nil
		})

	result, err := handler.ViewServerLogs(context.Background(),
		callRequest(map[string]any{"lines": 5000}))
	require.NoError(t, err)
	assert.Equal(t, "log line", textOf(t, result))
}

func TestCreatePrivilegeToken(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().
		Exec(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *query.Command) (*query.Response, error) {
			assert.Equal(t, "tokenadd tokentype=0 tokenid1=6 tokenid2=0", cmd.String())
			return &query.Response{Entries: []map[string]string{{"token": "secrettoken"}}}, nil
		})

	result, err := handler.CreatePrivilegeToken(context.Background(),
		callRequest(map[string]any{"group_id": 6}))
	require.NoError(t, err)
	assert.Contains(t, structuredJSON(t, result), `"token":"secrettoken"`)
}

func TestGetConnectionInfo(t *testing.T) {
	t.Parallel()
	handler, mockSession := newHandlerWithMock(t)

	mockSession.EXPECT().Config().Return(config.SessionConfig{
		Host:            "ts.example.com",
		Port:            10011,
		VirtualServerID: 1,
	})
	mockSession.EXPECT().State().Return(session.StateConnected)
	mockSession.EXPECT().IsConnected().Return(true)

	result, err := handler.GetConnectionInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	data := structuredJSON(t, result)
	assert.Contains(t, data, `"host":"ts.example.com"`)
	assert.Contains(t, data, `"state":"connected"`)
	assert.Contains(t, data, `"connected":true`)
}
