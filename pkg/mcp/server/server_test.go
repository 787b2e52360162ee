package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/teamspeak-mcp/tsmcp/pkg/mcp/server/mocks"
)

func TestNewRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	_, err := New(&Config{Mode: "websocket"}, mocks.NewMockSession(ctrl))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport mode")
}

func TestGetAddress(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	s, err := New(&Config{Mode: ModeStdio}, mocks.NewMockSession(ctrl))
	require.NoError(t, err)
	assert.Equal(t, "stdio", s.GetAddress())

	s, err = New(&Config{Host: "127.0.0.1", Port: DefaultMCPPort, Mode: ModeStreamableHTTP},
		mocks.NewMockSession(ctrl))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8727/mcp", s.GetAddress())
}
