// Package main is the entry point for the TeamSpeak MCP server.
package main

import (
	"os"

	"github.com/teamspeak-mcp/tsmcp/cmd/tsmcp/app"
	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
