package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
	mcpserver "github.com/teamspeak-mcp/tsmcp/pkg/mcp/server"
	"github.com/teamspeak-mcp/tsmcp/pkg/session"
)

// shutdownTimeout bounds the graceful HTTP shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

var (
	serveTransport string
	serveMCPHost   string
	serveMCPPort   string
)

// newServeCommand creates the 'serve' subcommand
func newServeCommand() *cobra.Command {
	// Check for MCP_PORT environment variable
	defaultPort := mcpserver.DefaultMCPPort
	if envPort := os.Getenv("MCP_PORT"); envPort != "" {
		defaultPort = envPort
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to a TeamSpeak server and serve MCP tools",
		Long: `Open a ServerQuery control session to the configured TeamSpeak server and
start the MCP server on top of it.

The connection settings can be given as flags or via the TEAMSPEAK_HOST,
TEAMSPEAK_PORT, TEAMSPEAK_USER, TEAMSPEAK_PASSWORD and TEAMSPEAK_SERVER_ID
environment variables. The MCP port can also be set via MCP_PORT.`,
		RunE: serveCmdFunc,
	}

	flags := cmd.Flags()
	flags.String(config.KeyHost, config.DefaultHost, "TeamSpeak server host")
	flags.Int(config.KeyPort, config.DefaultPort, "ServerQuery port")
	flags.String(config.KeyUser, config.DefaultUser, "ServerQuery username")
	flags.String(config.KeyPassword, "", "ServerQuery password or privilege token")
	flags.Int(config.KeyServerID, config.DefaultServerID, "Virtual server ID")
	flags.Duration(config.KeyMonitorInterval, config.DefaultMonitorInterval, "Interval between liveness probes")
	flags.Int(config.KeyMaxAttempts, config.DefaultMaxAttempts, "Reconnect attempts per burst")
	flags.Duration(config.KeyInitialBackoff, config.DefaultInitialBackoff, "Initial reconnect backoff")
	flags.Duration(config.KeyMaxBackoff, config.DefaultMaxBackoff, "Maximum reconnect backoff")
	flags.Duration(config.KeyJoinTimeout, config.DefaultJoinTimeout, "Wait for the health monitor on shutdown")
	flags.Duration(config.KeyIOTimeout, config.DefaultIOTimeout, "Per-command wire timeout")

	for _, key := range []string{
		config.KeyHost, config.KeyPort, config.KeyUser, config.KeyPassword,
		config.KeyServerID, config.KeyMonitorInterval, config.KeyMaxAttempts,
		config.KeyInitialBackoff, config.KeyMaxBackoff, config.KeyJoinTimeout,
		config.KeyIOTimeout,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			logger.Errorf("Error binding %s flag: %v", key, err)
		}
	}

	flags.StringVar(&serveTransport, "transport", mcpserver.ModeStdio,
		"MCP transport: stdio or streamable-http")
	flags.StringVar(&serveMCPHost, "mcp-host", "localhost", "Host to listen on (streamable-http)")
	flags.StringVar(&serveMCPPort, "mcp-port", defaultPort,
		"Port to listen on (streamable-http, can also be set via MCP_PORT env var)")

	return cmd
}

// serveCmdFunc is the main function for the serve command
func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	v := viper.GetViper()
	config.SetDefaults(v)
	sessionCfg, monitorCfg, err := config.Load(v)
	if err != nil {
		return err
	}

	// Open the control session. A failed first connect is not fatal: the
	// MCP server still starts, tools report the missing connection, and
	// the operator can fix the TeamSpeak side without restarting.
	manager := session.NewManager(sessionCfg, monitorCfg)
	if manager.Connect(ctx) {
		logger.Infof("Connected to TeamSpeak server at %s", sessionCfg.Addr())
	} else {
		logger.Warnf("Could not connect to TeamSpeak server at %s; tools will report the missing connection", sessionCfg.Addr())
	}
	defer manager.Disconnect()

	srv, err := mcpserver.New(&mcpserver.Config{
		Host: serveMCPHost,
		Port: serveMCPPort,
		Mode: serveTransport,
	}, manager)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error shutting down MCP server: %v", err)
	}

	return nil
}
