// Package app provides the entry point for the tsmcp command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "tsmcp",
	DisableAutoGenTag: true,
	Short:             "tsmcp is an MCP server for administering TeamSpeak 3 servers",
	Long: `tsmcp exposes TeamSpeak 3 server administration as MCP (Model Context Protocol) tools.

It maintains a single ServerQuery control session to the server, monitors its
health, and reconnects automatically when the link drops. AI assistants use
the tools to manage channels, moderate clients, and send messages.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the tsmcp CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
