package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server over stdio",
	Long: `Starts Greeter as an MCP Server on Standard Input/Output.
AI agents can then create and look up greetings through the create_greeting, get_greeting,
list_greetings and find_greetings_by_name tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, logger, err := bootstrap(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger.Info("Starting Greeter MCP Server (Stdio)...")
		if err := app.MCPServer().ServeStdio(); err != nil {
			logger.Error("MCP Server execution failed", "err", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
