package main

import (
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aretw0/qafizz"
	"github.com/aretw0/qafizz/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the notebook as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the
signed-in user's notes (list, get, create, star, delete) to an agent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := mcp.NewServer(nb, strings.TrimSpace(qafizz.Version))
		logger.Debug("serving mcp over stdio")
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
