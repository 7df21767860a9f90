package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/mcp"
	"github.com/blackwell-systems/studiowatch/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing profiles and suggestions",
	Long: `Start a Model Context Protocol stdio server so an assistant can query
the studio data during a conversation. The server exposes three tools:

  get_profiles       Trainer, format, time-slot, and location profiles
  optimize_schedule  Ranked rule-engine suggestions with projected impact
  list_runs          Recently saved optimization runs

Add to an MCP client configuration:
  {"mcpServers":{"studiowatch":{"command":"studiowatch","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Run history is optional; the other tools work without it.
	db, err := store.Open(config.DBPath())
	if err != nil {
		logger.WithComponent("mcp").WithError(err).Warn("history database unavailable")
		db = nil
	} else {
		defer func() { _ = db.Close() }()
	}

	srv, err := mcp.NewServer(cfg, db)
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
