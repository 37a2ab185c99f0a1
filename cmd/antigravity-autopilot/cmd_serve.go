package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/logging"
	"github.com/DeusData/antigravity-autopilot/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the tools patch_status,
apply_patch, revert_patch and patch_history.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := tools.NewServer(a.runner, version)
	logging.New("mcp").Info("serve.start", "version", version, "isolated", a.cfg.EffectiveIsolated())
	err = srv.MCPServer().Run(cmd.Context(), &mcp.StdioTransport{})
	if err != nil && cmd.Context().Err() == nil {
		slog.Error("serve.err", "err", err)
		return err
	}
	return nil
}
