package cmd

import (
	"github.com/mjmorales/rcon-worker-pool/internal/mcp"
	"github.com/spf13/cobra"
)

// serveCmd starts the MCP tool surface over the worker pool core.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RCON worker pool MCP server",
	Long: `Start the Model Context Protocol (MCP) server exposing the RCON worker
pool core: create and tear down pools, and submit single commands or
dependency-ordered jobs to them.

Available tools:
- rcon_create_pool: start a worker pool against an RCON server
- rcon_remove_pool: shut down and remove a worker pool
- rcon_submit: submit a single command and await its result
- rcon_submit_job: submit a dependency-ordered batch of commands
- rcon_list_pools: list all active worker pools
- rcon_pool_status: report queue depth and worker count for a pool`,
	Run: func(cmd *cobra.Command, args []string) {
		mcp.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
