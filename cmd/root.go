// Package cmd contains all CLI commands for the RCON worker pool gateway.
// It uses the Cobra library for command-line interface management.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rcon-worker-pool",
	Short: "RCON worker pool gateway",
	Long: `rcon-worker-pool runs a bounded pool of long-lived, authenticated RCON
connections to a Minecraft server and serializes commands through it,
respecting declared dependencies between commands and failing fast on
incorrect credentials.

Configuration is read from the environment (optionally bootstrapped from
a .env file): RCON_PASSWORD, RCON_PORT, WORKER_COUNT, RCON_SOCKET_TIMEOUT,
RECONNECT_PAUSE, RCON_RETRY_ATTEMPTS, RCON_COMMAND_DELAY,
SHUTDOWN_GRACE_PERIOD, SHUTDOWN_AWAIT_PERIOD.

To start the MCP tool surface, use:
  rcon-worker-pool serve

To run a single command against the pool and print its response, use:
  rcon-worker-pool send "list"

To submit a dependency-ordered batch of commands from a JSON file, use:
  rcon-worker-pool job commands.json`,
}

// Execute adds all child commands to the root command and runs it. Called
// by main.main(); exits the process with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
