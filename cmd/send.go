package cmd

import (
	"fmt"

	"github.com/mjmorales/rcon-worker-pool/internal/config"
	"github.com/mjmorales/rcon-worker-pool/internal/rcon"
	"github.com/spf13/cobra"
)

// sendCmd connects a pool, submits one command, prints its response, and
// shuts the pool back down.
var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send a single command to the RCON server and print its response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		pool, err := rcon.NewPool(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return pool.Scope(ctx, func(p *rcon.Pool) error {
			command := rcon.NewCommand(args[0], rcon.WithResult())
			if err := p.Submit(command); err != nil {
				return err
			}
			response, err := command.AwaitResult(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), response)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
