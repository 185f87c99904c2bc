package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mjmorales/rcon-worker-pool/internal/config"
	"github.com/mjmorales/rcon-worker-pool/internal/rcon"
	"github.com/spf13/cobra"
)

// jobCmd reads a JSON array of command specs (each {"id", "cmd",
// "depends_on", "require_result"}), builds the dependency-ordered job,
// submits it to a freshly connected pool, and prints every command whose
// result was requested.
var jobCmd = &cobra.Command{
	Use:   "job <file.json>",
	Short: "Submit a dependency-ordered batch of commands from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading job file: %w", err)
		}

		var specs []rcon.CommandSpec
		if err := json.Unmarshal(raw, &specs); err != nil {
			return fmt.Errorf("parsing job file: %w", err)
		}

		job, err := rcon.BuildJob(specs, nil)
		if err != nil {
			return fmt.Errorf("invalid job: %w", err)
		}
		if _, err := rcon.TopologicalSort(job.Commands); err != nil {
			return fmt.Errorf("invalid job: %w", err)
		}

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
			if err := p.SubmitJob(job.Commands); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "job %s:\n", job.ID)
			for _, c := range job.Commands {
				if !c.HasResult() {
					if err := c.Wait(ctx); err != nil {
						return err
					}
					continue
				}
				response, err := c.AwaitResult(ctx)
				if err != nil {
					fmt.Fprintf(out, "[%d] %s: error: %v\n", c.ID, c.Text, err)
					continue
				}
				fmt.Fprintf(out, "[%d] %s: %s\n", c.ID, c.Text, response)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
}
