package main

import (
	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show per-file, per-kind patch status without writing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCommand(cmd, worker.CommandStatus)
	},
}
