package main

import (
	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Restore the bundles from their backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCommand(cmd, worker.CommandRevert)
	},
}
