package main

import (
	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the auto-accept patch (default command)",
	Long: `Applies every enabled fragment kind to the workbench and jetskiAgent bundles.
Kinds already present are left alone, so running it again is safe. The original
file is backed up once, before the first write. Restart Antigravity afterwards.`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func runApply(cmd *cobra.Command, _ []string) error {
	return runCommand(cmd, worker.CommandApply)
}
