package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent apply and revert runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 10, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyFlags.limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyFlags.limit)
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	msg, err := a.exchange(cmd.Context(), worker.Request{Command: worker.CommandHistory, Limit: historyFlags.limit})
	if err != nil {
		return err
	}
	if !msg.OK() {
		return errFailed
	}
	return nil
}
