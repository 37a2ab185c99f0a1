package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Serve one request on stdin/stdout (used by --isolated)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	h := &worker.Handler{Config: cfg, Store: st, Cache: status.NewCache()}
	msg, err := worker.Serve(cmd.Context(), os.Stdin, cmd.OutOrStdout(), h)
	if err != nil {
		return err
	}
	if !msg.OK() {
		return errFailed
	}
	return nil
}
