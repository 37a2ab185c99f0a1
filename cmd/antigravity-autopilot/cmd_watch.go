package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/discover"
	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/watcher"
	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the patch applied across application updates",
	Long: `Polls the bundle files and re-applies the patch whenever the application
replaces them. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	base := discover.FindInstallation(a.cfg.InstallPath)
	if base == "" {
		a.print(worker.Message{Type: worker.TypeResult, Result: &worker.Result{Message: worker.NotFoundMessage}})
		return errFailed
	}

	unsubscribe := a.cache.Subscribe(func(r status.Report) {
		slog.Info("watch.status", "patched", r.Patched(), "complete", r.Complete(), "version", r.AppVersion)
	})
	defer unsubscribe()

	req := worker.Request{InstallPath: base}
	refresh := func(ctx context.Context) error {
		req.Command = worker.CommandStatus
		_, err := a.runner.Do(ctx, req, nil)
		return err
	}
	// An isolated runner keeps its own cache; pull the report into ours.
	if a.cfg.EffectiveIsolated() {
		refresh = func(ctx context.Context) error {
			req.Command = worker.CommandStatus
			msg, err := a.runner.Do(ctx, req, nil)
			if err == nil && msg.Status != nil {
				a.cache.Store(*msg.Status)
			}
			return err
		}
	}
	if err := refresh(ctx); err != nil {
		return err
	}
	rep, _ := a.cache.Load()

	apply := func(ctx context.Context) error {
		req.Command = worker.CommandApply
		msg, err := a.exchange(ctx, req)
		if err != nil {
			return err
		}
		if err := refresh(ctx); err != nil {
			return err
		}
		if !msg.OK() {
			return errors.New(msg.Result.Message)
		}
		return nil
	}

	w := watcher.New(discover.Targets(base), apply, watcher.Options{
		Interval:     a.cfg.EffectiveWatchInterval(),
		MaxInterval:  a.cfg.EffectiveWatchMaxInterval(),
		ApplyOnStart: a.cfg.EffectiveApplyOnStart() && !rep.Complete(),
	})
	slog.Info("watch.start", "base", base, "interval", a.cfg.EffectiveWatchInterval())
	w.Run(ctx)
	slog.Info("watch.stop")
	return nil
}
