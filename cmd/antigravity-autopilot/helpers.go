package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DeusData/antigravity-autopilot/internal/config"
	"github.com/DeusData/antigravity-autopilot/internal/logging"
	"github.com/DeusData/antigravity-autopilot/internal/report"
	"github.com/DeusData/antigravity-autopilot/internal/status"
	"github.com/DeusData/antigravity-autopilot/internal/store"
	"github.com/DeusData/antigravity-autopilot/internal/worker"
)

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	c := config.Load(rootFlags.config)
	if rootFlags.installPath != "" {
		c.InstallPath = rootFlags.installPath
	}
	if len(rootFlags.kinds) > 0 {
		c.Kinds = rootFlags.kinds
	}
	if cmd.Flags().Changed("isolated") {
		c.Isolated = &rootFlags.isolated
	}
	if rootFlags.logLevel != "" {
		c.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		c.Log.Format = rootFlags.logFormat
	}
	return c
}

// cfg is loaded once per process, before any RunE.
var cfg *config.Config

func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg = loadConfig(cmd)
	logging.Init(cfg.EffectiveLogLevel(), cfg.EffectiveLogFormat(), cmd.ErrOrStderr())
	if _, err := cfg.EffectiveKinds(); err != nil {
		return err
	}
	return nil
}

// app holds what a command needs to run requests and print their answers.
type app struct {
	cfg    *config.Config
	store  *store.Store
	cache  *status.Cache
	runner worker.Runner
	out    io.Writer
	render *report.Renderer
}

// newApp builds the runner for cmd: in-process, or a worker subprocess when
// isolation is enabled. History is opened only in the process that runs the
// engine.
func newApp(cmd *cobra.Command) (*app, error) {
	a := &app{
		cfg:    cfg,
		cache:  status.NewCache(),
		out:    cmd.OutOrStdout(),
		render: report.New(cmd.OutOrStdout()),
	}
	a.render.Verbose = cfg.EffectiveLogLevel() < slog.LevelInfo

	if cfg.EffectiveIsolated() {
		a.runner = &worker.Client{Args: workerArgs()}
		return a, nil
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.runner = worker.Local{Handler: &worker.Handler{Config: cfg, Store: st, Cache: a.cache}}
	return a, nil
}

// workerArgs forwards the flags the worker subprocess needs.
func workerArgs() []string {
	args := []string{"worker"}
	if rootFlags.config != "" {
		args = append(args, "--config", rootFlags.config)
	}
	if rootFlags.installPath != "" {
		args = append(args, "--install-path", rootFlags.installPath)
	}
	for _, k := range rootFlags.kinds {
		args = append(args, "--kinds", k)
	}
	if rootFlags.logLevel != "" {
		args = append(args, "--log-level", rootFlags.logLevel)
	}
	if rootFlags.logFormat != "" {
		args = append(args, "--log-format", rootFlags.logFormat)
	}
	return args
}

// openStore opens the history database, or returns nil when history is off.
// A database that cannot be opened disables history with a warning.
func openStore(cfg *config.Config) (*store.Store, error) {
	if !cfg.EffectiveHistoryEnabled() {
		return nil, nil
	}
	path, err := cfg.EffectiveHistoryPath()
	if err != nil {
		return nil, err
	}
	st, err := store.OpenPath(path)
	if err != nil {
		slog.Warn("history.open.err", "path", path, "err", err)
		return nil, nil
	}
	slog.Debug("history.open", "path", st.Path())
	return st, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// exchange runs req and prints its log messages and terminal message.
func (a *app) exchange(ctx context.Context, req worker.Request) (worker.Message, error) {
	msg, err := a.runner.Do(ctx, req, a.print)
	if err != nil {
		return msg, fmt.Errorf("%s: %w", req.Command, err)
	}
	if msg.Status != nil {
		a.cache.Store(*msg.Status)
	}
	a.print(msg)
	return msg, nil
}

func (a *app) print(m worker.Message) {
	if rootFlags.json {
		enc := json.NewEncoder(a.out)
		if err := enc.Encode(m); err != nil {
			slog.Warn("output.err", "err", err)
		}
		return
	}
	a.render.Message(m)
}

// runCommand is the RunE body shared by apply, check and revert.
func runCommand(cmd *cobra.Command, command string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	msg, err := a.exchange(cmd.Context(), worker.Request{Command: command})
	if err != nil {
		return err
	}
	if msg.Status != nil && !msg.Status.Installed() {
		return errFailed
	}
	if !msg.OK() {
		return errFailed
	}
	return nil
}
