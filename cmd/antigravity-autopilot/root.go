package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// errFailed makes the process exit 1 after the failure was already reported.
var errFailed = errors.New("run failed")

var rootFlags struct {
	config      string
	installPath string
	kinds       []string
	isolated    bool
	json        bool
	logLevel    string
	logFormat   string
}

var rootCmd = &cobra.Command{
	Use:   "antigravity-autopilot",
	Short: "Auto-accept agent prompts in Antigravity",
	Long: "antigravity-autopilot patches the Antigravity IDE bundles so agent terminal commands,\n" +
		"browser actions and file permission requests are accepted without a click.\n" +
		"Without a subcommand it applies the patch.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runApply,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.config, "config", "", "Config file (default $XDG_CONFIG_HOME/antigravity-autopilot/config.yaml)")
	f.StringVar(&rootFlags.installPath, "install-path", "", "Antigravity installation directory (skips discovery)")
	f.StringSliceVar(&rootFlags.kinds, "kinds", nil, "Fragment kinds to handle: terminal, browser, fileperm (default all)")
	f.BoolVar(&rootFlags.isolated, "isolated", false, "Run the engine in a worker subprocess")
	f.BoolVar(&rootFlags.json, "json", false, "Print JSON lines instead of a report")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
