package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-stats/engine"
	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/stats"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "wasmstats [files...]",
		Short: "Profile WebAssembly modules",
		Long: `wasmstats decodes WebAssembly binaries and reports their instruction mix,
section sizes, import and export counts, post-MVP feature usage, and a guess
at the toolchain that produced them.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			stats.SetLogger(log.Named("stats"))
			engine.SetLogger(log.Named("engine"))

			if cfg.Interactive {
				if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
					return errors.InvalidInput(errors.PhaseConfig, "interactive mode needs a terminal")
				}
				return runInteractive(cmd.Context(), cfg, args)
			}

			cfg.Format = resolveFormat(cfg.Format, isTerminal(stdout))
			log.Debug("configuration",
				zap.String("format", cfg.Format),
				zap.Int("workers", cfg.Workers),
				zap.Bool("engine_check", cfg.EngineCheck))
			return runBatch(cmd.Context(), cfg, args, cmd.OutOrStdout(), log)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	registerFlags(root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wasmstats %s\n", version)
		},
	})
	return root
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
