// Package main is logview's entrypoint: a thin cobra command that
// resolves configuration, starts the logger, and wires the line source,
// background task runtime and viewport model together (§6). The
// interactive terminal (key bindings, drawing, dialogs) is an external
// collaborator this binary hands the wired model to, not something
// implemented here. Grounded on saltyorg-sb-go's cmd/root.go for the
// single-rootCmd, ExecuteContext(ctx) shape - dtail's cmd/dtail/main.go
// uses stdlib flag instead, but its context/cancel/pprof/exit-code
// sequence is what run's body below follows.
package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mimecast/logview/internal/config"
	"github.com/mimecast/logview/internal/logger"
	"github.com/mimecast/logview/internal/source"
	"github.com/mimecast/logview/internal/tasks"
	"github.com/mimecast/logview/internal/version"
	"github.com/mimecast/logview/internal/viewport"
)

var cliArgs = config.NewArgs()

var rootCmd = &cobra.Command{
	Use:     "logview [file]",
	Short:   "Interactive terminal log viewer",
	Long:    "logview is an interactive terminal viewer for large log files: scroll, filter, search and jump to a line or timestamp without loading the whole file into memory.",
	Args:    cobra.MaximumNArgs(1),
	Version: version.String(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cliArgs.FilePath = args[0]
		}
		return run(cmd, cliArgs)
	},
}

func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	flags := rootCmd.Flags()
	flags.StringVar(&cliArgs.LogLevel, "log-level", "info", "log verbosity: error, warn, info, debug, trace")
	flags.StringVar(&cliArgs.LogDir, "log-dir", "", "directory for rotated log file output")
	flags.IntVar(&cliArgs.ProfilePort, "profile-port", 0, "start a net/http/pprof listener on this port (0 disables it)")
	flags.StringVar(&cliArgs.ConfigFile, "config", "", "path to a JSON config file")
	flags.StringVar(&cliArgs.DateFormat, "date-format", "", "hint for the date-format guesser (default: auto-detect)")
	flags.IntVar(&cliArgs.Neighbourhood, "neighbourhood", 0, "default neighbourhood size for filtering")
	flags.BoolVar(&cliArgs.NoColor, "no-color", false, "disable themed/color output")

	rootCmd.PreRun = func(cmd *cobra.Command, args []string) {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			cliArgs.MarkSet(f.Name)
		})
	}
}

func openBackend(cfg config.Config) (source.Backend, error) {
	if cfg.FilePath == "" {
		data, err := readAllStdin()
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return source.MemoryBackend{Data: data}, nil
	}
	return source.FileBackend{Path: cfg.FilePath}, nil
}

func run(cmd *cobra.Command, args *config.Args) error {
	cfg, err := config.Setup(args)
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	ctx := cmd.Context()
	logger.Start(ctx, logger.Mode{
		Level:    logger.ParseLevel(cfg.LogLevel),
		ToStdout: cfg.LogDir == "",
		ToFile:   cfg.LogDir != "",
		LogDir:   cfg.LogDir,
	})

	if cfg.ProfilePort != 0 {
		addr := fmt.Sprintf("localhost:%d", cfg.ProfilePort)
		go func() {
			logger.Warn("pprof listener exited", http.ListenAndServe(addr, nil))
		}()
		logger.Info("started pprof listener", addr)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	src := source.New(backend)
	src.TrackLineNumber(true)

	rt := tasks.NewRuntime(cfg.BackgroundTaskWeight)

	width, height := terminalSize()
	model, err := viewport.New(src, height, width, rt)
	if err != nil {
		return fmt.Errorf("loading initial page: %w", err)
	}
	model.SetDateFormat(cfg.DateFormat)
	model.SetShowLineNumbers(true)

	// The interactive render/key-binding loop is the external UI
	// collaborator (§1 out of scope); this binary's job ends at handing
	// it a fully wired model.
	return serve(ctx, rt, model)
}
