package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-preview/internal/config"
	"github.com/ironsheep/image-preview/internal/logging"
	"github.com/ironsheep/image-preview/internal/server"
	"github.com/ironsheep/image-preview/internal/watcher"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "image-preview [image]",
		Short: "Non-destructive image preview engine",
		Long: `image-preview stages grayscale, threshold and cleanup previews of an image
without touching the original until a preview is committed.

It speaks JSON-RPC over stdin/stdout; a viewer front end drives it with tool
calls and receives notifications when the paths to display change. Logs go
to stderr.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, cfgFile, args)
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.image-preview.yaml)")

	flags := cmd.Flags()
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", logging.FormatConsole, "log format: console or json")
	flags.Duration("debounce", watcher.DefaultDebounce, "minimum spacing between reported file changes")
	flags.Bool("watch", true, "watch the initial image for external changes")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "image-preview %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

// serve runs the JSON-RPC bridge until stdin closes or the process is
// interrupted.
func serve(cmd *cobra.Command, cfgFile string, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log := logger.With().Str("component", "main").Logger()

	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("config", cfg.File).
		Dur("debounce", cfg.Debounce).
		Msg("starting image-preview")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		In:       os.Stdin,
		Out:      os.Stdout,
		Logger:   logger,
		Debounce: cfg.Debounce,
		Version:  Version,
	})

	if len(args) == 1 {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve image path: %w", err)
		}
		srv.Store().SetOriginalPath(path)
		if cfg.WatchEnabled && !srv.Store().StartWatcher(path) {
			log.Warn().Str("path", path).Msg("initial image not watched")
		}
	}

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}
