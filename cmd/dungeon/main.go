package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/etd-wiki/dungeon/internal/app"
)

// Set by the linker.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dungeon: %v\n", err)
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	tui := tuiCmd(&configPath, &logLevel)

	cmd := &cobra.Command{
		Use:   "dungeon",
		Short: "Browse and edit the Enter the Dungeon character archive",
		Long: `dungeon is a terminal client for the Enter the Dungeon character archive.

Without a subcommand it starts the TUI. "dungeon proxy" runs the local
gateway that forwards /api/characters to the upstream archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          tui.RunE,
	}
	cmd.Flags().AddFlagSet(tui.Flags())

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (TOML, default ~/.config/dungeon/config.toml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(tui)
	cmd.AddCommand(proxyCmd(&configPath, &logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dungeon version %s (build: %s)\n", version, buildTime)
		},
	})

	return cmd
}

func tuiCmd(configPath, logLevel *string) *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the character archive TUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = *configPath
			opts.LogLevel = *logLevel
			return app.RunTUI(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "Preferences file path (default ~/.config/dungeon/prefs.toml)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Keep the character cache in memory for this run")
	return cmd
}

func proxyCmd(configPath, logLevel *string) *cobra.Command {
	var opts app.ProxyOptions

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve /api/characters as a CORS-enabled proxy to the upstream archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = *configPath
			return app.RunProxy(cmd.Context(), opts, app.NewStderrLogger(*logLevel))
		},
	}
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (default from config, 127.0.0.1:8787)")
	cmd.Flags().StringVar(&opts.Upstream, "upstream", "", "Upstream characters URL (default from config)")
	return cmd
}
