package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cperrin88/beatsync/internal/cli"
	"github.com/cperrin88/beatsync/pkg/config"
)

var (
	configPath string
	verbose    bool
	noColor    bool
	logLevel   string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beatsync",
		Short: "Keep a Beat Saber custom level library in sync with beatmap feeds",
		Long: `beatsync downloads new Beat Saber beatmaps from feeds with:
- Sync: download, verify and extract new beatmaps into the songs directory
- History: a persistent record that prevents downloading a beatmap twice
- Playlists: one playlist per feed plus one with everything downloaded`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	if err := cli.BindFlags(cmd); err != nil {
		panic(err)
	}

	// Add subcommands
	cmd.AddCommand(
		cli.NewSyncCmd(),
		cli.NewHistoryCmd(),
		cli.NewHashCmd(),
		cli.NewConfigCmd(),
		cli.NewHooksCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
