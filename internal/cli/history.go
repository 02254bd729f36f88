package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/history"
	"github.com/cperrin88/beatsync/pkg/model"
)

// NewHistoryCmd creates the history command with subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the download history",
		Long: `The download history records the outcome of every beatmap beatsync
has seen. Songs flagged Downloaded, PreExisting, Deleted, Missing or
BeatSaverNotFound are never downloaded again; set the flag to None or Error
to retry one.`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryRemoveCmd(),
		newHistoryFlagCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		flagName string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd.OutOrStdout(), flagName, limit)
		},
	}

	cmd.Flags().StringVar(&flagName, "flag", "", "Only list entries with this flag")
	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Maximum number of entries (0 = all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show HASH",
		Short: "Show one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd.OutOrStdout(), args[0])
		},
	}
}

func newHistoryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove HASH",
		Short: "Remove a history entry so the song is downloaded again",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHistoryRemove(args[0])
		},
	}
}

func newHistoryFlagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flag HASH FLAG",
		Short: "Change the flag of a history entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHistoryFlag(args[0], args[1])
		},
	}
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store := history.NewStore(cfg.Settings.HistoryPath)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return store, nil
}

func runHistoryList(out io.Writer, flagName string, limit int) error {
	var filter *history.Flag
	if flagName != "" {
		f, err := history.ParseFlag(flagName)
		if err != nil {
			return err
		}
		filter = &f
	}

	store, err := openHistory()
	if err != nil {
		return err
	}

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "HASH\tFLAG\tDATE\tSONG")
	shown := 0
	for _, r := range store.Entries() {
		if filter != nil && r.Value.Flag != *filter {
			continue
		}
		if limit > 0 && shown >= limit {
			break
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n",
			r.Key, r.Value.Flag, r.Value.Date.Local().Format(DateFormat), truncate(r.Value.SongInfo, MaxSongInfoLength))
		shown++
	}
	_ = tabWriter.Flush()

	logger.Debug("Listed history", logger.Fields{"shown": shown, "total": store.Len()})
	return nil
}

func runHistoryShow(out io.Writer, hash string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	entry, ok := store.TryGetValue(hash)
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "no history entry for %s", model.NormalizeHash(hash))
	}

	_, _ = fmt.Fprintf(out, "Hash:  %s\n", model.NormalizeHash(hash))
	_, _ = fmt.Fprintf(out, "Song:  %s\n", entry.SongInfo)
	_, _ = fmt.Fprintf(out, "Flag:  %s\n", entry.Flag)
	_, _ = fmt.Fprintf(out, "Date:  %s\n", entry.Date.Local().Format(DateFormat))
	return nil
}

func runHistoryRemove(hash string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	removed, err := store.TryRemove(hash)
	if err != nil {
		return err
	}
	if !removed {
		return errors.Wrapf(errors.ErrNotFound, "no history entry for %s", model.NormalizeHash(hash))
	}
	if err := store.WriteToFile(); err != nil {
		return err
	}

	logger.Success("History entry removed", logger.Fields{"hash": model.NormalizeHash(hash)})
	return nil
}

func runHistoryFlag(hash, flagName string) error {
	flag, err := history.ParseFlag(flagName)
	if err != nil {
		return err
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	updated, err := store.TryUpdateFlag(hash, flag)
	if err != nil {
		return err
	}
	if !updated {
		return errors.Wrapf(errors.ErrNotFound, "no history entry for %s", model.NormalizeHash(hash))
	}
	if err := store.WriteToFile(); err != nil {
		return err
	}

	logger.Success("History entry updated", logger.Fields{"hash": model.NormalizeHash(hash), "flag": flag.String()})
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
