package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/beatmap"
	"github.com/cperrin88/beatsync/pkg/config"
	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/history"
	"github.com/cperrin88/beatsync/pkg/hooks"
	bshttp "github.com/cperrin88/beatsync/pkg/http"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/orchestrator"
	"github.com/cperrin88/beatsync/pkg/playlist"
	"github.com/cperrin88/beatsync/pkg/target"
)

type syncOptions struct {
	dryRun bool
	feeds  []string
}

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download new beatmaps from the configured feeds",
		Long: `Read every enabled feed, download the beatmaps that are neither in the
songs directory nor resolved in the history, extract them and update the
history and playlists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Download without extracting or writing history and playlists")
	cmd.Flags().StringSliceVar(&opts.feeds, "feed", nil, "Only run the named feeds (repeatable)")

	return cmd
}

func runSync(ctx context.Context, out io.Writer, opts syncOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runs, err := buildFeedRuns(cfg, opts.feeds)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logger.Warn("No feeds to run; add feeds to the configuration file", logger.Fields{"config": getConfigPath()})
		return nil
	}

	executor := hooks.NewTengoExecutor()
	if err := hooks.LoadHooksFromDir(executor, cfg.Settings.HooksDir); err != nil {
		return err
	}

	playlists := playlist.NewManager(cfg.Settings.PlaylistsDir)
	if err := playlists.Load(); err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}

	provider, err := download.NewProvider(cfg.Settings.BeatSaverURL)
	if err != nil {
		return err
	}
	events := download.NewBroadcaster()
	progress := newSyncProgress(out, isTTY())
	unsubscribe := events.Subscribe(progress.handle)

	orch := &orchestrator.Orchestrator{
		DL:        download.NewManager(cfg.Settings.MaxConcurrentDownloads),
		History:   history.NewStore(cfg.Settings.HistoryPath),
		Targets:   []orchestrator.Target{buildTarget(ctx, cfg, executor, opts.dryRun)},
		Playlists: playlists,
		Jobs: download.JobConfig{
			Client: bshttp.NewHTTPClient(bshttp.Options{
				Timeout:   cfg.Settings.HTTPTimeout,
				Retries:   cfg.Settings.HTTPRetries,
				UserAgent: cfg.Settings.UserAgent,
			}),
			Provider: provider,
			Events:   events,
		},
		Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
			logger.Debug("Sync event", logger.Fields{"phase": e.Phase, "id": e.ID, "msg": e.Msg})
		}},
	}
	if cfg.Settings.DownloadDir != "" {
		orch.NewContainer = download.FileContainers(cfg.Settings.DownloadDir)
	}

	res := orch.Sync(ctx, runs, opts.dryRun)
	unsubscribe()
	progress.finish()

	printSummary(out, res, progress.bytes(), opts.dryRun)

	if res.Err != nil {
		return res.Err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}
	failed := 0
	for _, f := range res.Feeds {
		if f != nil && f.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d feeds failed", failed, len(res.Feeds))
	}
	return nil
}

// buildFeedRuns resolves the feeds to run. Named feeds run even when they
// are disabled.
func buildFeedRuns(cfg *config.Config, names []string) ([]orchestrator.FeedRun, error) {
	var feeds []config.FeedConfig
	if len(names) == 0 {
		feeds = cfg.EnabledFeeds()
	} else {
		for _, name := range names {
			fc := cfg.GetFeed(name)
			if fc == nil {
				return nil, errors.Wrapf(errors.ErrUnknownFeed, "%q", name)
			}
			feeds = append(feeds, fc.Resolved())
		}
	}

	runs := make([]orchestrator.FeedRun, 0, len(feeds))
	for _, fc := range feeds {
		f, err := fc.Build()
		if err != nil {
			return nil, err
		}
		runs = append(runs, orchestrator.FeedRun{
			Feed:    f,
			Options: orchestrator.FeedOptions{Playlist: fc.Playlist, PlaylistStyle: fc.PlaylistStyle},
		})
	}
	return runs, nil
}

func buildTarget(ctx context.Context, cfg *config.Config, executor hooks.HookManager, dryRun bool) orchestrator.Target {
	if !dryRun {
		return target.NewDirectoryTarget(cfg.Settings.SongsDir, target.DirectoryOptions{
			Hooks:              executor,
			Overwrite:          cfg.Settings.OverwriteTarget,
			RejectHashMismatch: cfg.Settings.RejectHashMismatch,
		})
	}

	mem := target.NewMemoryTarget("dry-run", existingHashes(ctx, cfg.Settings.SongsDir)...)
	mem.Filter = func(song model.Song) bool {
		wanted, err := executor.Evaluate(hooks.SongFilter, hooks.HookContext{
			SongHash: song.Hash,
			SongKey:  song.Key,
			SongName: song.Name,
			Mapper:   song.Mapper,
			Source:   song.Source,
		})
		if err != nil {
			logger.Warn("Song filter failed", logger.Fields{"song": song.String(), "error": err})
			return false
		}
		return wanted
	}
	return mem
}

// existingHashes hashes the beatmaps already in songsDir so a dry run does
// not report them as new.
func existingHashes(ctx context.Context, songsDir string) []string {
	dirs, err := subdirectories(songsDir)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to list songs directory", logger.Fields{"dir": songsDir, "error": err})
		}
		return nil
	}
	found, err := beatmap.HashDirectories(ctx, dirs)
	if err != nil {
		logger.Warn("Some beatmaps could not be hashed", logger.Fields{"error": err})
	}
	hashes := make([]string, 0, len(found))
	for _, h := range found {
		hashes = append(hashes, h)
	}
	return hashes
}
