package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/beatmap"
)

// NewHashCmd creates the hash command.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [DIR...]",
		Short: "Print the content hashes of beatmap directories",
		Long: `Print the content hash of each beatmap directory. Without arguments
every beatmap in the configured songs directory is hashed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	return cmd
}

func runHash(ctx context.Context, out io.Writer, dirs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(dirs) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dirs, err = subdirectories(cfg.Settings.SongsDir)
		if err != nil {
			return err
		}
	}

	hashes, err := beatmap.HashDirectories(ctx, dirs)
	for _, dir := range dirs {
		if hash, ok := hashes[dir]; ok {
			_, _ = fmt.Fprintf(out, "%s  %s\n", hash, dir)
			continue
		}
		logger.Debug("No beatmap found", logger.Fields{"dir": dir})
	}
	if err != nil {
		return fmt.Errorf("failed to hash beatmaps: %w", err)
	}
	return nil
}

func subdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read songs directory: %w", err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}
