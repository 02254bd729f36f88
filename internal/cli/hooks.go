package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	"github.com/cperrin88/beatsync/pkg/hooks"
)

// NewHooksCmd creates the hooks command.
func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage hook scripts",
		Long: `Hooks are Tengo scripts in the hooks directory named after their type:
song-filter.tengo decides whether a song is wanted, post-download.tengo runs
after a beatmap was extracted.`,
	}

	cmd.AddCommand(newHooksListCmd(), newHooksInitCmd())
	return cmd
}

func newHooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which hooks are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksList(cmd.OutOrStdout())
		},
	}
}

func newHooksInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:       "init TYPE",
		Short:     "Write a starter script for a hook type",
		Args:      cobra.ExactArgs(1),
		ValidArgs: hookTypeNames(),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHooksInit(hooks.HookType(args[0]), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing script")
	return cmd
}

func hookTypeNames() []string {
	names := make([]string, 0, len(hooks.HookTypes()))
	for _, t := range hooks.HookTypes() {
		names = append(names, string(t))
	}
	return names
}

func runHooksList(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	executor := hooks.NewTengoExecutor()
	if err := hooks.LoadHooksFromDir(executor, cfg.Settings.HooksDir); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Hooks directory: %s\n", cfg.Settings.HooksDir)
	for _, t := range hooks.HookTypes() {
		state := "not installed"
		if executor.HasHook(t) {
			state = "installed"
		}
		_, _ = fmt.Fprintf(out, "  %s: %s\n", t, state)
	}
	return nil
}

func runHooksInit(hookType hooks.HookType, force bool) error {
	known := false
	for _, t := range hooks.HookTypes() {
		known = known || t == hookType
	}
	if !known {
		return fmt.Errorf("unknown hook type %q (valid: %v)", hookType, hookTypeNames())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.Settings.HooksDir, string(hookType)+hooks.HookFileExtension)
	if fsutil.Exists(path) && !force {
		return fmt.Errorf("hook script already exists at %s (use --force to overwrite)", path)
	}
	if err := fsutil.EnsureDir(cfg.Settings.HooksDir); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(hooks.HookTemplate(hookType)), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write hook script: %w", err)
	}
	logger.Success("Hook script created", logger.Fields{"path": path})
	return nil
}
