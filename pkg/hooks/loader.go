package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadHooksFromDir registers every <hook-type>.tengo file in dir. A missing
// directory loads nothing. Files for unknown hook types are skipped.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "failed to read hooks directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !isKnown(hookType) {
			logger.Debug("Skipping unknown hook file", logger.Fields{"file": entry.Name()})
			continue
		}

		hookPath := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(hookPath)
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "error reading hook file %s: %v", hookPath, err)
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errors.Wrapf(err, "error adding hook %s", hookType)
		}
		logger.Debug("Loaded hook", logger.Fields{"type": string(hookType), "path": hookPath})
	}
	return nil
}

func isKnown(hookType HookType) bool {
	for _, t := range HookTypes() {
		if t == hookType {
			return true
		}
	}
	return false
}

// HookTemplate returns a starter script for hookType.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case SongFilter:
		return `// Song filter hook
// Runs before a song is downloaded. Set wanted to false to skip it.
// Available variables:
// - songHash, songKey, songName, mapper: string - the song
// - source: string - the feed that offered the song
// - targetName: string - the target being asked
// - wanted: bool - defaults to true

// Example: skip songs by a mapper
/*
if mapper == "SomeMapper" {
    wanted = false
}
*/`

	case PostDownload:
		return `// Post-download hook
// Runs after a beatmap was extracted and verified.
// Available variables: same as song-filter, plus
// - songDir: string - the extracted beatmap directory

// Example: print where the song went
/*
fmt := import("fmt")
fmt.println(songName + " -> " + songDir)
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
