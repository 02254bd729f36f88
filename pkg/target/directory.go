package target

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/archive"
	"github.com/cperrin88/beatsync/pkg/beatmap"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	"github.com/cperrin88/beatsync/pkg/hooks"
	"github.com/cperrin88/beatsync/pkg/model"
)

// DirectoryOptions configures a DirectoryTarget.
type DirectoryOptions struct {
	// Name defaults to the base name of the directory.
	Name      string
	Extractor *archive.Extractor
	// Hooks supplies the song-filter and post-download scripts.
	Hooks              hooks.HookManager
	Overwrite          bool
	RejectHashMismatch bool
}

// DirectoryTarget extracts beatmaps into a songs directory, one subdirectory
// per beatmap.
type DirectoryTarget struct {
	name               string
	dir                string
	extractor          *archive.Extractor
	hooks              hooks.HookManager
	overwrite          bool
	rejectHashMismatch bool

	mu       sync.Mutex
	indexed  bool
	existing map[string]string // hash -> beatmap directory
}

// NewDirectoryTarget creates a target for the songs directory dir. The
// directory is created on the first transfer.
func NewDirectoryTarget(dir string, opts DirectoryOptions) *DirectoryTarget {
	name := opts.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = archive.NewExtractor()
	}
	return &DirectoryTarget{
		name:               name,
		dir:                dir,
		extractor:          extractor,
		hooks:              opts.Hooks,
		overwrite:          opts.Overwrite,
		rejectHashMismatch: opts.RejectHashMismatch,
		existing:           make(map[string]string),
	}
}

// Name returns the target name.
func (t *DirectoryTarget) Name() string { return t.name }

// Dir returns the songs directory.
func (t *DirectoryTarget) Dir() string { return t.dir }

// DirectoryName derives the beatmap directory name for song. Sanitizing is
// left to the extractor.
func DirectoryName(song model.Song) string {
	name := song.Name
	if name == "" {
		name = "Unknown"
	}
	label := name
	if song.Mapper != "" {
		label = name + " - " + song.Mapper
	}
	switch {
	case song.Key != "":
		return fmt.Sprintf("%s (%s)", model.NormalizeKey(song.Key), label)
	case song.Hash != "":
		return fmt.Sprintf("%s (%s)", model.NormalizeHash(song.Hash), label)
	default:
		return label
	}
}

// GetTargetState reports AlreadyExists when a beatmap with the song's hash is
// present, NotWanted when the song-filter hook rejects it and Wanted otherwise.
func (t *DirectoryTarget) GetTargetState(ctx context.Context, song model.Song) (State, error) {
	if err := t.ensureIndex(ctx); err != nil {
		return Wanted, err
	}

	if song.Hash != "" {
		if _, ok := t.ExistingDir(song.Hash); ok {
			return AlreadyExists, nil
		}
	}

	if t.hooks == nil {
		return Wanted, nil
	}
	wanted, err := t.hooks.Evaluate(hooks.SongFilter, t.hookContext(song, ""))
	if err != nil {
		return Wanted, errors.Wrapf(err, "song filter failed for %s", song)
	}
	if !wanted {
		logger.Debug("Song rejected by filter", logger.Fields{"song": song.String(), "target": t.name})
		return NotWanted, nil
	}
	return Wanted, nil
}

// ExistingDir returns the directory holding the beatmap with hash, if indexed.
func (t *DirectoryTarget) ExistingDir(hash string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dir, ok := t.existing[model.NormalizeHash(hash)]
	return dir, ok
}

// Refresh rebuilds the index of existing beatmaps.
func (t *DirectoryTarget) Refresh(ctx context.Context) error {
	t.mu.Lock()
	t.indexed = false
	t.existing = make(map[string]string)
	t.mu.Unlock()
	return t.ensureIndex(ctx)
}

func (t *DirectoryTarget) ensureIndex(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.indexed {
		return nil
	}

	entries, err := os.ReadDir(t.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to list %s: %w", t.dir, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(t.dir, entry.Name()))
		}
	}

	hashes, err := beatmap.HashDirectories(ctx, dirs)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		logger.Warn("Some beatmap directories could not be hashed", logger.Fields{"dir": t.dir, "error": err})
	}
	for dir, hash := range hashes {
		t.existing[hash] = dir
	}
	t.indexed = true
	logger.Debug("Indexed existing beatmaps", logger.Fields{"dir": t.dir, "count": len(t.existing)})
	return nil
}

// Transfer extracts the zip in src into the songs directory, verifies the
// produced beatmap and runs the post-download hook.
func (t *DirectoryTarget) Transfer(ctx context.Context, song model.Song, src io.Reader) *Result {
	res := &Result{Target: t.name, Song: song}
	if err := ctx.Err(); err != nil {
		res.Status, res.Err = StatusCanceled, err
		return res
	}

	ext := t.extractor.ExtractZip(ctx, src, t.dir, DirectoryName(song), t.overwrite)
	res.Extract = ext
	if !ext.Successful() {
		res.Status, res.Err = StatusFailed, ext.Err
		if ext.Status == archive.ExtractCanceled {
			res.Status = StatusCanceled
		}
		return res
	}

	hash, err := beatmap.HashDirectory(ext.OutputDir)
	if err != nil {
		logger.Warn("Failed to hash extracted beatmap", logger.Fields{"dir": ext.OutputDir, "error": err})
	}
	res.ComputedHash = hash
	if song.Hash != "" && !strings.EqualFold(song.Hash, hash) {
		res.HashMismatch = true
		logger.Warn("Extracted beatmap hash does not match", logger.Fields{
			"song":     song.String(),
			"expected": model.NormalizeHash(song.Hash),
			"actual":   hash,
		})
		if t.rejectHashMismatch {
			removeExtracted(ext)
			res.Status = StatusFailed
			res.Err = errors.Wrapf(errors.ErrHashMismatch, "expected %s, got %q", model.NormalizeHash(song.Hash), hash)
			return res
		}
	}

	key := hash
	if key == "" {
		key = model.NormalizeHash(song.Hash)
	}
	if key != "" {
		t.mu.Lock()
		t.existing[key] = ext.OutputDir
		t.mu.Unlock()
	}

	if t.hooks != nil {
		if err := t.hooks.Execute(hooks.PostDownload, t.hookContext(song, ext.OutputDir)); err != nil {
			logger.Warn("Post-download hook failed", logger.Fields{"song": song.String(), "error": err})
		}
	}

	res.Status = StatusSuccess
	return res
}

func (t *DirectoryTarget) hookContext(song model.Song, dir string) hooks.HookContext {
	return hooks.HookContext{
		SongHash:   song.Hash,
		SongKey:    song.Key,
		SongName:   song.Name,
		Mapper:     song.Mapper,
		Source:     song.Source,
		TargetName: t.name,
		SongDir:    dir,
	}
}

// removeExtracted deletes the files an extraction created and its directory
// when nothing else is left in it.
func removeExtracted(ext *archive.ExtractResult) {
	for _, file := range ext.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove extracted file", logger.Fields{"file": file, "error": err})
		}
	}
	if fsutil.IsEmptyDir(ext.OutputDir) {
		if err := os.Remove(ext.OutputDir); err != nil {
			logger.Warn("Failed to remove beatmap directory", logger.Fields{"dir": ext.OutputDir, "error": err})
		}
	}
}
