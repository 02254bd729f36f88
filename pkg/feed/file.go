package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/playlist"
)

// songList is the document form of a song list file.
type songList struct {
	Songs []model.Song `json:"songs" yaml:"songs"`
}

// FileFeed reads songs from a local file: a YAML or JSON song list, or a
// .bplist playlist.
type FileFeed struct {
	name     string
	path     string
	maxSongs int
}

// NewFileFeed creates a feed for path. maxSongs <= 0 means no limit.
func NewFileFeed(name, path string, maxSongs int) *FileFeed {
	return &FileFeed{name: name, path: path, maxSongs: maxSongs}
}

// Name returns the feed name.
func (f *FileFeed) Name() string { return f.name }

// Path returns the file the feed reads.
func (f *FileFeed) Path() string { return f.path }

// HasSettings reports whether a path is configured.
func (f *FileFeed) HasSettings() bool { return strings.TrimSpace(f.path) != "" }

// Initialize checks that the file exists.
func (f *FileFeed) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return errors.Wrapf(errors.ErrFeedRead, "%s: %v", f.name, err)
	}
	if info.IsDir() {
		return errors.Wrapf(errors.ErrFeedRead, "%s: %s is a directory", f.name, f.path)
	}
	return nil
}

// Read parses the file. The format follows the extension.
func (f *FileFeed) Read(ctx context.Context) *ReadResult {
	if err := ctx.Err(); err != nil {
		return &ReadResult{Status: ReadCanceled, Err: err}
	}

	songs, err := f.parse()
	if err != nil {
		return failure(ctx, fmt.Errorf("%s: %w: %w", f.name, errors.ErrFeedRead, err))
	}
	return &ReadResult{Songs: prepare(f.name, songs, f.maxSongs), Status: ReadSuccess}
}

func (f *FileFeed) parse() ([]model.Song, error) {
	switch strings.ToLower(filepath.Ext(f.path)) {
	case playlist.FileExtension:
		p, err := playlist.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		songs := make([]model.Song, 0, len(p.Songs))
		for _, s := range p.Songs {
			songs = append(songs, model.NewSong(s.Hash, s.Key, s.SongName, s.LevelAuthorName))
		}
		return songs, nil

	case ".json":
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			var songs []model.Song
			err = json.Unmarshal(data, &songs)
			return songs, err
		}
		var list songList
		err = json.Unmarshal(data, &list)
		return list.Songs, err

	case ".yaml", ".yml":
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		var songs []model.Song
		if err := yaml.Unmarshal(data, &songs); err == nil {
			return songs, nil
		}
		var list songList
		err = yaml.Unmarshal(data, &list)
		return list.Songs, err

	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFeedFile, "%q", filepath.Ext(f.path))
	}
}
