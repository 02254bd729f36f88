// Package feed defines the source of song descriptors for a sync run and
// implements static and file backed feeds.
package feed

import (
	"context"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/model"
)

// ListFeed yields a fixed list of songs.
type ListFeed struct {
	name     string
	songs    []model.Song
	maxSongs int
}

// NewListFeed creates a feed over songs. maxSongs <= 0 means no limit.
func NewListFeed(name string, maxSongs int, songs ...model.Song) *ListFeed {
	return &ListFeed{name: name, songs: songs, maxSongs: maxSongs}
}

// Name returns the feed name.
func (f *ListFeed) Name() string { return f.name }

// HasSettings reports whether the feed has songs.
func (f *ListFeed) HasSettings() bool { return len(f.songs) > 0 }

// Initialize does nothing.
func (f *ListFeed) Initialize(ctx context.Context) error { return ctx.Err() }

// Read returns the valid songs of the list, tagged with the feed name.
func (f *ListFeed) Read(ctx context.Context) *ReadResult {
	if err := ctx.Err(); err != nil {
		return &ReadResult{Status: ReadCanceled, Err: err}
	}
	return &ReadResult{Songs: prepare(f.name, f.songs, f.maxSongs), Status: ReadSuccess}
}

// prepare canonicalises songs, drops invalid and duplicate ones and applies
// the song limit.
func prepare(source string, songs []model.Song, maxSongs int) []model.Song {
	out := make([]model.Song, 0, len(songs))
	seen := make(map[string]bool, len(songs))
	for _, song := range songs {
		song = song.Canonical().WithSource(source)
		if err := song.Validate(); err != nil {
			logger.Warn("Skipping invalid song", logger.Fields{"feed": source, "song": song.String(), "error": err})
			continue
		}
		if !song.HasIdentity() {
			logger.Warn("Skipping song without hash or key", logger.Fields{"feed": source, "song": song.String()})
			continue
		}
		if seen[song.Identity()] {
			continue
		}
		seen[song.Identity()] = true
		out = append(out, song)
		if maxSongs > 0 && len(out) >= maxSongs {
			break
		}
	}
	return out
}
