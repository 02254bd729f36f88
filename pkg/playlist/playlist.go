// Package playlist reads and writes the game's .bplist playlists.
package playlist

import (
	"strings"
	"time"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/model"
)

// FileExtension is the extension of playlist files.
const FileExtension = ".bplist"

// AllSongs is the playlist every successful download is added to.
const AllSongs = "BeatSyncAll"

// DefaultAuthor is written to playlists created by the manager.
const DefaultAuthor = "BeatSync"

// Style controls what happens to a playlist's songs at the start of a run.
type Style string

const (
	// StyleAppend keeps existing songs.
	StyleAppend Style = "append"
	// StyleReplace clears the playlist before the feed adds to it.
	StyleReplace Style = "replace"
)

// ParseStyle parses a style name. Empty means append.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleAppend:
		return StyleAppend, nil
	case StyleReplace:
		return StyleReplace, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidStyle, "%q", s)
	}
}

// Song is a playlist entry.
type Song struct {
	Hash            string    `json:"hash"`
	Key             string    `json:"key,omitempty"`
	SongName        string    `json:"songName,omitempty"`
	LevelAuthorName string    `json:"levelAuthorName,omitempty"`
	DateAdded       time.Time `json:"dateAdded"`
}

// Playlist is the content of a .bplist file.
type Playlist struct {
	Title       string `json:"playlistTitle"`
	Author      string `json:"playlistAuthor"`
	Description string `json:"playlistDescription,omitempty"`
	Image       string `json:"image,omitempty"`
	Songs       []Song `json:"songs"`
}

// New creates an empty playlist.
func New(title string) *Playlist {
	return &Playlist{Title: title, Author: DefaultAuthor, Songs: []Song{}}
}

// Contains reports whether a song with hash is in the playlist.
func (p *Playlist) Contains(hash string) bool {
	return p.indexOf(hash) >= 0
}

func (p *Playlist) indexOf(hash string) int {
	hash = model.NormalizeHash(hash)
	if hash == "" {
		return -1
	}
	for i, s := range p.Songs {
		if model.NormalizeHash(s.Hash) == hash {
			return i
		}
	}
	return -1
}

// Add appends song unless it is already present. Songs without a hash are
// matched by key.
func (p *Playlist) Add(song model.Song) bool {
	song = song.Canonical()
	if song.Hash != "" && p.Contains(song.Hash) {
		return false
	}
	if song.Hash == "" {
		if song.Key == "" {
			return false
		}
		for _, s := range p.Songs {
			if model.NormalizeKey(s.Key) == song.Key {
				return false
			}
		}
	}
	p.Songs = append(p.Songs, Song{
		Hash:            song.Hash,
		Key:             song.Key,
		SongName:        song.Name,
		LevelAuthorName: song.Mapper,
		DateAdded:       time.Now().UTC(),
	})
	return true
}

// RemoveByHash removes the song with hash.
func (p *Playlist) RemoveByHash(hash string) bool {
	i := p.indexOf(hash)
	if i < 0 {
		return false
	}
	p.Songs = append(p.Songs[:i], p.Songs[i+1:]...)
	return true
}

// Clear removes all songs.
func (p *Playlist) Clear() {
	p.Songs = []Song{}
}

func (p *Playlist) clone() *Playlist {
	c := *p
	c.Songs = make([]Song, len(p.Songs))
	copy(c.Songs, p.Songs)
	return &c
}
