package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/feed"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/playlist"
)

// FeedKind selects the feed implementation.
type FeedKind string

const (
	// FeedFile reads a YAML, JSON or .bplist file named by source.
	FeedFile FeedKind = "file"
	// FeedList yields the songs listed in the config itself.
	FeedList FeedKind = "list"
)

// FeedConfig configures one feed. Zero fields take the defaults of its kind.
type FeedConfig struct {
	Name          string         `yaml:"name"`
	Kind          FeedKind       `yaml:"kind"`
	Enabled       *bool          `yaml:"enabled,omitempty"`
	MaxSongs      int            `yaml:"max_songs,omitempty"`
	Playlist      string         `yaml:"playlist,omitempty"`
	PlaylistStyle playlist.Style `yaml:"playlist_style,omitempty"`
	Source        string         `yaml:"source,omitempty"`
	Songs         []model.Song   `yaml:"songs,omitempty"`
}

// feedDefaults holds the defaults of each feed kind. An empty Playlist means
// the feed's own name.
var feedDefaults = map[FeedKind]FeedConfig{
	FeedFile: {MaxSongs: 0, PlaylistStyle: playlist.StyleAppend},
	FeedList: {MaxSongs: 0, PlaylistStyle: playlist.StyleReplace},
}

// FeedKinds returns the supported kinds.
func FeedKinds() []FeedKind {
	return []FeedKind{FeedFile, FeedList}
}

// FeedDefaults returns the defaults for kind.
func FeedDefaults(kind FeedKind) (FeedConfig, bool) {
	d, ok := feedDefaults[kind]
	return d, ok
}

// IsEnabled reports whether the feed should run. Feeds are enabled unless
// switched off.
func (f FeedConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Resolved returns a copy with zero fields filled from the kind's defaults.
func (f FeedConfig) Resolved() FeedConfig {
	r := f
	r.Kind = FeedKind(strings.ToLower(string(r.Kind)))
	d := feedDefaults[r.Kind]
	if r.MaxSongs == 0 {
		r.MaxSongs = d.MaxSongs
	}
	if r.Playlist == "" {
		r.Playlist = d.Playlist
	}
	if r.Playlist == "" {
		r.Playlist = r.Name
	}
	if r.PlaylistStyle == "" {
		r.PlaylistStyle = d.PlaylistStyle
	}
	if r.Enabled == nil {
		enabled := true
		r.Enabled = &enabled
	}
	return r
}

// Validate checks the feed config.
func (f FeedConfig) Validate() error {
	kinds := make([]interface{}, 0, len(feedDefaults))
	for _, k := range FeedKinds() {
		kinds = append(kinds, k)
	}
	r := f.Resolved()
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(kinds...)),
		validation.Field(&r.MaxSongs, validation.Min(0)),
		validation.Field(&r.PlaylistStyle, validation.In(playlist.StyleAppend, playlist.StyleReplace)),
		validation.Field(&r.Source, validation.By(func(interface{}) error {
			if r.Kind == FeedFile && strings.TrimSpace(r.Source) == "" {
				return errors.Wrap(errors.ErrConfigValidation, "file feeds need a source path")
			}
			return nil
		})),
	)
	if err != nil {
		if _, ok := err.(validation.Errors); ok && r.Kind != "" {
			if _, known := feedDefaults[r.Kind]; !known {
				return errors.Wrapf(errors.ErrUnknownFeedKind, "%q", r.Kind)
			}
		}
		return errors.Wrapf(errors.ErrConfigValidation, "feed %q: %v", f.Name, err)
	}
	return nil
}

// Build creates the feed described by the config.
func (f FeedConfig) Build() (feed.Feed, error) {
	r := f.Resolved()
	switch r.Kind {
	case FeedFile:
		return feed.NewFileFeed(r.Name, r.Source, r.MaxSongs), nil
	case FeedList:
		return feed.NewListFeed(r.Name, r.MaxSongs, r.Songs...), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownFeedKind, "%q", r.Kind)
	}
}
