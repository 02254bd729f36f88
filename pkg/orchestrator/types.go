//go:generate mockgen -destination=./mocks/orchestrator.go . Target,PlaylistSink

package orchestrator

import (
	"context"
	"io"
	"sync"

	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/feed"
	"github.com/cperrin88/beatsync/pkg/history"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/pause"
	"github.com/cperrin88/beatsync/pkg/playlist"
	"github.com/cperrin88/beatsync/pkg/target"
)

// Target is a destination for downloaded beatmaps.
type Target interface {
	Name() string
	GetTargetState(ctx context.Context, song model.Song) (target.State, error)
	Transfer(ctx context.Context, song model.Song, src io.Reader) *target.Result
}

// PlaylistSink is the subset of the playlist manager used by the orchestrator.
type PlaylistSink interface {
	Add(song model.Song, names ...string) int
	RemoveByHash(hash string) int
	Clear(name string)
	Save() error
}

// Orchestrator ties feeds, the download manager, targets, history and
// playlists together.
type Orchestrator struct {
	DL        *download.Manager
	History   *history.Store
	Targets   []Target
	Playlists PlaylistSink // optional
	Pause     *pause.Token
	Hooks     Hooks // Hooks for progress and event notifications
	// Jobs is the configuration every download job is created with.
	Jobs download.JobConfig
	// NewContainer creates the buffer a download is written to. Defaults to
	// in-memory containers.
	NewContainer download.ContainerFactory

	// outcomes maps job IDs to the result of their finished callback, so
	// duplicate submissions can report the original's outcome.
	outcomes sync.Map
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // reading|checking|downloading|transferring|done|error
	ID    string // feed name or song identity
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// FeedOptions control how a feed's songs land in playlists.
type FeedOptions struct {
	// Playlist receives the feed's songs. Empty disables the feed playlist.
	Playlist      string
	PlaylistStyle playlist.Style
}

// FeedRun pairs a feed with its options for Sync.
type FeedRun struct {
	Feed    feed.Feed
	Options FeedOptions
}

// SongStatus is the outcome for one song of a feed.
type SongStatus int

const (
	// SongSkipped means the history marks the song as resolved.
	SongSkipped SongStatus = iota
	// SongExists means a target already holds the song.
	SongExists
	// SongNotWanted means no target wants the song.
	SongNotWanted
	SongDownloaded
	// SongNotFound means the provider has no beatmap for the song.
	SongNotFound
	SongFailed
	SongCanceled
)

func (s SongStatus) String() string {
	switch s {
	case SongSkipped:
		return "Skipped"
	case SongExists:
		return "Exists"
	case SongNotWanted:
		return "NotWanted"
	case SongDownloaded:
		return "Downloaded"
	case SongNotFound:
		return "NotFound"
	case SongFailed:
		return "Failed"
	case SongCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// SongResult is what happened to one song.
type SongResult struct {
	Song   model.Song
	Status SongStatus
	// Download is nil when no download was needed.
	Download *download.Result
	Targets  []*target.Result
	Err      error
}

// FeedResult aggregates the outcome of consuming one feed. It carries every
// failure instead of returning it.
type FeedResult struct {
	Feed  string
	Read  *feed.ReadResult
	Songs []*SongResult
	// Err is set when the feed could not be read or the run panicked.
	Err      error
	Canceled bool
}

// Successful reports whether the feed was read and no song failed.
func (r *FeedResult) Successful() bool {
	if r == nil || r.Err != nil || r.Canceled {
		return false
	}
	for _, s := range r.Songs {
		if s.Status == SongFailed || s.Status == SongCanceled {
			return false
		}
	}
	return true
}

// Count returns the number of songs with status.
func (r *FeedResult) Count(status SongStatus) int {
	n := 0
	for _, s := range r.Songs {
		if s.Status == status {
			n++
		}
	}
	return n
}

// SyncResult aggregates a whole run.
type SyncResult struct {
	// ID identifies the run in logs.
	ID    string
	Feeds []*FeedResult
	// Err holds failures outside any feed: history or playlist writes.
	Err error
}

// Count sums Count over all feeds.
func (r *SyncResult) Count(status SongStatus) int {
	n := 0
	for _, f := range r.Feeds {
		n += f.Count(status)
	}
	return n
}
