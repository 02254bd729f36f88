// Package target defines where downloaded beatmaps end up and implements the
// song directory and in-memory destinations.
package target

import (
	"context"
	"io"

	"github.com/cperrin88/beatsync/pkg/archive"
	"github.com/cperrin88/beatsync/pkg/model"
)

// State tells whether a target needs a song.
type State int

const (
	NotWanted State = iota
	Wanted
	AlreadyExists
)

func (s State) String() string {
	switch s {
	case NotWanted:
		return "NotWanted"
	case Wanted:
		return "Wanted"
	case AlreadyExists:
		return "AlreadyExists"
	default:
		return "Unknown"
	}
}

// Status is the outcome of a transfer.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Result describes one transfer of a song into a target.
type Result struct {
	Target string
	Song   model.Song
	Status Status
	// Extract is nil when extraction was never attempted.
	Extract      *archive.ExtractResult
	ComputedHash string
	// HashMismatch is set when the song carried a hash and the produced
	// beatmap hashes differently.
	HashMismatch bool
	Err          error
}

// Successful reports whether the song is now present in the target.
func (r *Result) Successful() bool {
	return r != nil && r.Status == StatusSuccess
}

// Target receives downloaded beatmaps.
type Target interface {
	Name() string
	// GetTargetState reports whether song should be transferred.
	GetTargetState(ctx context.Context, song model.Song) (State, error)
	// Transfer consumes a zip archive for song. Failures are reported in the
	// result, never returned.
	Transfer(ctx context.Context, song model.Song, src io.Reader) *Result
}
