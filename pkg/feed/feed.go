//go:generate mockgen -destination=mocks/feed.go . Feed
package feed

import (
	"context"

	"github.com/cperrin88/beatsync/pkg/model"
)

// ReadStatus is the outcome of reading a feed.
type ReadStatus int

const (
	ReadSuccess ReadStatus = iota
	ReadFailed
	ReadCanceled
)

func (s ReadStatus) String() string {
	switch s {
	case ReadSuccess:
		return "Success"
	case ReadFailed:
		return "Failed"
	case ReadCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// ReadResult is one batch of songs from a feed.
type ReadResult struct {
	Songs  []model.Song
	Status ReadStatus
	Err    error
}

// Successful reports whether the feed was read.
func (r *ReadResult) Successful() bool {
	return r != nil && r.Status == ReadSuccess
}

// Feed yields song descriptors.
type Feed interface {
	Name() string
	// HasSettings reports whether the feed is configured well enough to read.
	HasSettings() bool
	Initialize(ctx context.Context) error
	// Read returns the feed's songs. Failures are reported in the result.
	Read(ctx context.Context) *ReadResult
}

func failure(ctx context.Context, err error) *ReadResult {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &ReadResult{Status: ReadCanceled, Err: ctxErr}
	}
	return &ReadResult{Status: ReadFailed, Err: err}
}
