package target

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/cperrin88/beatsync/pkg/beatmap"
	"github.com/cperrin88/beatsync/pkg/model"
)

// Transfer is a song received by a MemoryTarget.
type Transfer struct {
	Song model.Song
	Size int64
	Hash string
}

// MemoryTarget keeps transfers in memory. It is used for dry runs.
type MemoryTarget struct {
	name string
	// Filter, when set, decides whether a song is wanted.
	Filter func(model.Song) bool

	mu        sync.Mutex
	existing  map[string]bool
	transfers []Transfer
}

// NewMemoryTarget creates a memory target that already holds the given hashes.
func NewMemoryTarget(name string, existing ...string) *MemoryTarget {
	t := &MemoryTarget{name: name, existing: make(map[string]bool, len(existing))}
	for _, hash := range existing {
		t.existing[model.NormalizeHash(hash)] = true
	}
	return t
}

// Name returns the target name.
func (t *MemoryTarget) Name() string { return t.name }

// GetTargetState reports AlreadyExists for known hashes.
func (t *MemoryTarget) GetTargetState(ctx context.Context, song model.Song) (State, error) {
	if err := ctx.Err(); err != nil {
		return Wanted, err
	}
	t.mu.Lock()
	exists := song.Hash != "" && t.existing[model.NormalizeHash(song.Hash)]
	t.mu.Unlock()
	switch {
	case exists:
		return AlreadyExists, nil
	case t.Filter != nil && !t.Filter(song):
		return NotWanted, nil
	default:
		return Wanted, nil
	}
}

// Transfer reads src fully and hashes it as a beatmap zip.
func (t *MemoryTarget) Transfer(ctx context.Context, song model.Song, src io.Reader) *Result {
	res := &Result{Target: t.name, Song: song}
	if err := ctx.Err(); err != nil {
		res.Status, res.Err = StatusCanceled, err
		return res
	}

	data, err := io.ReadAll(src)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	hash, err := beatmap.HashZip(ctx, bytes.NewReader(data))
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		if ctx.Err() != nil {
			res.Status = StatusCanceled
		}
		return res
	}
	res.ComputedHash = hash
	res.HashMismatch = song.Hash != "" && !strings.EqualFold(song.Hash, hash)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.transfers = append(t.transfers, Transfer{Song: song, Size: int64(len(data)), Hash: hash})
	if hash != "" {
		t.existing[hash] = true
	}
	res.Status = StatusSuccess
	return res
}

// Transfers returns the received songs in order.
func (t *MemoryTarget) Transfers() []Transfer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Transfer, len(t.transfers))
	copy(out, t.transfers)
	return out
}
