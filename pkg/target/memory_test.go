package target_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/target"
	"github.com/cperrin88/beatsync/test/testutil"
)

func TestMemoryTarget(t *testing.T) {
	files := testutil.BeatmapFiles("Song", "Mapper", "3")
	data := testutil.BeatmapZip(t, files)
	hash := testutil.BeatmapHash(t, files)
	ctx := context.Background()

	tgt := target.NewMemoryTarget("dry-run", "0000000000000000000000000000000000000001")
	tgt.Filter = func(s model.Song) bool { return s.Mapper != "Blocked" }
	assert.Equal(t, "dry-run", tgt.Name())

	state, err := tgt.GetTargetState(ctx, model.Song{Hash: "0000000000000000000000000000000000000001"})
	require.NoError(t, err)
	assert.Equal(t, target.AlreadyExists, state)

	state, err = tgt.GetTargetState(ctx, model.Song{Hash: hash, Mapper: "Blocked"})
	require.NoError(t, err)
	assert.Equal(t, target.NotWanted, state)

	song := model.NewSong(hash, "ab", "Song", "Mapper")
	state, err = tgt.GetTargetState(ctx, song)
	require.NoError(t, err)
	assert.Equal(t, target.Wanted, state)

	res := tgt.Transfer(ctx, song, bytes.NewReader(data))
	require.True(t, res.Successful())
	assert.Equal(t, hash, res.ComputedHash)
	assert.False(t, res.HashMismatch)

	state, err = tgt.GetTargetState(ctx, song)
	require.NoError(t, err)
	assert.Equal(t, target.AlreadyExists, state)

	transfers := tgt.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(len(data)), transfers[0].Size)

	bad := tgt.Transfer(ctx, song, bytes.NewReader([]byte("garbage")))
	assert.Equal(t, target.StatusFailed, bad.Status)
}
