package feed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/feed"
	"github.com/cperrin88/beatsync/pkg/model"
)

const (
	hashA = "A000000000000000000000000000000000000001"
	hashB = "B000000000000000000000000000000000000002"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListFeed(t *testing.T) {
	f := feed.NewListFeed("manual", 0,
		model.Song{Hash: "a000000000000000000000000000000000000001", Name: "A"},
		model.Song{Hash: hashA, Name: "A duplicate"},
		model.Song{Hash: "not-a-hash"},
		model.Song{Name: "no identity"},
		model.Song{Key: "1A2B", Name: "B"},
	)
	require.True(t, f.HasSettings())
	require.NoError(t, f.Initialize(context.Background()))

	res := f.Read(context.Background())
	require.True(t, res.Successful())
	require.Len(t, res.Songs, 2)
	assert.Equal(t, hashA, res.Songs[0].Hash)
	assert.Equal(t, "A", res.Songs[0].Name)
	assert.Equal(t, "manual", res.Songs[0].Source)
	assert.Equal(t, "1a2b", res.Songs[1].Key)

	assert.False(t, feed.NewListFeed("empty", 0).HasSettings())
}

func TestListFeedMaxSongs(t *testing.T) {
	f := feed.NewListFeed("manual", 1, model.Song{Hash: hashA}, model.Song{Hash: hashB})

	res := f.Read(context.Background())
	require.True(t, res.Successful())
	assert.Len(t, res.Songs, 1)
}

func TestListFeedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := feed.NewListFeed("manual", 0, model.Song{Hash: hashA}).Read(ctx)
	assert.Equal(t, feed.ReadCanceled, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestFileFeedFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml list", "songs.yaml", "- hash: " + hashA + "\n  name: A\n- key: 1a2b\n  name: B\n  mapper: M\n"},
		{"yaml document", "songs.yml", "songs:\n  - hash: " + hashA + "\n    name: A\n  - key: 1a2b\n    name: B\n"},
		{"json list", "songs.json", `[{"hash":"` + hashA + `","songName":"A"},{"key":"1a2b","songName":"B"}]`},
		{"json document", "songs.json", `{"songs":[{"hash":"` + hashA + `","songName":"A"},{"key":"1a2b","songName":"B"}]}`},
		{"playlist", "fav.bplist", `{"playlistTitle":"Fav","playlistAuthor":"me","songs":[
			{"hash":"` + hashA + `","songName":"A"},{"key":"1a2b","songName":"B","hash":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := feed.NewFileFeed("file", writeFile(t, tt.file, tt.content), 0)
			require.True(t, f.HasSettings())
			require.NoError(t, f.Initialize(context.Background()))

			res := f.Read(context.Background())
			require.True(t, res.Successful(), "read failed: %v", res.Err)
			require.Len(t, res.Songs, 2)
			assert.Equal(t, hashA, res.Songs[0].Hash)
			assert.Equal(t, "A", res.Songs[0].Name)
			assert.Equal(t, "1a2b", res.Songs[1].Key)
			assert.Equal(t, "file", res.Songs[1].Source)
		})
	}
}

func TestFileFeedErrors(t *testing.T) {
	t.Run("no path", func(t *testing.T) {
		assert.False(t, feed.NewFileFeed("file", " ", 0).HasSettings())
	})

	t.Run("missing file", func(t *testing.T) {
		f := feed.NewFileFeed("file", filepath.Join(t.TempDir(), "none.yaml"), 0)
		assert.ErrorIs(t, f.Initialize(context.Background()), errors.ErrFeedRead)

		res := f.Read(context.Background())
		assert.Equal(t, feed.ReadFailed, res.Status)
		assert.ErrorIs(t, res.Err, errors.ErrFeedRead)
	})

	t.Run("directory", func(t *testing.T) {
		f := feed.NewFileFeed("file", t.TempDir(), 0)
		assert.ErrorIs(t, f.Initialize(context.Background()), errors.ErrFeedRead)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		res := feed.NewFileFeed("file", writeFile(t, "songs.txt", "x"), 0).Read(context.Background())
		assert.Equal(t, feed.ReadFailed, res.Status)
		assert.ErrorIs(t, res.Err, errors.ErrUnsupportedFeedFile)
	})

	t.Run("broken json", func(t *testing.T) {
		res := feed.NewFileFeed("file", writeFile(t, "songs.json", "[{"), 0).Read(context.Background())
		assert.Equal(t, feed.ReadFailed, res.Status)
	})
}

func TestFileFeedMaxSongs(t *testing.T) {
	path := writeFile(t, "songs.yaml", "- hash: "+hashA+"\n- hash: "+hashB+"\n")

	res := feed.NewFileFeed("file", path, 1).Read(context.Background())
	require.True(t, res.Successful())
	require.Len(t, res.Songs, 1)
	assert.Equal(t, hashA, res.Songs[0].Hash)
}
