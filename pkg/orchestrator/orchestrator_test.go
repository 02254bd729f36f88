package orchestrator_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/feed"
	mock_feed "github.com/cperrin88/beatsync/pkg/feed/mocks"
	"github.com/cperrin88/beatsync/pkg/history"
	bshttp "github.com/cperrin88/beatsync/pkg/http"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/orchestrator"
	mock_orchestrator "github.com/cperrin88/beatsync/pkg/orchestrator/mocks"
	"github.com/cperrin88/beatsync/pkg/playlist"
	"github.com/cperrin88/beatsync/pkg/target"
	"github.com/cperrin88/beatsync/test/testutil"
)

const notFoundHash = "D375405D047D6A2A4DD0F4D40D8DA77554F1F677"

type fixture struct {
	server    *testutil.ProviderServer
	songsDir  string
	history   *history.Store
	playlists *playlist.Manager
	events    []orchestrator.Event
	mu        sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		server:    testutil.NewProviderServer(t),
		songsDir:  filepath.Join(dir, "CustomLevels"),
		history:   history.NewStore(filepath.Join(dir, "history.json")),
		playlists: playlist.NewManager(filepath.Join(dir, "Playlists")),
	}
	require.NoError(t, f.history.Initialize())
	return f
}

func (f *fixture) orchestrator(t *testing.T, targets ...orchestrator.Target) *orchestrator.Orchestrator {
	t.Helper()
	provider, err := download.NewProvider(f.server.URL)
	require.NoError(t, err)
	if len(targets) == 0 {
		targets = []orchestrator.Target{target.NewDirectoryTarget(f.songsDir, target.DirectoryOptions{Name: "songs"})}
	}
	return &orchestrator.Orchestrator{
		DL:        download.NewManager(2),
		History:   f.history,
		Targets:   targets,
		Playlists: f.playlists,
		Jobs: download.JobConfig{
			Client:   bshttp.NewHTTPClient(bshttp.Options{Retries: 0, InitialWait: time.Millisecond}),
			Provider: provider,
		},
		Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
			f.mu.Lock()
			f.events = append(f.events, e)
			f.mu.Unlock()
		}},
	}
}

func (f *fixture) phases() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool)
	for _, e := range f.events {
		out[e.Phase] = true
	}
	return out
}

func songWithHash(hash string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		song, ok := x.(model.Song)
		return ok && song.Hash == hash
	})
}

func run(name string, songs ...model.Song) orchestrator.FeedRun {
	return orchestrator.FeedRun{
		Feed:    feed.NewListFeed(name, 0, songs...),
		Options: orchestrator.FeedOptions{Playlist: name, PlaylistStyle: playlist.StyleAppend},
	}
}

func TestSyncEndToEnd(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Test Song", "Mapper", "42")
	hash := testutil.BeatmapHash(t, files)
	f.server.AddHash(hash, testutil.BeatmapZip(t, files))
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("favorites", model.NewSong(hash, "1a2b", "Test Song", "Mapper"))}, false)
	require.NoError(t, res.Err)
	require.NotEmpty(t, res.ID)
	require.Len(t, res.Feeds, 1)
	feedRes := res.Feeds[0]
	require.True(t, feedRes.Successful(), "feed failed: %v", feedRes.Err)
	require.Len(t, feedRes.Songs, 1)

	song := feedRes.Songs[0]
	assert.Equal(t, orchestrator.SongDownloaded, song.Status)
	require.NotNil(t, song.Download)
	assert.Equal(t, download.StatusSuccess, song.Download.Status)
	require.Len(t, song.Targets, 1)
	assert.Equal(t, target.StatusSuccess, song.Targets[0].Status)
	assert.Equal(t, hash, song.Targets[0].ComputedHash)
	assert.False(t, song.Targets[0].HashMismatch)

	jobs := o.DL.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, download.JobFinished, jobs[0].Status())

	entry, ok := f.history.TryGetValue(hash)
	require.True(t, ok)
	assert.Equal(t, history.FlagDownloaded, entry.Flag)

	reloaded := history.NewStore(f.history.Path())
	require.NoError(t, reloaded.Initialize())
	entry, ok = reloaded.TryGetValue(hash)
	require.True(t, ok)
	assert.Equal(t, history.FlagDownloaded, entry.Flag)

	lists := playlist.NewManager(f.playlists.Dir())
	require.NoError(t, lists.Load())
	for _, name := range []string{"favorites", playlist.AllSongs} {
		p, ok := lists.Get(name)
		require.True(t, ok, name)
		assert.True(t, p.Contains(hash), name)
	}

	phases := f.phases()
	for _, phase := range []string{"reading", "checking", "downloading", "transferring", "done"} {
		assert.True(t, phases[phase], phase)
	}
}

func TestSyncNotFound(t *testing.T) {
	f := newFixture(t)
	f.playlists.Add(model.NewSong(notFoundHash, "", "Gone", ""), "favorites", "other")
	require.NoError(t, f.playlists.Save())
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("favorites", model.NewSong(notFoundHash, "", "Gone", ""))}, false)
	require.NoError(t, res.Err)

	song := res.Feeds[0].Songs[0]
	assert.Equal(t, orchestrator.SongNotFound, song.Status)
	require.NotNil(t, song.Download)
	assert.Equal(t, download.StatusNetNotFound, song.Download.Status)
	assert.Equal(t, 404, song.Download.HTTPStatus)
	assert.ErrorIs(t, song.Err, errors.ErrNotFound)
	assert.Empty(t, song.Targets, "no extraction is attempted")
	assert.NoDirExists(t, f.songsDir)

	entry, ok := f.history.TryGetValue(notFoundHash)
	require.True(t, ok)
	assert.Equal(t, history.FlagBeatSaverNotFound, entry.Flag)

	lists := playlist.NewManager(f.playlists.Dir())
	require.NoError(t, lists.Load())
	for _, name := range []string{"favorites", "other"} {
		p, ok := lists.Get(name)
		require.True(t, ok)
		assert.False(t, p.Contains(notFoundHash), name)
	}
}

func TestSyncSkipsResolvedHistory(t *testing.T) {
	f := newFixture(t)
	done := "A000000000000000000000000000000000000001"
	missing := "B000000000000000000000000000000000000002"
	_, err := f.history.TryAdd(done, history.Entry{SongInfo: "(1) Done", Flag: history.FlagDownloaded})
	require.NoError(t, err)
	_, err = f.history.TryAdd(missing, history.Entry{SongInfo: "(2) Missing", Flag: history.FlagBeatSaverNotFound})
	require.NoError(t, err)
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("fav", model.Song{Hash: done}, model.Song{Hash: missing})}, false)
	require.NoError(t, res.Err)

	assert.Equal(t, 2, res.Count(orchestrator.SongSkipped))
	assert.Zero(t, f.server.Requests(done))
	assert.Zero(t, f.server.Requests(missing))

	p, ok := f.playlists.Get("fav")
	require.True(t, ok)
	assert.True(t, p.Contains(done), "downloaded songs are re-added")
	assert.False(t, p.Contains(missing))
}

func TestSyncRetriesErrorFlag(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Retry", "Mapper", "9")
	hash := testutil.BeatmapHash(t, files)
	f.server.AddHash(hash, testutil.BeatmapZip(t, files))
	_, err := f.history.TryAdd(hash, history.Entry{SongInfo: "Retry", Flag: history.FlagError})
	require.NoError(t, err)
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("fav", model.Song{Hash: hash})}, false)
	require.NoError(t, res.Err)
	assert.Equal(t, orchestrator.SongDownloaded, res.Feeds[0].Songs[0].Status)

	entry, _ := f.history.TryGetValue(hash)
	assert.Equal(t, history.FlagDownloaded, entry.Flag)
}

func TestSyncDuplicateAcrossFeeds(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Shared", "Mapper", "5")
	hash := testutil.BeatmapHash(t, files)
	f.server.AddHash(hash, testutil.BeatmapZip(t, files))
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{
		run("first", model.Song{Hash: hash}),
		run("second", model.Song{Hash: hash}),
	}, false)
	require.NoError(t, res.Err)

	assert.Equal(t, 1, f.server.Requests(hash))
	for _, fr := range res.Feeds {
		// The later feed either joins the queued job or finds the song
		// already extracted.
		assert.Contains(t, []orchestrator.SongStatus{orchestrator.SongDownloaded, orchestrator.SongExists}, fr.Songs[0].Status, fr.Feed)
		p, ok := f.playlists.Get(fr.Feed)
		require.True(t, ok)
		assert.True(t, p.Contains(hash), fr.Feed)
	}
	entries, err := os.ReadDir(f.songsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSyncKeyOnlySongRecordsComputedHash(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Keyed", "Mapper", "11")
	hash := testutil.BeatmapHash(t, files)
	f.server.AddKey("ff01", testutil.BeatmapZip(t, files))
	o := f.orchestrator(t)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("fav", model.Song{Key: "FF01", Name: "Keyed"})}, false)
	require.NoError(t, res.Err)

	song := res.Feeds[0].Songs[0]
	require.Equal(t, orchestrator.SongDownloaded, song.Status)
	entry, ok := f.history.TryGetValue(hash)
	require.True(t, ok)
	assert.Equal(t, history.FlagDownloaded, entry.Flag)
}

func TestSyncRejectedHashMismatch(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Wrong", "Mapper", "13")
	claimed := "C000000000000000000000000000000000000003"
	f.server.AddHash(claimed, testutil.BeatmapZip(t, files))
	tgt := target.NewDirectoryTarget(f.songsDir, target.DirectoryOptions{RejectHashMismatch: true})
	o := f.orchestrator(t, tgt)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("fav", model.Song{Hash: claimed})}, false)
	require.NoError(t, res.Err)

	song := res.Feeds[0].Songs[0]
	assert.Equal(t, orchestrator.SongFailed, song.Status)
	assert.ErrorIs(t, song.Err, errors.ErrHashMismatch)
	entry, _ := f.history.TryGetValue(claimed)
	assert.Equal(t, history.FlagError, entry.Flag)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	files := testutil.BeatmapFiles("Dry", "Mapper", "17")
	hash := testutil.BeatmapHash(t, files)
	f.server.AddHash(hash, testutil.BeatmapZip(t, files))
	mem := target.NewMemoryTarget("dry-run")
	o := f.orchestrator(t, mem)

	res := o.Sync(context.Background(), []orchestrator.FeedRun{run("fav", model.Song{Hash: hash})}, true)
	require.NoError(t, res.Err)
	assert.Equal(t, orchestrator.SongDownloaded, res.Feeds[0].Songs[0].Status)
	assert.Len(t, mem.Transfers(), 1)
	assert.NoFileExists(t, f.history.Path())
	assert.NoDirExists(t, f.playlists.Dir())
}

func TestSyncCanceled(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Sync(ctx, []orchestrator.FeedRun{run("fav", model.Song{Hash: notFoundHash})}, false)
	require.NoError(t, res.Err)
	require.Len(t, res.Feeds, 1)
	assert.True(t, res.Feeds[0].Canceled)
	assert.False(t, f.history.ContainsKey(notFoundHash))
}

func TestConsumeFeedWithMockTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	files := testutil.BeatmapFiles("Mocked", "Mapper", "21")
	hash := testutil.BeatmapHash(t, files)
	data := testutil.BeatmapZip(t, files)
	f.server.AddHash(hash, data)

	existing := "E000000000000000000000000000000000000005"
	unwanted := "F000000000000000000000000000000000000006"

	tgt := mock_orchestrator.NewMockTarget(ctrl)
	tgt.EXPECT().Name().Return("mock").AnyTimes()
	tgt.EXPECT().GetTargetState(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, song model.Song) (target.State, error) {
			switch song.Hash {
			case existing:
				return target.AlreadyExists, nil
			case unwanted:
				return target.NotWanted, nil
			default:
				return target.Wanted, nil
			}
		}).Times(3)
	tgt.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, song model.Song, src io.Reader) *target.Result {
			got, err := io.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, data, got)
			return &target.Result{Target: "mock", Song: song, Status: target.StatusSuccess, ComputedHash: hash}
		}).Times(1)

	sink := mock_orchestrator.NewMockPlaylistSink(ctrl)
	sink.EXPECT().Add(songWithHash(existing), "fav").Return(1).Times(1)
	sink.EXPECT().Add(songWithHash(hash), "fav", playlist.AllSongs).Return(2).Times(1)

	o := f.orchestrator(t, tgt)
	o.Playlists = sink

	res := o.ConsumeFeed(context.Background(), feed.NewListFeed("fav", 0,
		model.Song{Hash: hash}, model.Song{Hash: existing}, model.Song{Hash: unwanted}),
		orchestrator.FeedOptions{Playlist: "fav"})
	require.NoError(t, res.Err)
	require.NoError(t, o.DL.Complete(context.Background()))

	require.Len(t, res.Songs, 3)
	assert.Equal(t, orchestrator.SongDownloaded, res.Songs[0].Status)
	assert.Equal(t, orchestrator.SongExists, res.Songs[1].Status)
	assert.Equal(t, orchestrator.SongNotWanted, res.Songs[2].Status)

	entry, ok := f.history.TryGetValue(existing)
	require.True(t, ok)
	assert.Equal(t, history.FlagPreExisting, entry.Flag)
	assert.False(t, f.history.ContainsKey(unwanted))
}

func TestConsumeFeedTargetStateError(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	tgt := mock_orchestrator.NewMockTarget(ctrl)
	tgt.EXPECT().Name().Return("broken").AnyTimes()
	tgt.EXPECT().GetTargetState(gomock.Any(), gomock.Any()).Return(target.Wanted, assert.AnError)

	o := f.orchestrator(t, tgt)
	res := o.ConsumeFeed(context.Background(), feed.NewListFeed("fav", 0, model.Song{Hash: notFoundHash}), orchestrator.FeedOptions{})

	require.Len(t, res.Songs, 1)
	assert.Equal(t, orchestrator.SongFailed, res.Songs[0].Status)
	assert.ErrorIs(t, res.Songs[0].Err, assert.AnError)
	assert.Zero(t, f.server.Requests(notFoundHash))
}

func TestConsumeFeedReplaceStyle(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	sink := mock_orchestrator.NewMockPlaylistSink(ctrl)
	sink.EXPECT().Clear("ranked").Times(1)

	tgt := mock_orchestrator.NewMockTarget(ctrl)
	tgt.EXPECT().Name().Return("mock").AnyTimes()
	tgt.EXPECT().GetTargetState(gomock.Any(), gomock.Any()).Return(target.NotWanted, nil)

	o := f.orchestrator(t, tgt)
	o.Playlists = sink
	res := o.ConsumeFeed(context.Background(), feed.NewListFeed("ranked", 0, model.Song{Hash: notFoundHash}),
		orchestrator.FeedOptions{Playlist: "ranked", PlaylistStyle: playlist.StyleReplace})
	assert.True(t, res.Successful())
}

func TestConsumeFeedFailures(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fd := mock_feed.NewMockFeed(ctrl)
		fd.EXPECT().Name().Return("broken").AnyTimes()
		fd.EXPECT().HasSettings().Return(true)
		fd.EXPECT().Initialize(gomock.Any()).Return(nil)
		fd.EXPECT().Read(gomock.Any()).Return(&feed.ReadResult{Status: feed.ReadFailed, Err: assert.AnError})

		o := newFixture(t).orchestrator(t)
		res := o.ConsumeFeed(context.Background(), fd, orchestrator.FeedOptions{})
		assert.ErrorIs(t, res.Err, assert.AnError)
		assert.False(t, res.Successful())
	})

	t.Run("initialize failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fd := mock_feed.NewMockFeed(ctrl)
		fd.EXPECT().Name().Return("broken").AnyTimes()
		fd.EXPECT().HasSettings().Return(true)
		fd.EXPECT().Initialize(gomock.Any()).Return(assert.AnError)

		o := newFixture(t).orchestrator(t)
		res := o.ConsumeFeed(context.Background(), fd, orchestrator.FeedOptions{})
		assert.ErrorIs(t, res.Err, assert.AnError)
	})

	t.Run("no settings", func(t *testing.T) {
		o := newFixture(t).orchestrator(t)
		res := o.ConsumeFeed(context.Background(), feed.NewListFeed("empty", 0), orchestrator.FeedOptions{})
		assert.ErrorIs(t, res.Err, errors.ErrFeedNoSettings)
	})

	t.Run("panic is captured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fd := mock_feed.NewMockFeed(ctrl)
		fd.EXPECT().Name().Return("panicky").AnyTimes()
		fd.EXPECT().HasSettings().Return(true)
		fd.EXPECT().Initialize(gomock.Any()).Return(nil)
		fd.EXPECT().Read(gomock.Any()).DoAndReturn(func(context.Context) *feed.ReadResult {
			panic("boom")
		})

		o := newFixture(t).orchestrator(t)
		var res *orchestrator.FeedResult
		require.NotPanics(t, func() {
			res = o.ConsumeFeed(context.Background(), fd, orchestrator.FeedOptions{})
		})
		require.Error(t, res.Err)
		assert.True(t, strings.Contains(res.Err.Error(), "boom"))
	})

	t.Run("nil feed", func(t *testing.T) {
		o := newFixture(t).orchestrator(t)
		res := o.ConsumeFeed(context.Background(), nil, orchestrator.FeedOptions{})
		assert.ErrorIs(t, res.Err, errors.ErrInvalidRequest)
	})
}
