// Package orchestrator consumes feeds: it checks history and targets, runs
// downloads through the download manager, transfers the results into every
// target and records the outcome in history and playlists.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/feed"
	"github.com/cperrin88/beatsync/pkg/history"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/playlist"
	"github.com/cperrin88/beatsync/pkg/target"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Sync consumes all feeds concurrently, waits for every download and then
// writes history and playlists. Problems are reported in the result.
func (o *Orchestrator) Sync(ctx context.Context, runs []FeedRun, dryRun bool) *SyncResult {
	res := &SyncResult{ID: uuid.NewString(), Feeds: make([]*FeedResult, len(runs))}
	logger.Info("Starting sync", logger.Fields{"run": res.ID, "feeds": len(runs), "dry_run": dryRun})

	if o.DL == nil {
		res.Err = fmt.Errorf("download manager is not configured")
		return res
	}
	if o.History != nil {
		if err := o.History.Initialize(); err != nil {
			res.Err = err
			return res
		}
	}
	o.DL.Start(ctx)

	var g errgroup.Group
	for i, run := range runs {
		g.Go(func() error {
			res.Feeds[i] = o.ConsumeFeed(ctx, run.Feed, run.Options)
			return nil
		})
	}
	_ = g.Wait()

	// Jobs unwind promptly once ctx is canceled; their callbacks must finish
	// before history is written.
	var errs []error
	if err := o.DL.Complete(context.WithoutCancel(ctx)); err != nil {
		errs = append(errs, err)
	}
	o.outcomes.Clear()

	if !dryRun {
		if o.History != nil {
			if err := o.History.WriteToFile(); err != nil {
				errs = append(errs, err)
			}
		}
		if o.Playlists != nil {
			if err := o.Playlists.Save(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	res.Err = stderrors.Join(errs...)

	emit(o.Hooks, Event{Phase: "done", ID: res.ID})
	logger.Info("Sync finished", logger.Fields{
		"run":        res.ID,
		"downloaded": res.Count(SongDownloaded),
		"failed":     res.Count(SongFailed),
		"not_found":  res.Count(SongNotFound),
	})
	return res
}

// ConsumeFeed reads f and processes each of its songs concurrently. It never
// panics and never returns an error; everything ends up in the result.
func (o *Orchestrator) ConsumeFeed(ctx context.Context, f feed.Feed, opts FeedOptions) (res *FeedResult) {
	res = &FeedResult{}
	if f == nil {
		res.Err = errors.Wrap(errors.ErrInvalidRequest, "feed cannot be nil")
		return res
	}
	res.Feed = f.Name()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("feed %s panicked: %v", res.Feed, r)
			logger.Error("Feed consumer panicked", logger.Fields{"feed": res.Feed, "panic": r})
			emit(o.Hooks, Event{Phase: "error", ID: res.Feed, Msg: res.Err.Error()})
		}
	}()

	if o.DL == nil {
		res.Err = fmt.Errorf("download manager is not configured")
		return res
	}
	if !f.HasSettings() {
		res.Err = errors.Wrapf(errors.ErrFeedNoSettings, "%s", res.Feed)
		return res
	}
	o.DL.Start(ctx)

	if err := o.Pause.Wait(ctx); err != nil {
		return res.cancel(err)
	}
	emit(o.Hooks, Event{Phase: "reading", ID: res.Feed})
	if err := f.Initialize(ctx); err != nil {
		if ctx.Err() != nil {
			return res.cancel(ctx.Err())
		}
		res.Err = err
		return res
	}

	read := f.Read(ctx)
	res.Read = read
	switch {
	case read == nil:
		res.Err = fmt.Errorf("feed %s returned no result", res.Feed)
		return res
	case read.Status == feed.ReadCanceled:
		return res.cancel(read.Err)
	case read.Status != feed.ReadSuccess:
		res.Err = read.Err
		if res.Err == nil {
			res.Err = errors.Wrapf(errors.ErrFeedRead, "%s", res.Feed)
		}
		return res
	}
	logger.Debug("Feed read", logger.Fields{"feed": res.Feed, "songs": len(read.Songs)})

	if opts.PlaylistStyle == playlist.StyleReplace && opts.Playlist != "" && o.Playlists != nil {
		o.Playlists.Clear(opts.Playlist)
	}

	res.Songs = make([]*SongResult, len(read.Songs))
	var g errgroup.Group
	for i, song := range read.Songs {
		g.Go(func() error {
			res.Songs[i] = o.safeConsumeSong(ctx, song, opts)
			return nil
		})
	}
	_ = g.Wait()

	res.Canceled = ctx.Err() != nil
	emit(o.Hooks, Event{Phase: "done", ID: res.Feed})
	return res
}

func (r *FeedResult) cancel(err error) *FeedResult {
	r.Canceled = true
	r.Err = err
	return r
}

func (o *Orchestrator) safeConsumeSong(ctx context.Context, song model.Song, opts FeedOptions) (sr *SongResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Song processing panicked", logger.Fields{"song": song.String(), "panic": r})
			sr = &SongResult{Song: song, Status: SongFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return o.consumeSong(ctx, song, opts)
}

func (o *Orchestrator) consumeSong(ctx context.Context, song model.Song, opts FeedOptions) *SongResult {
	sr := &SongResult{Song: song}
	if err := o.Pause.Wait(ctx); err != nil {
		sr.Status, sr.Err = SongCanceled, err
		return sr
	}

	if entry, ok := o.historyEntry(song); ok && !entry.Flag.Retryable() {
		sr.Status = SongSkipped
		if entry.Flag == history.FlagDownloaded || entry.Flag == history.FlagPreExisting {
			o.addToPlaylists(song, opts.Playlist)
		}
		logger.Debug("Skipping song resolved in history", logger.Fields{"song": song.String(), "flag": entry.Flag.String()})
		return sr
	}

	emit(o.Hooks, Event{Phase: "checking", ID: song.Identity(), Msg: song.String()})
	wanted, exists, failures, err := o.checkTargets(ctx, song)
	sr.Targets = append(sr.Targets, failures...)
	if err != nil {
		sr.Status, sr.Err = SongCanceled, err
		return sr
	}
	if exists {
		o.record(song, history.FlagPreExisting)
		o.addToPlaylists(song, opts.Playlist)
	}
	if len(wanted) == 0 {
		switch {
		case exists:
			sr.Status = SongExists
		case len(failures) > 0:
			sr.Status = SongFailed
			sr.Err = joinTargetErrors(failures)
		default:
			sr.Status = SongNotWanted
		}
		return sr
	}

	return o.download(ctx, song, wanted, opts, sr)
}

func (o *Orchestrator) historyEntry(song model.Song) (history.Entry, bool) {
	if o.History == nil || song.Hash == "" {
		return history.Entry{}, false
	}
	return o.History.TryGetValue(song.Hash)
}

// checkTargets asks every target about song. Targets that fail to answer are
// returned as failed results and excluded.
func (o *Orchestrator) checkTargets(ctx context.Context, song model.Song) (wanted []Target, exists bool, failures []*target.Result, err error) {
	states := make([]target.State, len(o.Targets))
	errs := make([]error, len(o.Targets))

	var g errgroup.Group
	for i, t := range o.Targets {
		g.Go(func() error {
			if err := o.Pause.Wait(ctx); err != nil {
				return err
			}
			states[i], errs[i] = t.GetTargetState(ctx, song)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, nil, err
	}

	for i, t := range o.Targets {
		switch {
		case errs[i] != nil:
			logger.Warn("Target state check failed", logger.Fields{"target": t.Name(), "song": song.String(), "error": errs[i]})
			failures = append(failures, &target.Result{Target: t.Name(), Song: song, Status: target.StatusFailed, Err: errs[i]})
		case states[i] == target.AlreadyExists:
			exists = true
		case states[i] == target.Wanted:
			wanted = append(wanted, t)
		}
	}
	return wanted, exists, failures, nil
}

func (o *Orchestrator) newContainer() (download.Container, error) {
	if o.NewContainer != nil {
		return o.NewContainer()
	}
	return download.MemoryContainers()
}

// download posts a job for song and waits for its outcome. A duplicate of a
// job posted by another feed reports the original's outcome.
func (o *Orchestrator) download(ctx context.Context, song model.Song, targets []Target, opts FeedOptions, sr *SongResult) *SongResult {
	container, err := o.newContainer()
	if err != nil {
		sr.Status, sr.Err = SongFailed, errors.Wrap(err, "failed to create download container")
		return sr
	}

	job := download.NewJob(song, container, o.Jobs)
	job.OnFinished(func(ctx context.Context, j *download.Job) error {
		o.outcomes.Store(j.ID(), o.complete(ctx, song, targets, j.Result(), opts))
		return nil
	})

	posted, accepted, err := o.DL.TryPostJob(job)
	if err != nil {
		closeContainer(container)
		sr.Status, sr.Err = SongFailed, err
		if ctx.Err() != nil {
			sr.Status = SongCanceled
		}
		return sr
	}
	if !accepted {
		closeContainer(container)
		logger.Debug("Song already queued by another feed", logger.Fields{"song": song.String(), "job": posted.ID()})
	}
	emit(o.Hooks, Event{Phase: "downloading", ID: song.Identity(), Msg: song.String()})

	if _, err := posted.Wait(ctx); err != nil {
		sr.Status, sr.Err = SongCanceled, err
		return sr
	}

	v, ok := o.outcomes.Load(posted.ID())
	if !ok {
		return o.outcomeFromJob(posted, sr)
	}
	outcome := v.(*SongResult)
	if !accepted && outcome.Status == SongDownloaded {
		o.addToPlaylists(outcome.Song, opts.Playlist)
	}

	sr.Status = outcome.Status
	sr.Download = outcome.Download
	sr.Targets = append(sr.Targets, outcome.Targets...)
	sr.Err = outcome.Err
	return sr
}

// outcomeFromJob derives a result from a job whose callback was not
// registered by this orchestrator.
func (o *Orchestrator) outcomeFromJob(job *download.Job, sr *SongResult) *SongResult {
	res := job.Result()
	sr.Download = res
	switch res.Status {
	case download.StatusSuccess:
		sr.Status = SongDownloaded
	case download.StatusNetNotFound:
		sr.Status = SongNotFound
	case download.StatusCanceled:
		sr.Status = SongCanceled
	default:
		sr.Status = SongFailed
	}
	sr.Err = res.Err
	return sr
}

// complete runs when a download finished: it transfers the archive into the
// targets, disposes the container and records the outcome.
func (o *Orchestrator) complete(ctx context.Context, song model.Song, targets []Target, dres *download.Result, opts FeedOptions) *SongResult {
	out := &SongResult{Song: song, Download: dres}
	if dres == nil {
		out.Status, out.Err = SongFailed, fmt.Errorf("download finished without a result")
		return out
	}
	defer closeContainer(dres.Container)

	switch dres.Status {
	case download.StatusSuccess:
		o.transfer(ctx, song, targets, dres.Container, opts, out)
	case download.StatusNetNotFound:
		out.Status, out.Err = SongNotFound, dres.Err
		o.record(song, history.FlagBeatSaverNotFound)
		if o.Playlists != nil && song.Hash != "" {
			if n := o.Playlists.RemoveByHash(song.Hash); n > 0 {
				logger.Info("Removed missing song from playlists", logger.Fields{"song": song.String(), "playlists": n})
			}
		}
	case download.StatusCanceled:
		out.Status, out.Err = SongCanceled, dres.Err
	default:
		out.Status, out.Err = SongFailed, dres.Err
		o.record(song, history.FlagError)
	}
	return out
}

func (o *Orchestrator) transfer(ctx context.Context, song model.Song, targets []Target, container download.Container, opts FeedOptions, out *SongResult) {
	src, err := container.Reader()
	if err != nil {
		out.Status, out.Err = SongFailed, errors.Wrap(err, "failed to read download")
		o.record(song, history.FlagError)
		return
	}

	results := make([]*target.Result, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			results[i] = o.transferTo(ctx, t, song, io.NewSectionReader(src, 0, src.Size()))
			return nil
		})
	}
	_ = g.Wait()
	out.Targets = results

	var succeeded *target.Result
	canceled := false
	for _, r := range results {
		switch {
		case r.Successful() && succeeded == nil:
			succeeded = r
		case r.Status == target.StatusCanceled:
			canceled = true
		}
	}

	switch {
	case succeeded != nil:
		if song.Hash == "" {
			song.Hash = succeeded.ComputedHash
			out.Song = song
		}
		out.Status = SongDownloaded
		o.record(song, history.FlagDownloaded)
		o.addToPlaylists(song, opts.Playlist, playlist.AllSongs)
	case canceled:
		out.Status, out.Err = SongCanceled, ctx.Err()
	default:
		out.Status, out.Err = SongFailed, joinTargetErrors(results)
		o.record(song, history.FlagError)
	}
}

func (o *Orchestrator) transferTo(ctx context.Context, t Target, song model.Song, src io.Reader) (res *target.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Target transfer panicked", logger.Fields{"target": t.Name(), "panic": r})
			res = &target.Result{Target: t.Name(), Song: song, Status: target.StatusFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := o.Pause.Wait(ctx); err != nil {
		return &target.Result{Target: t.Name(), Song: song, Status: target.StatusCanceled, Err: err}
	}
	emit(o.Hooks, Event{Phase: "transferring", ID: song.Identity(), Msg: t.Name()})
	res = t.Transfer(ctx, song, src)
	if res == nil {
		res = &target.Result{Target: t.Name(), Song: song, Status: target.StatusFailed, Err: fmt.Errorf("target returned no result")}
	}
	if !res.Successful() {
		logger.Warn("Transfer failed", logger.Fields{"target": t.Name(), "song": song.String(), "status": res.Status.String(), "error": res.Err})
	}
	return res
}

// record writes flag for song into history. Songs without a hash cannot be
// recorded.
func (o *Orchestrator) record(song model.Song, flag history.Flag) {
	if o.History == nil || song.Hash == "" {
		return
	}
	if err := o.History.AddOrUpdate(song.Hash, song.String(), flag); err != nil {
		logger.Warn("Failed to update history", logger.Fields{"song": song.String(), "flag": flag.String(), "error": err})
	}
}

func (o *Orchestrator) addToPlaylists(song model.Song, names ...string) {
	if o.Playlists == nil {
		return
	}
	o.Playlists.Add(song, names...)
}

func closeContainer(c download.Container) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("Failed to dispose download container", logger.Fields{"error": err})
	}
}

func joinTargetErrors(results []*target.Result) error {
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Target, r.Err))
		}
	}
	return stderrors.Join(errs...)
}
