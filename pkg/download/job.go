package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
	bshttp "github.com/cperrin88/beatsync/pkg/http"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/pause"
)

const defaultChunkSize = 64 * 1024

// FinishedFunc runs after a job's result is set. Its error is only logged.
type FinishedFunc func(ctx context.Context, job *Job) error

// JobConfig carries a job's collaborators.
type JobConfig struct {
	Client   bshttp.Client
	Provider *Provider
	Pause    *pause.Token
	Events   *Broadcaster
	// ChunkSize is the transfer granularity for progress and pause checks.
	ChunkSize int
}

// Job downloads one song into a container.
type Job struct {
	id        string
	song      model.Song
	container Container
	cfg       JobConfig

	mu        sync.Mutex
	claimed   bool
	status    JobStatus
	progress  Progress
	result    *Result
	callbacks []FinishedFunc
	done      chan struct{}
}

// NewJob creates a job for song. The container receives the archive bytes.
func NewJob(song model.Song, container Container, cfg JobConfig) *Job {
	if cfg.Provider == nil {
		cfg.Provider = DefaultProvider()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Job{
		id:        uuid.NewString(),
		song:      song.Canonical(),
		container: container,
		cfg:       cfg,
		progress:  Progress{Total: -1},
		done:      make(chan struct{}),
	}
}

// ID returns the job's unique id.
func (j *Job) ID() string { return j.id }

// Song returns the song being downloaded.
func (j *Job) Song() model.Song { return j.song }

// Identity is the de-duplication key of the song.
func (j *Job) Identity() string { return j.song.Identity() }

// Status returns the current state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns the bytes transferred so far.
func (j *Job) Progress() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Result returns the terminal result, or nil while the job is running.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Done is closed after the result is set and every callback has returned.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job is done or ctx ends.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.Result(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnFinished registers fn. Callbacks registered after the job finished run
// immediately.
func (j *Job) OnFinished(fn FinishedFunc) {
	j.mu.Lock()
	if j.result == nil {
		j.callbacks = append(j.callbacks, fn)
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()
	<-j.done
	j.invoke(context.Background(), fn)
}

// claim marks the job as taken. Only the first caller gets true.
func (j *Job) claim() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.claimed {
		return false
	}
	j.claimed = true
	return true
}

// Run downloads the song. It never panics on transfer failures and always
// returns a result; a second call waits for the first one.
func (j *Job) Run(ctx context.Context) *Result {
	if !j.claim() {
		res, err := j.Wait(ctx)
		if err != nil {
			return &Result{Status: StatusCanceled, Err: err}
		}
		return res
	}

	j.publish(Event{Kind: EventJobStarted, Status: JobNotStarted})
	res := j.download(ctx)
	j.finish(ctx, res)
	return res
}

// cancelQueued finishes a job that was never started.
func (j *Job) cancelQueued(ctx context.Context, cause error) {
	if !j.claim() {
		return
	}
	if cause == nil {
		cause = context.Canceled
	}
	j.finish(ctx, &Result{Status: StatusCanceled, Reason: "canceled before start", Err: cause, Container: j.container})
}

func (j *Job) download(ctx context.Context) *Result {
	if err := j.cfg.Pause.Wait(ctx); err != nil {
		return j.canceled(err)
	}

	u, err := j.cfg.Provider.URLFor(j.song)
	if err != nil {
		return &Result{Status: StatusInvalidRequest, Reason: "song has neither hash nor key", Err: err, Container: j.container}
	}
	if j.cfg.Client == nil {
		return &Result{Status: StatusNetFailed, Err: fmt.Errorf("no HTTP client configured"), Container: j.container}
	}
	if j.container == nil {
		return &Result{Status: StatusIOFailed, Err: fmt.Errorf("no download container"), Container: j.container}
	}

	j.setStatus(JobDownloading)
	resp, err := j.cfg.Client.Get(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return j.canceled(ctx.Err())
		}
		return &Result{Status: StatusNetFailed, Reason: err.Error(), Err: errors.Wrap(errors.ErrDownloadFailed, err.Error()), Container: j.container}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Result{Status: StatusNetNotFound, HTTPStatus: resp.StatusCode, Reason: resp.Status,
			Err: errors.Wrapf(errors.ErrNotFound, "%s", u), Container: j.container}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &Result{Status: StatusNetFailed, HTTPStatus: resp.StatusCode, Reason: resp.Status,
			Err: errors.Wrapf(errors.ErrDownloadFailed, "unexpected status %d from %s", resp.StatusCode, u), Container: j.container}
	}

	if err := j.transfer(ctx, resp); err != nil {
		res := &Result{HTTPStatus: resp.StatusCode, Reason: err.Error(), Err: err, Container: j.container}
		var we *writeError
		switch {
		case ctx.Err() != nil:
			return j.canceled(ctx.Err())
		case stderrors.As(err, &we):
			res.Status = StatusIOFailed
		default:
			res.Status = StatusNetFailed
		}
		return res
	}

	return &Result{Status: StatusSuccess, HTTPStatus: resp.StatusCode, Container: j.container}
}

// writeError marks container failures during a transfer.
type writeError struct{ err error }

func (e *writeError) Error() string { return "write download: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (j *Job) transfer(ctx context.Context, resp *http.Response) error {
	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	j.setProgress(Progress{Total: total})

	buf := make([]byte, j.cfg.ChunkSize)
	var done int64
	for {
		if j.cfg.Pause.IsPaused() {
			j.setStatus(JobPaused)
			if err := j.cfg.Pause.Wait(ctx); err != nil {
				return err
			}
			j.setStatus(JobDownloading)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := j.container.Write(buf[:n]); err != nil {
				return &writeError{err}
			}
			done += int64(n)
			j.setProgress(Progress{Done: done, Total: total})
		}
		if readErr == io.EOF {
			if total >= 0 && done != total {
				return fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, done, total)
			}
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (j *Job) canceled(err error) *Result {
	return &Result{Status: StatusCanceled, Reason: "canceled", Err: err, Container: j.container}
}

func (j *Job) setStatus(s JobStatus) {
	j.mu.Lock()
	if j.status == s {
		j.mu.Unlock()
		return
	}
	j.status = s
	progress := j.progress
	j.mu.Unlock()
	j.publish(Event{Kind: EventStatusChanged, Status: s, Progress: progress})
}

func (j *Job) setProgress(p Progress) {
	j.mu.Lock()
	j.progress = p
	status := j.status
	j.mu.Unlock()
	j.publish(Event{Kind: EventProgressChanged, Status: status, Progress: p})
}

func (j *Job) publish(e Event) {
	e.JobID = j.id
	e.Identity = j.Identity()
	j.cfg.Events.Publish(e)
}

// finish sets the result, runs callbacks with the caller's ctx, and then
// publishes EventJobFinished exactly once.
func (j *Job) finish(ctx context.Context, res *Result) {
	status := res.Status.jobStatus()

	j.mu.Lock()
	j.result = res
	j.status = status
	progress := j.progress
	callbacks := j.callbacks
	j.callbacks = nil
	j.mu.Unlock()

	j.publish(Event{Kind: EventStatusChanged, Status: status, Progress: progress})
	if res.Status != StatusSuccess {
		logger.Debug("Download did not succeed", logger.Fields{
			"song": j.song.String(), "status": res.Status.String(), "error": res.Err,
		})
	}

	for _, fn := range callbacks {
		j.invoke(ctx, fn)
	}

	j.publish(Event{Kind: EventJobFinished, Status: status, Progress: progress, Result: res})
	close(j.done)
}

func (j *Job) invoke(ctx context.Context, fn FinishedFunc) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Download callback panicked", logger.Fields{"job": j.id, "panic": r})
		}
	}()
	if err := fn(ctx, j); err != nil {
		logger.Warn("Download callback failed", logger.Fields{"job": j.id, "song": j.song.String(), "error": err})
	}
}
