// Package download runs beatmap downloads on a bounded worker pool with
// per-song de-duplication.
package download

import (
	"context"
	"sync"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
)

// DefaultConcurrency is the worker count when none is configured.
const DefaultConcurrency = 3

// Manager schedules jobs FIFO onto a fixed number of workers. A song is
// downloaded at most once per manager: posting a job for a song that was
// already posted hands back the original job.
type Manager struct {
	concurrency int

	mu         sync.Mutex
	byIdentity map[string]*Job
	jobs       []*Job
	queue      []*Job
	started    bool
	completing bool
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc

	notify  chan struct{}
	tasks   chan *Job
	workers sync.WaitGroup
	stopped chan struct{}
}

// NewManager creates a manager running up to concurrency jobs at once.
func NewManager(concurrency int) *Manager {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Manager{
		concurrency: concurrency,
		byIdentity:  make(map[string]*Job),
		notify:      make(chan struct{}, 1),
		tasks:       make(chan *Job),
		stopped:     make(chan struct{}),
	}
}

// Concurrency returns the worker count.
func (m *Manager) Concurrency() int { return m.concurrency }

// Start launches the workers. Canceling ctx, or calling Cancel, cancels
// running jobs and every job still queued. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	for w := 0; w < m.concurrency; w++ {
		m.workers.Add(1)
		go m.work()
	}
	go m.dispatch()
}

// TryPostJob queues job. It returns the job that will produce the song's
// result and whether job itself was accepted. A duplicate returns the
// original job and false. After Complete or Cancel it returns
// ErrManagerClosed.
func (m *Manager) TryPostJob(job *Job) (*Job, bool, error) {
	if job == nil {
		return nil, false, errors.Wrap(errors.ErrInvalidRequest, "job cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.completing || (m.ctx != nil && m.ctx.Err() != nil) {
		return nil, false, errors.ErrManagerClosed
	}

	key := job.Identity()
	if key == "" {
		key = "job:" + job.ID()
	}
	if existing, ok := m.byIdentity[key]; ok {
		return existing, false, nil
	}

	m.byIdentity[key] = job
	m.jobs = append(m.jobs, job)
	m.queue = append(m.queue, job)
	m.signal()
	return job, true, nil
}

// TryGetJob looks up the job posted for a song identity (see model.Song.Identity).
func (m *Manager) TryGetJob(identity string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byIdentity[identity]
	return job, ok
}

// Jobs returns every accepted job in posting order.
func (m *Manager) Jobs() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Job, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// Complete stops accepting jobs and waits until every accepted job has
// finished. It starts the manager if needed.
func (m *Manager) Complete(ctx context.Context) error {
	m.Start(ctx)

	m.mu.Lock()
	m.completing = true
	m.signal()
	m.mu.Unlock()

	select {
	case <-m.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Workers are gone; anything still unfinished was posted to the stopped
	// dispatcher and must still reach a terminal state.
	for _, job := range m.Jobs() {
		select {
		case <-job.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Cancel stops accepting jobs and cancels running and queued ones.
func (m *Manager) Cancel() {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancel
	m.signal()
	m.mu.Unlock()
	if cancel != nil {
		cancel()
		return
	}
	// Never started: cancel everything queued directly.
	for _, job := range m.drain() {
		job.cancelQueued(context.Background(), context.Canceled)
	}
}

func (m *Manager) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// next pops the queue head. stop is true when the queue is empty and the
// manager is completing.
func (m *Manager) next() (job *Job, stop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) > 0 {
		job = m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		return job, false
	}
	return nil, m.completing || m.closed
}

func (m *Manager) drain() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.queue
	m.queue = nil
	return jobs
}

func (m *Manager) dispatch() {
	defer func() {
		close(m.tasks)
		m.workers.Wait()
		m.cancelRemaining()
		m.cancel()
		close(m.stopped)
	}()

	for {
		if m.ctx.Err() != nil {
			return
		}
		job, stop := m.next()
		if job == nil {
			if stop {
				return
			}
			select {
			case <-m.notify:
			case <-m.ctx.Done():
			}
			continue
		}

		select {
		case m.tasks <- job:
		case <-m.ctx.Done():
			job.cancelQueued(m.ctx, m.ctx.Err())
			return
		}
	}
}

func (m *Manager) cancelRemaining() {
	jobs := m.drain()
	if len(jobs) > 0 {
		logger.Debug("Canceling queued downloads", logger.Fields{"count": len(jobs)})
	}
	cause := context.Canceled
	if err := m.ctx.Err(); err != nil {
		cause = err
	}
	for _, job := range jobs {
		job.cancelQueued(m.ctx, cause)
	}
}

func (m *Manager) work() {
	defer m.workers.Done()
	for job := range m.tasks {
		if err := m.ctx.Err(); err != nil {
			job.cancelQueued(m.ctx, err)
			continue
		}
		job.Run(m.ctx)
	}
}
