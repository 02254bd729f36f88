package download

import (
	"sync"

	"github.com/cperrin88/beatsync/internal/logger"
)

// EventKind identifies a job notification.
type EventKind int

const (
	EventJobStarted EventKind = iota
	EventProgressChanged
	EventStatusChanged
	EventJobFinished
)

func (k EventKind) String() string {
	switch k {
	case EventJobStarted:
		return "JobStarted"
	case EventProgressChanged:
		return "JobProgressChanged"
	case EventStatusChanged:
		return "JobStatusChanged"
	case EventJobFinished:
		return "JobFinished"
	default:
		return "Unknown"
	}
}

// Event is a status record published by a Job.
type Event struct {
	Kind     EventKind
	JobID    string
	Identity string
	Status   JobStatus
	Progress Progress
	// Result is set on EventJobFinished only.
	Result *Result
}

// Broadcaster fans events out to subscribers. Every subscriber has its own
// unbounded mailbox drained by its own goroutine, so Publish never blocks and
// a slow or panicking subscriber affects nobody else.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]*mailbox
	nextID int
}

// NewBroadcaster returns a broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]*mailbox)}
}

// Subscribe registers fn. The returned function unsubscribes after every
// event already published to fn has been delivered, and blocks until then.
func (b *Broadcaster) Subscribe(fn func(Event)) (unsubscribe func()) {
	mb := &mailbox{fn: fn, wake: make(chan struct{}, 1), done: make(chan struct{})}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = mb
	b.mu.Unlock()

	go mb.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			mb.close()
		})
	}
}

// Publish queues e for every subscriber. A nil broadcaster drops events.
func (b *Broadcaster) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, mb := range b.subs {
		mb.push(e)
	}
}

type mailbox struct {
	fn      func(Event)
	mu      sync.Mutex
	queue   []Event
	closing bool
	wake    chan struct{}
	done    chan struct{}
}

func (m *mailbox) push(e Event) {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, e)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
	<-m.done
}

func (m *mailbox) run() {
	defer close(m.done)
	for range m.wake {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		closing := m.closing
		m.mu.Unlock()

		for _, e := range batch {
			m.deliver(e)
		}
		if closing {
			return
		}
	}
}

func (m *mailbox) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event subscriber panicked", logger.Fields{"event": e.Kind.String(), "panic": r})
		}
	}()
	m.fn(e)
}
