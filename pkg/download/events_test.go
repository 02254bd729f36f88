package download

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_DeliversInOrder(t *testing.T) {
	b := NewBroadcaster()

	var got []int64
	unsubscribe := b.Subscribe(func(e Event) {
		got = append(got, e.Progress.Done)
	})
	for i := int64(0); i < 100; i++ {
		b.Publish(Event{Kind: EventProgressChanged, Progress: Progress{Done: i}})
	}
	unsubscribe()

	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, int64(i), v)
	}
}

func TestBroadcaster_IsolatesSubscribers(t *testing.T) {
	b := NewBroadcaster()

	block := make(chan struct{})
	slowDone := b.Subscribe(func(Event) { <-block })
	panicking := b.Subscribe(func(Event) { panic("subscriber bug") })

	var mu sync.Mutex
	count := 0
	healthy := b.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		b.Publish(Event{Kind: EventJobStarted})
	}
	healthy()
	panicking()

	mu.Lock()
	assert.Equal(t, 10, count)
	mu.Unlock()

	close(block)
	slowDone()
}

func TestBroadcaster_NilAndUnsubscribed(t *testing.T) {
	var b *Broadcaster
	b.Publish(Event{})

	b = NewBroadcaster()
	calls := 0
	unsubscribe := b.Subscribe(func(Event) { calls++ })
	unsubscribe()
	unsubscribe()
	b.Publish(Event{})
	assert.Equal(t, 0, calls)
}
