package pause

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_WaitWhenNotPaused(t *testing.T) {
	tok := New()
	assert.False(t, tok.IsPaused())
	assert.NoError(t, tok.Wait(context.Background()))

	var nilToken *Token
	assert.NoError(t, nilToken.Wait(context.Background()))
	assert.False(t, nilToken.IsPaused())
}

func TestToken_ResumeWakesAllWaiters(t *testing.T) {
	tok := New()
	tok.Pause()
	tok.Pause()
	require.True(t, tok.IsPaused())

	const waiters = 5
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- tok.Wait(context.Background())
		}()
	}

	select {
	case <-errs:
		t.Fatal("waiter returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	tok.Resume()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, tok.IsPaused())
}

func TestToken_WaitCanceled(t *testing.T) {
	tok := New()
	tok.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tok.Wait(ctx), context.DeadlineExceeded)
	assert.True(t, tok.IsPaused())
}

func TestToken_PauseAfterResume(t *testing.T) {
	tok := New()
	tok.Pause()
	tok.Resume()
	tok.Resume()
	tok.Pause()

	done := make(chan struct{})
	go func() {
		_ = tok.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("waiter returned while paused")
	case <-time.After(20 * time.Millisecond):
	}
	tok.Resume()
	<-done
}
