// Package pause provides a cooperative pause switch shared by download jobs
// and feed readers.
package pause

import (
	"context"
	"sync"
)

// Token is a pause switch. The zero value is not paused and ready to use.
type Token struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

// New returns an unpaused token.
func New() *Token {
	return &Token{}
}

// Pause makes subsequent Wait calls block until Resume.
func (t *Token) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	t.paused = true
	t.resume = make(chan struct{})
}

// Resume wakes every waiter.
func (t *Token) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	close(t.resume)
	t.resume = nil
}

// IsPaused reports the current state. A nil token is never paused.
func (t *Token) IsPaused() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Wait blocks while the token is paused. It returns ctx.Err() if ctx ends first.
func (t *Token) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	t.mu.Lock()
	ch := t.resume
	t.mu.Unlock()
	if ch == nil {
		return ctx.Err()
	}

	select {
	case <-ch:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
