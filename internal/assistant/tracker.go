package assistant

import (
	"context"
	"sync"
)

// Token identifies one request issued through a Tracker.
type Token uint64

// Tracker keeps at most one live request per view. Beginning a new request
// cancels the previous one, and results carrying an old token are stale.
type Tracker struct {
	mu     sync.Mutex
	gen    Token
	cancel context.CancelFunc
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin cancels any in-flight request and returns a context and token for the next one.
func (t *Tracker) Begin(parent context.Context) (context.Context, Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.gen++
	t.cancel = cancel
	return ctx, t.gen
}

// Current reports whether tok belongs to the latest request.
func (t *Tracker) Current(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tok == t.gen
}

// Finish releases the request's context. It reports whether tok was current,
// i.e. whether its result should be applied.
func (t *Tracker) Finish(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok != t.gen {
		return false
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}

// Cancel abandons the in-flight request, if any.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

// Pending reports whether a request is in flight.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
