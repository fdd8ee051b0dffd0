package search

import (
	"sync"
	"sync/atomic"
)

// Progress is the state shared between the coordinator and its workers:
// a stop flag, the attempt counter and the found slot.
type Progress struct {
	stop     atomic.Bool
	attempts atomic.Uint64

	mu    sync.Mutex
	found string
	ok    bool
}

// Stopped reports whether workers should stop testing.
func (p *Progress) Stopped() bool {
	return p.stop.Load()
}

// Stop raises the stop flag without publishing a password.
func (p *Progress) Stop() {
	p.stop.Store(true)
}

// AddAttempt counts one tested candidate.
func (p *Progress) AddAttempt() {
	p.attempts.Add(1)
}

// PublishFound stores pw as the result and raises the stop flag. Only the
// first caller wins; later calls return false and leave the slot unchanged.
func (p *Progress) PublishFound(pw string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ok {
		return false
	}

	p.found = pw
	p.ok = true
	p.stop.Store(true)

	return true
}

// Attempts returns the number of candidates tested so far.
func (p *Progress) Attempts() uint64 {
	return p.attempts.Load()
}

// Found returns the published password, if any.
func (p *Progress) Found() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.found, p.ok
}
