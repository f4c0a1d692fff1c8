// Package breaker implements a count-based sliding-window circuit breaker
// around the synchronous publish path.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without invoking the wrapped call while the breaker
// is open.
var ErrOpen = errors.New("circuit breaker open")

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker tracks the outcome of the last size calls in a ring. It opens when
// failures exceed threshold*size, fails fast while open, and after cooldown
// admits a single trial call; the trial closes it on success or reopens it
// on failure.
type Breaker struct {
	size      int
	threshold float64
	cooldown  time.Duration

	mu       sync.Mutex
	outcomes []bool // true = failure
	idx      int
	filled   int
	failures int
	state    State
	openedAt time.Time
	trial    bool // a half-open trial call is in flight

	now func() time.Time
}

func New(size int, threshold float64, cooldown time.Duration) *Breaker {
	if size <= 0 {
		size = 10
	}
	return &Breaker{
		size:      size,
		threshold: threshold,
		cooldown:  cooldown,
		outcomes:  make([]bool, size),
		now:       time.Now,
	}
}

// Do runs fn unless the breaker is open. fn's error is recorded as the call
// outcome and returned as-is. A context.Canceled error means the caller gave
// up, which says nothing about the dependency's health, so it is not
// recorded at all.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	if errors.Is(err, context.Canceled) {
		b.abandon()
		return err
	}
	b.record(err != nil)
	return err
}

// abandon discards a call without recording an outcome; an abandoned
// half-open trial frees the slot for the next call.
func (b *Breaker) abandon() {
	b.mu.Lock()
	if b.state == HalfOpen {
		b.trial = false
	}
	b.mu.Unlock()
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = HalfOpen
			b.trial = true
			return true
		}
		return false
	default: // HalfOpen
		if b.trial {
			return false
		}
		b.trial = true
		return true
	}
}

func (b *Breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.trial = false
		if failed {
			b.state = Open
			b.openedAt = b.now()
			return
		}
		b.state = Closed
		b.reset()
		return
	}

	if b.outcomes[b.idx] {
		b.failures--
	}
	b.outcomes[b.idx] = failed
	if failed {
		b.failures++
	}
	b.idx = (b.idx + 1) % b.size
	if b.filled < b.size {
		b.filled++
	}

	// Ratio is over the window capacity, so the breaker never opens on a
	// handful of early failures right after start.
	if float64(b.failures) > b.threshold*float64(b.size) {
		b.state = Open
		b.openedAt = b.now()
	}
}

func (b *Breaker) reset() {
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	b.idx = 0
	b.filled = 0
	b.failures = 0
}
