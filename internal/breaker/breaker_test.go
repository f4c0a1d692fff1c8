package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(c *clock) *Breaker {
	b := New(10, 0.5, 30*time.Second)
	b.now = c.now
	return b
}

func failN(b *Breaker, n int) (executed int) {
	for i := 0; i < n; i++ {
		_ = b.Do(func() error {
			executed++
			return errBoom
		})
	}
	return executed
}

func TestBreakerOpensAfterFailureRatioExceeded(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)

	// 6 of 10 > 50%: all six attempts reach the network, then the gate
	// shuts.
	assert.Equal(t, 6, failN(b, 6))
	require.Equal(t, Open, b.State())

	// fail fast, no call executed
	calls := 0
	err := b.Do(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)

	assert.Equal(t, 5, failN(b, 5)) // 5 of 10 is not > 50%
	assert.Equal(t, Closed, b.State())

	require.NoError(t, b.Do(func() error { return nil }))
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)
	failN(b, 6)
	require.Equal(t, Open, b.State())

	// cool-down not elapsed yet
	c.advance(29 * time.Second)
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrOpen)

	// one trial call allowed after cool-down; success closes
	c.advance(2 * time.Second)
	calls := 0
	require.NoError(t, b.Do(func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, Closed, b.State())

	// window reset: old failures are forgotten
	assert.Equal(t, 5, failN(b, 5))
	assert.Equal(t, Closed, b.State())
}

func TestBreakerIgnoresCanceledCalls(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)

	failN(b, 5)
	// a burst of caller disconnects with a healthy dependency
	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, b.Do(func() error { return context.Canceled }), context.Canceled)
	}
	assert.Equal(t, Closed, b.State(), "caller cancellations are not dependency failures")

	// the window was untouched: one more real failure tips it over
	failN(b, 1)
	assert.Equal(t, Open, b.State())
}

func TestBreakerAbandonedTrialFreesSlot(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)
	failN(b, 6)

	c.advance(31 * time.Second)
	assert.ErrorIs(t, b.Do(func() error { return context.Canceled }), context.Canceled)
	require.Equal(t, HalfOpen, b.State())

	// the next call may trial immediately, no second cool-down
	calls := 0
	require.NoError(t, b.Do(func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerReopensOnTrialFailure(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newTestBreaker(c)
	failN(b, 6)

	c.advance(31 * time.Second)
	assert.ErrorIs(t, b.Do(func() error { return errBoom }), errBoom)
	assert.Equal(t, Open, b.State())

	// another full cool-down is required
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrOpen)
	c.advance(31 * time.Second)
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, Closed, b.State())
}
