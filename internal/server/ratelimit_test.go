package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(60, clock.Now)

	for i := 0; i < 60; i++ {
		ok, _ := rl.tryAcquire()
		assert.True(t, ok, "request %d", i)
	}

	ok, wait := rl.tryAcquire()
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	clock.Advance(500 * time.Millisecond)
	ok, _ = rl.tryAcquire()
	assert.False(t, ok)

	clock.Advance(500 * time.Millisecond)
	ok, _ = rl.tryAcquire()
	assert.True(t, ok)

	// Refill never exceeds capacity.
	clock.Advance(time.Hour)
	for i := 0; i < 60; i++ {
		ok, _ := rl.tryAcquire()
		assert.True(t, ok)
	}
	ok, _ = rl.tryAcquire()
	assert.False(t, ok)

	rl.reset()
	ok, _ = rl.tryAcquire()
	assert.True(t, ok)
}

func TestRateLimiter_DefaultRate(t *testing.T) {
	rl := newRateLimiter(0, nil)
	assert.InDelta(t, 60, rl.capacity, 1e-9)
}
