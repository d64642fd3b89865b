package control

import (
	"context"
	"sync"
	"time"
)

// RateLimitStrategy throttles outbound calls to the remote API's cadence.
//
// One strategy instance is shared by every component that issues network
// calls (constructor injection, never a package-level singleton), so all
// implementations are mutex-guarded.
type RateLimitStrategy interface {
	// CanProceed reports whether a call would be allowed right now,
	// without recording one.
	CanProceed() bool

	// WaitIfNeeded blocks until a call is allowed, then records it.
	WaitIfNeeded(ctx context.Context) error

	// Reset clears the limiter's state.
	Reset()
}

// FixedWaitLimiter allows a call only once a minimum interval has passed
// since the previous one.
type FixedWaitLimiter struct {
	mu       sync.Mutex
	clock    *Clock
	interval time.Duration
	lastCall time.Time
}

// NewFixedWaitLimiter creates a fixed-interval limiter.
// A nil clock defaults to the system clock.
func NewFixedWaitLimiter(interval time.Duration, clock *Clock) *FixedWaitLimiter {
	if clock == nil {
		clock = SystemClock()
	}
	return &FixedWaitLimiter{clock: clock, interval: interval}
}

// CanProceed implements RateLimitStrategy.
func (l *FixedWaitLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock.Now().Sub(l.lastCall) >= l.interval
}

// WaitIfNeeded implements RateLimitStrategy.
func (l *FixedWaitLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sinceLast := l.clock.Now().Sub(l.lastCall)
	if sinceLast < l.interval {
		if err := l.clock.Sleep(ctx, l.interval-sinceLast); err != nil {
			return err
		}
	}
	l.lastCall = l.clock.Now()
	return nil
}

// Reset implements RateLimitStrategy.
func (l *FixedWaitLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastCall = time.Time{}
}

// SlidingWindowLimiter allows a call only if fewer than maxRequests calls
// were recorded within the trailing window. Stale timestamps are expired
// lazily on each check.
type SlidingWindowLimiter struct {
	mu          sync.Mutex
	clock       *Clock
	window      time.Duration
	maxRequests int
	calls       []time.Time
}

// NewSlidingWindowLimiter creates a rolling-window limiter.
// A nil clock defaults to the system clock.
func NewSlidingWindowLimiter(window time.Duration, maxRequests int, clock *Clock) *SlidingWindowLimiter {
	if clock == nil {
		clock = SystemClock()
	}
	return &SlidingWindowLimiter{clock: clock, window: window, maxRequests: maxRequests}
}

// expire drops timestamps that fell out of the window. Caller holds mu.
func (l *SlidingWindowLimiter) expire(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && l.calls[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// CanProceed implements RateLimitStrategy.
func (l *SlidingWindowLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expire(l.clock.Now())
	return len(l.calls) < l.maxRequests
}

// WaitIfNeeded implements RateLimitStrategy.
func (l *SlidingWindowLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.clock.Now()
		l.expire(now)
		if len(l.calls) < l.maxRequests {
			l.calls = append(l.calls, now)
			return nil
		}
		// Wait for the oldest call to leave the window.
		wait := l.calls[0].Add(l.window).Sub(now)
		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Reset implements RateLimitStrategy.
func (l *SlidingWindowLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = l.calls[:0]
}

// FixedWindowLimiter allows up to maxRequests calls per aligned window.
// When the clock crosses into a new window the counter resets to zero.
type FixedWindowLimiter struct {
	mu          sync.Mutex
	clock       *Clock
	window      time.Duration
	maxRequests int
	windowStart time.Time
	count       int
}

// NewFixedWindowLimiter creates an aligned-window limiter.
// A nil clock defaults to the system clock.
func NewFixedWindowLimiter(window time.Duration, maxRequests int, clock *Clock) *FixedWindowLimiter {
	if clock == nil {
		clock = SystemClock()
	}
	l := &FixedWindowLimiter{clock: clock, window: window, maxRequests: maxRequests}
	l.windowStart = l.alignedStart(l.clock.Now())
	return l
}

// alignedStart returns the start of the window containing t.
func (l *FixedWindowLimiter) alignedStart(t time.Time) time.Time {
	return t.Truncate(l.window)
}

// rollover resets the counter if t is past the current window.
// Caller holds mu.
func (l *FixedWindowLimiter) rollover(t time.Time) {
	start := l.alignedStart(t)
	if start.After(l.windowStart) {
		l.windowStart = start
		l.count = 0
	}
}

// CanProceed implements RateLimitStrategy.
func (l *FixedWindowLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(l.clock.Now())
	return l.count < l.maxRequests
}

// WaitIfNeeded implements RateLimitStrategy.
func (l *FixedWindowLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rollover(now)
	if l.count < l.maxRequests {
		l.count++
		return nil
	}

	// Budget exhausted: wait for the next window to open.
	wait := l.windowStart.Add(l.window).Sub(now)
	if err := l.clock.Sleep(ctx, wait); err != nil {
		return err
	}
	l.windowStart = l.alignedStart(l.clock.Now())
	l.count = 1
	return nil
}

// Reset implements RateLimitStrategy.
func (l *FixedWindowLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windowStart = l.alignedStart(l.clock.Now())
	l.count = 0
}
