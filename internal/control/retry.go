package control

import (
	"time"
)

// RetryConfig holds the caps shared by every retry strategy.
type RetryConfig struct {
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxRetries is the maximum number of retries (not counting the
	// initial attempt).
	MaxRetries int

	// MaxWaitTime, when non-zero, caps any single delay and bounds the
	// retry loop's total elapsed time.
	MaxWaitTime time.Duration
}

// RetryStrategy computes retry delays and decides when to give up.
//
// MaxWaitTime is a ceiling on any single delay; the loop's total duration is
// bounded separately by ShouldRetry's elapsed-time check.
type RetryStrategy interface {
	// Delay returns the wait before retry number attempt (0-based).
	Delay(attempt int) time.Duration

	// ShouldRetry reports whether another retry is allowed given the
	// attempt count and the time elapsed since the operation started.
	ShouldRetry(attempt int, elapsed time.Duration) bool
}

// shouldRetry implements the cap semantics shared by all strategies.
func shouldRetry(cfg RetryConfig, attempt int, elapsed time.Duration) bool {
	if attempt >= cfg.MaxRetries {
		return false
	}
	if cfg.MaxWaitTime > 0 && elapsed >= cfg.MaxWaitTime {
		return false
	}
	return true
}

// capDelay clamps a delay to the configured ceiling, if any.
func capDelay(cfg RetryConfig, d time.Duration) time.Duration {
	if cfg.MaxWaitTime > 0 && d > cfg.MaxWaitTime {
		return cfg.MaxWaitTime
	}
	return d
}

// ExponentialBackoff grows the delay geometrically:
// delay = initialDelay * multiplier^attempt, capped at MaxWaitTime.
type ExponentialBackoff struct {
	cfg        RetryConfig
	multiplier float64
}

// NewExponentialBackoff creates an exponential backoff strategy.
// A multiplier <= 1 is replaced with the default of 2.
func NewExponentialBackoff(cfg RetryConfig, multiplier float64) *ExponentialBackoff {
	if multiplier <= 1 {
		multiplier = 2.0
	}
	return &ExponentialBackoff{cfg: cfg, multiplier: multiplier}
}

// Delay implements RetryStrategy.
func (s *ExponentialBackoff) Delay(attempt int) time.Duration {
	d := float64(s.cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= s.multiplier
	}
	return capDelay(s.cfg, time.Duration(d))
}

// ShouldRetry implements RetryStrategy.
func (s *ExponentialBackoff) ShouldRetry(attempt int, elapsed time.Duration) bool {
	return shouldRetry(s.cfg, attempt, elapsed)
}

// LinearGrowth grows the delay by a fixed increment:
// delay = initialDelay + increment*attempt, capped at MaxWaitTime.
type LinearGrowth struct {
	cfg       RetryConfig
	increment time.Duration
}

// NewLinearGrowth creates a linear growth strategy.
func NewLinearGrowth(cfg RetryConfig, increment time.Duration) *LinearGrowth {
	return &LinearGrowth{cfg: cfg, increment: increment}
}

// Delay implements RetryStrategy.
func (s *LinearGrowth) Delay(attempt int) time.Duration {
	d := s.cfg.InitialDelay + time.Duration(attempt)*s.increment
	return capDelay(s.cfg, d)
}

// ShouldRetry implements RetryStrategy.
func (s *LinearGrowth) ShouldRetry(attempt int, elapsed time.Duration) bool {
	return shouldRetry(s.cfg, attempt, elapsed)
}

// FixedWait waits the same delay on every attempt, still subject to the
// MaxRetries/MaxWaitTime caps.
type FixedWait struct {
	cfg RetryConfig
}

// NewFixedWait creates a fixed wait strategy.
func NewFixedWait(cfg RetryConfig) *FixedWait {
	return &FixedWait{cfg: cfg}
}

// Delay implements RetryStrategy. The attempt number is ignored.
func (s *FixedWait) Delay(attempt int) time.Duration {
	return capDelay(s.cfg, s.cfg.InitialDelay)
}

// ShouldRetry implements RetryStrategy.
func (s *FixedWait) ShouldRetry(attempt int, elapsed time.Duration) bool {
	return shouldRetry(s.cfg, attempt, elapsed)
}
