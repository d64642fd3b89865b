package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff_Delay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay: 1 * time.Second,
		MaxRetries:   5,
		MaxWaitTime:  5 * time.Second,
	}
	s := NewExponentialBackoff(cfg, 2.0)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second, // capped
		5 * time.Second, // capped
	}
	for attempt, w := range want {
		assert.Equal(t, w, s.Delay(attempt), "attempt %d", attempt)
	}
}

func TestExponentialBackoff_DefaultMultiplier(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxRetries: 3}

	tests := []struct {
		name       string
		multiplier float64
	}{
		{name: "zero", multiplier: 0},
		{name: "one", multiplier: 1},
		{name: "negative", multiplier: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewExponentialBackoff(cfg, tt.multiplier)
			assert.Equal(t, 2*time.Second, s.Delay(1))
		})
	}
}

func TestLinearGrowth_Delay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay: 1 * time.Second,
		MaxRetries:   5,
	}
	s := NewLinearGrowth(cfg, 500*time.Millisecond)

	want := []time.Duration{
		1000 * time.Millisecond,
		1500 * time.Millisecond,
		2000 * time.Millisecond,
		2500 * time.Millisecond,
	}
	for attempt, w := range want {
		assert.Equal(t, w, s.Delay(attempt), "attempt %d", attempt)
	}
}

func TestLinearGrowth_DelayCapped(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay: 1 * time.Second,
		MaxRetries:   10,
		MaxWaitTime:  2 * time.Second,
	}
	s := NewLinearGrowth(cfg, time.Second)

	assert.Equal(t, 2*time.Second, s.Delay(1))
	assert.Equal(t, 2*time.Second, s.Delay(5))
}

func TestFixedWait_Delay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay: 750 * time.Millisecond,
		MaxRetries:   3,
	}
	s := NewFixedWait(cfg)

	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, 750*time.Millisecond, s.Delay(attempt))
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RetryConfig
		attempt int
		elapsed time.Duration
		want    bool
	}{
		{
			name:    "within both caps",
			cfg:     RetryConfig{MaxRetries: 3, MaxWaitTime: 10 * time.Second},
			attempt: 1,
			elapsed: 2 * time.Second,
			want:    true,
		},
		{
			name:    "attempt at limit",
			cfg:     RetryConfig{MaxRetries: 3, MaxWaitTime: 10 * time.Second},
			attempt: 3,
			elapsed: 2 * time.Second,
			want:    false,
		},
		{
			name:    "elapsed at limit",
			cfg:     RetryConfig{MaxRetries: 3, MaxWaitTime: 10 * time.Second},
			attempt: 1,
			elapsed: 10 * time.Second,
			want:    false,
		},
		{
			name:    "zero max wait disables elapsed check",
			cfg:     RetryConfig{MaxRetries: 3},
			attempt: 1,
			elapsed: time.Hour,
			want:    true,
		},
		{
			name:    "zero max retries never retries",
			cfg:     RetryConfig{MaxRetries: 0},
			attempt: 0,
			elapsed: 0,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategies := []RetryStrategy{
				NewExponentialBackoff(tt.cfg, 2.0),
				NewLinearGrowth(tt.cfg, time.Second),
				NewFixedWait(tt.cfg),
			}
			for _, s := range strategies {
				assert.Equal(t, tt.want, s.ShouldRetry(tt.attempt, tt.elapsed))
			}
		})
	}
}
