package control

import (
	"context"
	"time"
)

// Clock abstracts wall time and sleeping so strategies and the controller
// can be tested without real delays.
type Clock struct {
	// Now returns the current time.
	Now func() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep func(ctx context.Context, d time.Duration) error
}

// SystemClock returns a Clock backed by the real time package.
func SystemClock() *Clock {
	return &Clock{
		Now: time.Now,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if d <= 0 {
				return nil
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}
