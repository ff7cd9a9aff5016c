// Package clock abstracts the delay primitive used by simulated work units.
// Sleeping through a Clock is a suspension point: the wait aborts as soon as
// the caller's context is cancelled.
package clock

import (
	"context"
	"time"
)

// Clock provides time and cancellable sleep.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever comes first.
	// It returns ctx.Err() on early abort and nil after a full wait.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// System returns the wall-clock implementation.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
