package jobs

import (
	"context"
	"time"
)

// Every calls fn once immediately and then on each tick of interval until ctx is done.
// It blocks; run it in its own goroutine.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
