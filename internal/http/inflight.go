package http

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// InFlightTracker counts requests still being served so shutdown can drain
// them after the listener closes.
type InFlightTracker struct {
	count atomic.Int64
}

// Begin marks a request as started. The returned func marks it finished;
// calling it more than once has no further effect.
func (t *InFlightTracker) Begin() (done func()) {
	t.count.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { t.count.Add(-1) })
	}
}

// Count returns the number of requests started and not yet finished.
func (t *InFlightTracker) Count() int64 {
	return t.count.Load()
}

// WaitForZero polls every checkInterval until no request is in flight or ctx ends.
func (t *InFlightTracker) WaitForZero(ctx context.Context, checkInterval time.Duration) error {
	if checkInterval <= 0 {
		checkInterval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for t.Count() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// inFlight is the process-wide tracker fed by MetricsMiddleware.
var inFlight = &InFlightTracker{}

// InFlightCount returns the current number of in-flight requests.
func InFlightCount() int64 {
	return inFlight.Count()
}

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return inFlight.WaitForZero(ctx, checkInterval)
}
