package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCeiling returns a liveness CheckFunc that fails once the process
// holds more than max goroutines. Catches leaks from abandoned request
// handlers or workers.
func GoroutineCeiling(max int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("%d goroutines, ceiling %d", n, max)
		}
		return nil
	}
}

// GCPauseCeiling returns a liveness CheckFunc that fails when any recorded
// stop-the-world GC pause exceeded max. A long pause usually means the heap
// has grown past what the service was sized for.
func GCPauseCeiling(max time.Duration) CheckFunc {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, pause := range stats.Pause {
			if pause > max {
				return errors.Errorf("GC pause %s, ceiling %s", pause, max)
			}
		}
		return nil
	}
}
