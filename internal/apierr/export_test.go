package apierr

import (
	"context"
	"time"
)

// SetSleep replaces the backoff sleep function for tests and returns a
// restore function.
func SetSleep(fn func(context.Context, time.Duration) error) (restore func()) {
	prev := sleep
	sleep = fn
	return func() { sleep = prev }
}
