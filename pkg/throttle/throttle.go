// Package throttle bounds concurrency and pacing of outbound registry
// calls. A single Throttle is shared by every component of an audit
// invocation that talks to the network.
package throttle

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxConcurrent is the default cap on in-flight outbound calls.
	DefaultMaxConcurrent = 5

	// DefaultMinDelay is the default minimum spacing between dispatches.
	DefaultMinDelay = 0
)

// Throttle is a FIFO scheduler for outbound operations. At most
// maxConcurrent operations run at any instant, and successive dispatches are
// spaced at least minDelay apart. Time an operation itself spends past
// minDelay counts toward the next op's spacing, so slow operations incur no
// additional imposed wait.
type Throttle struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// New returns a Throttle with the given concurrency bound and minimum
// inter-dispatch delay. maxConcurrent values below one fall back to
// DefaultMaxConcurrent.
func New(maxConcurrent int, minDelay time.Duration) *Throttle {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}

	t := &Throttle{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
	}

	if minDelay > 0 {
		t.limiter = rate.NewLimiter(rate.Every(minDelay), 1)
		// Drain the initial token so the very first dispatch is also
		// paced. This matches the observable contract: a trivial op
		// through a minDelay=100ms throttle takes at least 100ms.
		t.limiter.Allow()
	}

	return t
}

// Do runs op once a slot and the pacing window are available. Slots are
// granted in request order. The slot is released when op returns, whether or
// not it succeeded. A context cancellation while waiting returns the context
// error without running op.
func (t *Throttle) Do(ctx context.Context, op func() error) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer t.sem.Release(1)

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return op()
}
