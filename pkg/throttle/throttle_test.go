package throttle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoBoundsConcurrency(t *testing.T) {
	thr := New(1, 0)

	firstRunning := make(chan struct{})
	release := make(chan struct{})
	var secondStarted atomic.Bool

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = thr.Do(context.Background(), func() error {
			close(firstRunning)
			<-release
			return nil
		})
	}()

	<-firstRunning

	go func() {
		defer wg.Done()
		_ = thr.Do(context.Background(), func() error {
			secondStarted.Store(true)
			return nil
		})
	}()

	// The second op must not be dispatched while the first holds the
	// only slot.
	time.Sleep(50 * time.Millisecond)
	assert.False(t, secondStarted.Load(), "second op dispatched while first still running")

	close(release)
	wg.Wait()

	assert.True(t, secondStarted.Load())
}

func TestDoMinDelayPacesFirstDispatch(t *testing.T) {
	thr := New(2, 100*time.Millisecond)

	start := time.Now()
	err := thr.Do(context.Background(), func() error { return nil })
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDoMinDelayAbsorbedBySlowOp(t *testing.T) {
	thr := New(1, 100*time.Millisecond)

	// First op runs longer than minDelay, so the second dispatch owes no
	// additional wait.
	err := thr.Do(context.Background(), func() error {
		time.Sleep(120 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	waited := time.Now()
	err = thr.Do(context.Background(), func() error { return nil })
	require.NoError(t, err)

	assert.Less(t, time.Since(waited), 60*time.Millisecond,
		"second dispatch should not be delayed past time already spent in the first op")
}

func TestDoReleasesSlotOnFailure(t *testing.T) {
	thr := New(1, 0)

	_ = thr.Do(context.Background(), func() error { return assert.AnError })

	done := make(chan struct{})
	go func() {
		_ = thr.Do(context.Background(), func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after a failing op")
	}
}

func TestDoContextCancelled(t *testing.T) {
	thr := New(1, 0)

	blocked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = thr.Do(context.Background(), func() error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := thr.Do(ctx, func() error {
		ran = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, ran, "op must not run after cancellation")
}
