// File: internal/feed/debounce_test.go
package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fireRecorder struct {
	mu    sync.Mutex
	calls []struct {
		reason   string
		fallback bool
	}
}

func (r *fireRecorder) fire(reason string, isFallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		reason   string
		fallback bool
	}{reason, isFallback})
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fireRecorder) last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calls[len(r.calls)-1]
	return c.reason, c.fallback
}

func waitForFires(t *testing.T, rec *fireRecorder, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d fires, got %d", want, rec.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDebouncer_BurstFiresOnce(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(20*time.Millisecond, 80*time.Millisecond, rec.fire, zap.NewNop())
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Schedule("insert:new_request", false)
	}

	waitForFires(t, rec, 1)
	// Window has long elapsed; a burst coalesces into exactly one pass.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	reason, fallback := rec.last()
	assert.Equal(t, "insert:new_request", reason)
	assert.False(t, fallback)
}

func TestDebouncer_FallbackIsSticky(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(20*time.Millisecond, 60*time.Millisecond, rec.fire, zap.NewNop())
	defer d.Stop()

	d.Schedule("unknown-category:poll_created", true)
	d.Schedule("insert:new_request", false)

	waitForFires(t, rec, 1)
	_, fallback := rec.last()
	assert.True(t, fallback, "a refresh arriving after a pending fallback must not downgrade it")
}

func TestDebouncer_RefreshUpgradesToFallbackWindow(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(10*time.Millisecond, 100*time.Millisecond, rec.fire, zap.NewNop())
	defer d.Stop()

	d.Schedule("insert:new_request", false)
	d.Schedule("missing-category", true)

	// The refresh window alone would have fired by now.
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	waitForFires(t, rec, 1)
	_, fallback := rec.last()
	assert.True(t, fallback)
}

func TestDebouncer_PendingFallbackResetsAfterFire(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(15*time.Millisecond, 30*time.Millisecond, rec.fire, zap.NewNop())
	defer d.Stop()

	d.Schedule("missing-category", true)
	waitForFires(t, rec, 1)

	d.Schedule("update:request_claimed", false)
	waitForFires(t, rec, 2)
	_, fallback := rec.last()
	assert.False(t, fallback, "fallback state must not leak into the next cycle")
}

func TestDebouncer_StaleTimerYieldsToReplacement(t *testing.T) {
	rec := &fireRecorder{}
	// Long windows: only the direct onTimer calls below fire anything.
	d := NewDebouncer(time.Hour, time.Hour, rec.fire, zap.NewNop())
	defer d.Stop()

	d.Schedule("update:new_request", false)
	d.mu.Lock()
	staleGen := d.gen
	d.mu.Unlock()

	// The first timer expired but its callback has not run yet when a
	// fallback replaces it.
	d.Schedule("missing-category", true)

	d.onTimer(staleGen, "update:new_request", false)
	assert.Equal(t, 0, rec.count(), "a replaced timer must not fire")
	d.mu.Lock()
	assert.True(t, d.pendingFallback, "a replaced timer must not clear the pending fallback")
	currentGen := d.gen
	d.mu.Unlock()

	d.onTimer(currentGen, "missing-category", true)
	require.Equal(t, 1, rec.count())
	_, fallback := rec.last()
	assert.True(t, fallback)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(30*time.Millisecond, 100*time.Millisecond, rec.fire, zap.NewNop())

	d.Schedule("insert:new_request", false)
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// Scheduling after Stop is a no-op.
	d.Schedule("insert:new_request", false)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDebouncer_StopWaitsForInFlightFire(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var done bool
	var mu sync.Mutex

	d := NewDebouncer(5*time.Millisecond, 20*time.Millisecond, func(string, bool) {
		close(started)
		<-release
		mu.Lock()
		done = true
		mu.Unlock()
	}, zap.NewNop())

	d.Schedule("insert:new_request", false)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("fire never started")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.True(t, done, "Stop returned while a fire callback was still running")
}
