// File: internal/feed/debounce.go
package feed

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces bursts of classified change events into a single
// reconciliation invocation. Trailing debounce: every Schedule call cancels
// and replaces the pending timer, so a burst of events produces exactly one
// fire after the window elapses.
//
// Two windows exist because a fallback implies a guaranteed full refetch:
// when several fallback-triggering events arrive close together the longer
// window avoids a redundant expensive call per event.
type Debouncer struct {
	refreshWindow  time.Duration
	fallbackWindow time.Duration
	fire           func(reason string, isFallback bool)
	logger         *zap.Logger

	mu              sync.Mutex
	timer           *time.Timer
	pendingFallback bool
	stopped         bool
	// gen identifies the current pending timer. A timer whose Stop raced
	// with its own expiry still runs its callback; the stale generation
	// tells that callback to yield to the replacement.
	gen uint64

	// fireMu is held while the callback runs so Stop can act as a barrier:
	// once Stop returns, no fire is running or will run.
	fireMu sync.Mutex
}

// NewDebouncer creates a debouncer that invokes fire on the trailing edge.
func NewDebouncer(refreshWindow, fallbackWindow time.Duration, fire func(reason string, isFallback bool), logger *zap.Logger) *Debouncer {
	return &Debouncer{
		refreshWindow:  refreshWindow,
		fallbackWindow: fallbackWindow,
		fire:           fire,
		logger:         logger.Named("Debouncer"),
	}
}

// Schedule replaces any pending invocation with a new one. Once a fallback
// is pending the eventual pass stays a fallback even if later events in the
// window were plain refreshes: the full refetch subsumes them.
func (d *Debouncer) Schedule(reason string, isFallback bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	fallback := isFallback || d.pendingFallback
	d.pendingFallback = fallback

	window := d.refreshWindow
	if fallback {
		window = d.fallbackWindow
	}

	d.logger.Debug("Reconciliation scheduled",
		zap.String("reason", reason),
		zap.Bool("fallback", fallback),
		zap.Duration("window", window),
	)

	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(window, func() {
		d.onTimer(gen, reason, fallback)
	})
}

func (d *Debouncer) onTimer(gen uint64, reason string, fallback bool) {
	d.fireMu.Lock()
	defer d.fireMu.Unlock()

	d.mu.Lock()
	if d.stopped || gen != d.gen {
		// A newer Schedule replaced this timer between its expiry and now;
		// the replacement owns the pending state and will fire itself.
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.pendingFallback = false
	d.mu.Unlock()

	d.fire(reason, fallback)
}

// Stop cancels any pending invocation and waits for an in-flight callback to
// finish. After Stop returns no fire callback runs.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pendingFallback = false
	d.mu.Unlock()

	// Barrier: blocks until an in-flight fire has finished.
	d.fireMu.Lock()
	d.fireMu.Unlock()
}
