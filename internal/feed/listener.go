// File: internal/feed/listener.go
package feed

import (
	"context"
	"sync"

	"github.com/Brcolf/naarscars-notify/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventKind distinguishes row-level change feed operations.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ChangeEvent is one row-level mutation delivered by the remote change feed.
// Payloads may be partial: only ID is guaranteed, and an absent Category
// forces fallback classification.
type ChangeEvent struct {
	Kind     EventKind
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Category string
	Read     *bool
}

// ChangeFeed is the transport delivering change events for one owner. The
// Events channel closes when the feed disconnects; reconnecting is the
// session manager's job, not the listener's.
type ChangeFeed interface {
	Events() <-chan ChangeEvent
	Close() error
}

// decision is the classification outcome for one event.
type decision int

const (
	decisionIgnore decision = iota
	decisionRefresh
	decisionFallback
)

// Listener subscribes once per authenticated session, classifies each event
// and forwards the decision to the debouncer. It holds no reference back to
// its owner; teardown is explicit via Stop.
type Listener struct {
	feed      ChangeFeed
	debouncer *Debouncer
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewListener creates a listener over the given feed.
func NewListener(feed ChangeFeed, debouncer *Debouncer, logger *zap.Logger) *Listener {
	return &Listener{
		feed:      feed,
		debouncer: debouncer,
		logger:    logger.Named("ChangeFeedListener"),
	}
}

// Start begins consuming the feed. It returns immediately; events are
// handled on a background goroutine until the feed closes or Stop is called.
func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-l.feed.Events():
				if !ok {
					// Feed disconnected. No retry here: a higher-level
					// session manager resubscribes.
					l.logger.Info("Change feed closed")
					return
				}
				l.handle(evt)
			}
		}
	}()
}

// handle classifies one event and forwards the decision.
func (l *Listener) handle(evt ChangeEvent) {
	d, reason := classify(evt)
	switch d {
	case decisionIgnore:
		l.logger.Debug("Change event ignored", zap.String("reason", reason))
	case decisionRefresh:
		l.debouncer.Schedule(reason, false)
	case decisionFallback:
		l.debouncer.Schedule(reason, true)
	}
}

// classify maps an event to its handling decision:
//   - surface-excluded categories belong to the conversation pipeline: ignore
//   - absent or unrecognized category: cannot safely patch, full refetch
//   - anything else: lightweight scoped refresh
//
// The reason string is diagnostic and distinguishes debounce windows in logs.
func classify(evt ChangeEvent) (decision, string) {
	if evt.Category == "" {
		return decisionFallback, "missing-category"
	}
	cat := notification.ParseCategory(evt.Category)
	if cat == notification.CategoryUnknown {
		return decisionFallback, "unknown-category:" + evt.Category
	}
	if cat.IsSurfaceExcluded() {
		return decisionIgnore, "surface-excluded:" + string(cat)
	}
	return decisionRefresh, string(evt.Kind) + ":" + string(cat)
}

// Stop unsubscribes. It blocks until the consuming goroutine has exited, so
// no classification runs after Stop returns. Safe to call more than once.
func (l *Listener) Stop() {
	l.once.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		if err := l.feed.Close(); err != nil {
			l.logger.Warn("Closing change feed failed", zap.Error(err))
		}
		l.wg.Wait()
	})
}
