// File: internal/bus/bus.go
package bus

import (
	"sync"

	"go.uber.org/zap"
)

// EventKind enumerates the fixed set of in-process events components signal
// each other with. No stringly-typed ad hoc broadcasts: every kind has a
// known payload type documented on Event.
type EventKind int

const (
	// BadgeUpdated carries a BadgePayload whenever a surface's authoritative
	// unread count has been republished.
	BadgeUpdated EventKind = iota
	// FeedRefreshed fires after a fetch-and-merge pass completed; payload nil.
	FeedRefreshed
	// DismissSurface asks the presentation layer to dismiss whatever modal
	// surface is frontmost before a navigation runs; payload nil.
	DismissSurface
	// NavigationRequested carries the deferred navigation instruction
	// (a navigation.Destination) for the presentation layer to execute once
	// dismissal finished.
	NavigationRequested
	// ShowReviewPrompt carries the notification that should trigger the
	// review prompt flow.
	ShowReviewPrompt
)

func (k EventKind) String() string {
	switch k {
	case BadgeUpdated:
		return "badge_updated"
	case FeedRefreshed:
		return "feed_refreshed"
	case DismissSurface:
		return "dismiss_surface"
	case NavigationRequested:
		return "navigation_requested"
	case ShowReviewPrompt:
		return "show_review_prompt"
	}
	return "unknown"
}

// Event is one published signal.
type Event struct {
	Kind    EventKind
	Payload interface{}
}

// BadgePayload is the payload of BadgeUpdated events.
type BadgePayload struct {
	Surface string
	Count   int
}

// Bus is a small in-process broadcast channel with enumerated event kinds.
// Publish never blocks: a subscriber that cannot keep up has the event
// dropped (and logged) rather than stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[EventKind]map[int]chan Event
	nextID int
	closed bool
	logger *zap.Logger
}

// New creates a new event bus.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[EventKind]map[int]chan Event),
		logger: logger.Named("Bus"),
	}
}

// Subscribe registers interest in one event kind. The returned cancel
// function removes the subscription and closes the channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(kind EventKind, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.subs[kind][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if chans, ok := b.subs[kind]; ok {
				if _, ok := chans[id]; ok {
					delete(chans, id)
					close(ch)
				}
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber of its kind.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[evt.Kind] {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				zap.String("kind", evt.Kind.String()))
		}
	}
}

// Close tears the bus down; all subscriber channels are closed and further
// publishes become no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for id, ch := range chans {
			delete(chans, id)
			close(ch)
		}
	}
}
