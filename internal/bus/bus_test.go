// File: internal/bus/bus_test.go
package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBus_PublishReachesSubscribersOfKind(t *testing.T) {
	b := New(zap.NewNop())
	defer b.Close()

	badges, cancelBadges := b.Subscribe(BadgeUpdated, 4)
	defer cancelBadges()
	feed, cancelFeed := b.Subscribe(FeedRefreshed, 4)
	defer cancelFeed()

	b.Publish(Event{Kind: BadgeUpdated, Payload: BadgePayload{Surface: "bell", Count: 3}})

	select {
	case evt := <-badges:
		payload, ok := evt.Payload.(BadgePayload)
		require.True(t, ok)
		assert.Equal(t, "bell", payload.Surface)
		assert.Equal(t, 3, payload.Count)
	case <-time.After(time.Second):
		t.Fatal("badge subscriber never received the event")
	}

	select {
	case <-feed:
		t.Fatal("event leaked to a subscriber of a different kind")
	default:
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := New(zap.NewNop())
	defer b.Close()

	ch, cancel := b.Subscribe(DismissSurface, 4)
	cancel()
	cancel() // safe to repeat

	b.Publish(Event{Kind: DismissSurface})

	// Channel is closed, not delivering.
	evt, open := <-ch
	assert.False(t, open)
	assert.Zero(t, evt)
}

func TestBus_PublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := New(zap.NewNop())
	defer b.Close()

	_, cancel := b.Subscribe(FeedRefreshed, 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Kind: FeedRefreshed})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestBus_CloseIsTerminal(t *testing.T) {
	b := New(zap.NewNop())
	ch, _ := b.Subscribe(NavigationRequested, 1)

	b.Close()
	b.Close() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Publishing and subscribing after close are harmless no-ops.
	b.Publish(Event{Kind: NavigationRequested})
	late, cancel := b.Subscribe(NavigationRequested, 1)
	defer cancel()
	_, open = <-late
	assert.False(t, open)
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "badge_updated", BadgeUpdated.String())
	assert.Equal(t, "show_review_prompt", ShowReviewPrompt.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
