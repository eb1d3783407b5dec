// File: internal/feed/kafka.go
package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// changeMessage is the wire shape of one row-level event on the change topic.
// Fields beyond id are optional; the listener treats a missing category as a
// fallback trigger rather than an error.
type changeMessage struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Category string `json:"category,omitempty"`
	Read     *bool  `json:"read,omitempty"`
}

// KafkaFeed consumes the notification change topic and exposes it as a
// ChangeFeed. Messages are keyed by owner id; events for other owners are
// skipped client-side so one consumer group per session stays simple.
type KafkaFeed struct {
	reader  *kafka.Reader
	ownerID uuid.UUID
	events  chan ChangeEvent
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// KafkaConfig configures the change feed consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewKafkaFeed creates and starts a Kafka-backed change feed. A non-zero
// ownerID restricts delivery to that owner's change messages.
func NewKafkaFeed(cfg KafkaConfig, ownerID uuid.UUID, logger *zap.Logger) *KafkaFeed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})

	ctx, cancel := context.WithCancel(context.Background())
	f := &KafkaFeed{
		reader:  reader,
		ownerID: ownerID,
		events:  make(chan ChangeEvent, 64),
		logger:  logger.Named("KafkaFeed"),
		cancel:  cancel,
	}

	f.wg.Add(1)
	go f.consume(ctx)
	return f
}

func (f *KafkaFeed) consume(ctx context.Context) {
	defer f.wg.Done()
	defer close(f.events)

	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn("Change feed read failed, feed closing", zap.Error(err))
			}
			return
		}

		evt, ok := f.decode(msg)
		if !ok {
			continue
		}
		select {
		case f.events <- evt:
		case <-ctx.Done():
			return
		}
	}
}

// decode converts one Kafka message into a ChangeEvent. A payload that does
// not parse still yields an event (with empty category) so it classifies as
// a fallback instead of being silently dropped.
func (f *KafkaFeed) decode(msg kafka.Message) (ChangeEvent, bool) {
	// Cheap owner filter on the message key before touching the payload.
	// A zero ownerID disables the filter; the reconciler still gates every
	// pass on the active session.
	if f.ownerID != uuid.Nil {
		if key, err := uuid.Parse(string(msg.Key)); err == nil && key != f.ownerID {
			return ChangeEvent{}, false
		}
	}

	var cm changeMessage
	if err := json.Unmarshal(msg.Value, &cm); err != nil {
		f.logger.Warn("Malformed change feed payload, forcing fallback", zap.Error(err))
		return ChangeEvent{Kind: EventUpdate}, true
	}

	id, err := uuid.Parse(cm.ID)
	if err != nil {
		f.logger.Warn("Change feed payload without valid id, forcing fallback")
		return ChangeEvent{Kind: EventKind(cm.Kind)}, true
	}

	evt := ChangeEvent{
		Kind:     EventKind(cm.Kind),
		ID:       id,
		Category: cm.Category,
		Read:     cm.Read,
	}
	if ownerID, err := uuid.Parse(cm.OwnerID); err == nil {
		evt.OwnerID = ownerID
	}
	return evt, true
}

// Events implements ChangeFeed.
func (f *KafkaFeed) Events() <-chan ChangeEvent {
	return f.events
}

// Close implements ChangeFeed. It stops the consumer and waits for the
// consuming goroutine to exit before closing the underlying reader.
func (f *KafkaFeed) Close() error {
	var err error
	f.once.Do(func() {
		f.cancel()
		f.wg.Wait()
		err = f.reader.Close()
	})
	return err
}
