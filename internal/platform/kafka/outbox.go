package kafka

import (
	"context"

	audit "grunnlag/pkg/platform/audit"
)

// Publisher is the part of Producer the outbox sink needs.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// OutboxSink publishes outbox entries to one topic keyed by aggregate, so
// events for the same behandling land on the same partition in order.
type OutboxSink struct {
	publisher Publisher
	topic     string
}

func NewOutboxSink(publisher Publisher, topic string) *OutboxSink {
	return &OutboxSink{publisher: publisher, topic: topic}
}

func (s *OutboxSink) PublishEntries(ctx context.Context, entries []audit.OutboxEntry) error {
	msgs := make([]Message, len(entries))
	for i, e := range entries {
		msgs[i] = Message{
			Topic: s.topic,
			Key:   []byte(e.AggregateType + ":" + e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type": e.EventType,
				"outbox_id":  e.ID,
			},
		}
	}
	return s.publisher.Publish(ctx, msgs...)
}
