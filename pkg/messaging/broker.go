package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher defines the interface for publishing domain events
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Message is the envelope published on a channel
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventPublisher publishes typed domain events on a single channel
// through a Broker.
type EventPublisher struct {
	broker  Broker
	channel string
}

func NewEventPublisher(broker Broker, channel string) *EventPublisher {
	return &EventPublisher{broker: broker, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return p.broker.Publish(ctx, p.channel, Message{
		Type:    eventType,
		Payload: payload,
	})
}

// NoopPublisher discards all events. Used when no broker is configured
// and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}
