// Package broker defines the message broker port and its implementations.
package broker

import "context"

// Handler processes the raw payload of one consumed message.
type Handler func(ctx context.Context, payload []byte) error

// MessageBroker abstracts a publish/subscribe broker. The consumption
// loop and the computation logic depend only on this interface so they
// stay testable without a live broker.
type MessageBroker interface {
	// ConnectProducer acquires producer-side network resources.
	ConnectProducer(ctx context.Context) error
	// ConnectConsumer acquires consumer-side network resources.
	ConnectConsumer(ctx context.Context) error
	// DisconnectProducer releases producer resources. Safe to call when
	// the producer was never connected.
	DisconnectProducer() error
	// DisconnectConsumer releases consumer resources. Safe to call when
	// the consumer was never connected or connect partially failed.
	DisconnectConsumer() error
	// ConsumeMessages subscribes to the given topics and runs a receive
	// loop until ctx is canceled. Each message is dispatched to the
	// handler registered for its topic; messages on topics without a
	// handler are logged and dropped. Handler errors are logged and the
	// loop continues.
	ConsumeMessages(ctx context.Context, topics []string, fromBeginning bool) error
	// SendMessage publishes one message. A non-empty key fixes partition
	// affinity: messages with the same key are delivered in order.
	// Publish errors are returned to the caller.
	SendMessage(ctx context.Context, topic string, payload []byte, key string) error
}
