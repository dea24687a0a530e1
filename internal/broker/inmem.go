package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pizzly/order-pricing-service/internal/obs"
)

// Message is one published message as recorded by the ChannelBroker.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// ChannelBroker implements MessageBroker in memory. Messages are kept
// in a single FIFO backlog, so delivery order matches publish order and
// the per-key ordering guarantee holds trivially. Used by tests and
// local runs without a Kafka cluster.
type ChannelBroker struct {
	mu        sync.Mutex
	backlog   []Message
	published []Message
	notify    chan struct{}
	handlers  map[string]Handler
	closed    atomic.Bool
}

// NewChannelBroker constructs a ChannelBroker dispatching to handlers.
func NewChannelBroker(handlers map[string]Handler) *ChannelBroker {
	return &ChannelBroker{
		notify:   make(chan struct{}, 1),
		handlers: handlers,
	}
}

func (b *ChannelBroker) ConnectProducer(ctx context.Context) error { return nil }
func (b *ChannelBroker) ConnectConsumer(ctx context.Context) error { return nil }

// DisconnectProducer stops accepting publishes. No-op tolerant.
func (b *ChannelBroker) DisconnectProducer() error {
	b.closed.Store(true)
	return nil
}

func (b *ChannelBroker) DisconnectConsumer() error { return nil }

// ConsumeMessages drains the backlog one message at a time, dispatching
// each subscribed topic's handler to completion before the next read.
// With fromBeginning false, messages published before the call are
// skipped.
func (b *ChannelBroker) ConsumeMessages(ctx context.Context, topics []string, fromBeginning bool) error {
	subscribed := make(map[string]bool, len(topics))
	for _, t := range topics {
		subscribed[t] = true
	}
	if !fromBeginning {
		b.mu.Lock()
		b.backlog = nil
		b.mu.Unlock()
	}
	for {
		for {
			msg, ok := b.next()
			if !ok {
				break
			}
			if !subscribed[msg.Topic] {
				continue
			}
			b.dispatch(ctx, msg)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-b.notify:
		}
	}
}

func (b *ChannelBroker) next() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.backlog) == 0 {
		return Message{}, false
	}
	msg := b.backlog[0]
	b.backlog = b.backlog[1:]
	return msg, true
}

func (b *ChannelBroker) dispatch(ctx context.Context, msg Message) {
	handler, ok := b.handlers[msg.Topic]
	if !ok {
		obs.Logger.Info().
			Str("topic", msg.Topic).
			Str("value", string(msg.Payload)).
			Msg("unhandled_topic")
		return
	}
	if err := handler(ctx, msg.Payload); err != nil {
		obs.Logger.Error().Err(err).
			Str("topic", msg.Topic).
			Msg("handler_error")
	}
}

// SendMessage appends to the backlog and records the message.
func (b *ChannelBroker) SendMessage(ctx context.Context, topic string, payload []byte, key string) error {
	if b.closed.Load() {
		return errors.New("producer disconnected")
	}
	msg := Message{Topic: topic, Key: key, Payload: payload}
	b.mu.Lock()
	b.backlog = append(b.backlog, msg)
	b.published = append(b.published, msg)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// Published returns a copy of every message sent so far.
func (b *ChannelBroker) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.published))
	copy(out, b.published)
	return out
}

// PublishedOn filters Published by topic.
func (b *ChannelBroker) PublishedOn(topic string) []Message {
	var out []Message
	for _, m := range b.Published() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// BacklogSize returns the number of messages not yet consumed.
func (b *ChannelBroker) BacklogSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.backlog)
}
