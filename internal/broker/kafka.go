package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/pizzly/order-pricing-service/internal/obs"
)

// KafkaBroker implements MessageBroker on a Kafka cluster.
type KafkaBroker struct {
	brokers  []string
	clientID string
	handlers map[string]Handler

	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafkaBroker constructs a KafkaBroker. handlers maps topic names to
// the handler run for each message consumed from that topic.
func NewKafkaBroker(clientID string, brokers []string, handlers map[string]Handler) *KafkaBroker {
	return &KafkaBroker{
		brokers:  brokers,
		clientID: clientID,
		handlers: handlers,
	}
}

// ConnectProducer verifies broker reachability and prepares the writer.
// The hash balancer routes same-key messages to the same partition.
func (b *KafkaBroker) ConnectProducer(ctx context.Context) error {
	if err := b.dial(ctx); err != nil {
		return fmt.Errorf("connect producer: %w", err)
	}
	b.writer = &kafka.Writer{
		Addr:         kafka.TCP(b.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return nil
}

// ConnectConsumer verifies broker reachability. The group reader itself
// is created in ConsumeMessages, where the topic set is known.
func (b *KafkaBroker) ConnectConsumer(ctx context.Context) error {
	if err := b.dial(ctx); err != nil {
		return fmt.Errorf("connect consumer: %w", err)
	}
	return nil
}

func (b *KafkaBroker) dial(ctx context.Context) error {
	if len(b.brokers) == 0 {
		return errors.New("no brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}

// DisconnectProducer closes the writer if one was created.
func (b *KafkaBroker) DisconnectProducer() error {
	if b.writer == nil {
		return nil
	}
	err := b.writer.Close()
	b.writer = nil
	return err
}

// DisconnectConsumer closes the group reader if one was created.
func (b *KafkaBroker) DisconnectConsumer() error {
	if b.reader == nil {
		return nil
	}
	err := b.reader.Close()
	b.reader = nil
	return err
}

// ConsumeMessages runs the consumption loop: one message at a time,
// handler runs to completion before the next fetch. A handler error is
// logged and the message is still committed; only fetch failures end
// the loop.
func (b *KafkaBroker) ConsumeMessages(ctx context.Context, topics []string, fromBeginning bool) error {
	startOffset := kafka.LastOffset
	if fromBeginning {
		startOffset = kafka.FirstOffset
	}
	b.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.clientID,
		GroupTopics: topics,
		StartOffset: startOffset,
	})
	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		b.dispatch(ctx, msg)
		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			obs.Logger.Error().Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Msg("commit_failed")
		}
	}
}

func (b *KafkaBroker) dispatch(ctx context.Context, msg kafka.Message) {
	handler, ok := b.handlers[msg.Topic]
	if !ok {
		obs.Logger.Info().
			Str("topic", msg.Topic).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Str("value", string(msg.Value)).
			Msg("unhandled_topic")
		return
	}
	if err := handler(ctx, msg.Value); err != nil {
		obs.Logger.Error().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("handler_error")
	}
}

// SendMessage publishes one message, keyed when key is non-empty.
func (b *KafkaBroker) SendMessage(ctx context.Context, topic string, payload []byte, key string) error {
	if b.writer == nil {
		return errors.New("producer not connected")
	}
	msg := kafka.Message{
		Topic: topic,
		Value: payload,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
