package events

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// KafkaConfig selects the Kafka transport; an empty broker list means in-process.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// PubSub bundles the two halves of the transport the service runs on.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewPubSub builds a Kafka pub/sub when brokers are configured and an
// in-process Go channel otherwise.
func NewPubSub(cfg KafkaConfig, logger *slog.Logger) (PubSub, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	if len(cfg.Brokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		return PubSub{Publisher: ch, Subscriber: ch}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return PubSub{}, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = "quiz-attempt-recorder"
	}
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:       cfg.Brokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: group,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return PubSub{}, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}
	return PubSub{Publisher: publisher, Subscriber: subscriber}, nil
}

// Close shuts both halves down. With the Go channel both fields are the same value.
func (p PubSub) Close() error {
	err := p.Publisher.Close()
	if any(p.Subscriber) == any(p.Publisher) {
		return err
	}
	if subErr := p.Subscriber.Close(); err == nil {
		err = subErr
	}
	return err
}
