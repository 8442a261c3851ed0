package sinkbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NewAmqpPublisher builds a durable, topic-exchange watermill Publisher
// against the given AMQP URL, the same durable/topic shape the teacher's
// infra/pubsub factory configures for its own exchanges.
func NewAmqpPublisher(url string, logger *slog.Logger) (message.Publisher, error) {
	cfg := amqp.NewDurablePubSubConfig(url, nil)
	return amqp.NewPublisher(cfg, watermill.NewSlogLogger(logger))
}

// NewAmqpSubscriber builds the matching Subscriber.
func NewAmqpSubscriber(url string, logger *slog.Logger) (message.Subscriber, error) {
	cfg := amqp.NewDurablePubSubConfig(url, nil)
	return amqp.NewSubscriber(cfg, watermill.NewSlogLogger(logger))
}
