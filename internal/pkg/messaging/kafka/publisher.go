// Package kafka relays outbox events to Kafka.
package kafka

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher writes each event to "<prefix>.<aggregate type>", keyed by the
// aggregate id so one aggregate's events stay ordered within a partition.
type Publisher struct {
	writer      *kafkago.Writer
	topicPrefix string
}

func NewPublisher(brokers []string, topicPrefix string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		topicPrefix: topicPrefix,
	}
}

// Topic returns the topic an event is written to.
func (p *Publisher) Topic(evt event.Event) string {
	if p.topicPrefix == "" {
		return evt.AggregateType
	}
	return p.topicPrefix + "." + evt.AggregateType
}

// Publish implements event.Publisher.
func (p *Publisher) Publish(ctx context.Context, evt event.Event) error {
	return p.writer.WriteMessages(ctx, Message(evt, p.Topic(evt)))
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message converts an outbox event into a Kafka message.
func Message(evt event.Event, topic string) kafkago.Message {
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(evt.AggregateID),
		Value: evt.Payload,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(evt.ID)},
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "aggregate_type", Value: []byte(evt.AggregateType)},
		},
	}
}
