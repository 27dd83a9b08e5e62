// Package kafka publishes ingest events to Kafka, one topic per event
// type, keyed by project so per-project ordering survives partitioning.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/rewind/pkg/eventstream"
)

// Publisher is a Kafka-backed eventstream publisher.
type Publisher struct {
	writer *kafkago.Writer

	// topic, when non-empty, overrides the per-type topics so every
	// event lands on a single stream.
	topic string
}

// NewPublisher creates a publisher that writes to the given brokers.
// Events go to the per-type topics unless topic is non-empty.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

// PublishTraceIngested writes a trace event to the trace topic.
func (p *Publisher) PublishTraceIngested(ctx context.Context, event *eventstream.TraceIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilTraceEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal trace event: %w", err)
	}

	return p.write(ctx, eventstream.EventTypeTraceIngested, event.ProjectID, payload)
}

// PublishCommitLinked writes a commit link event to the commit topic.
func (p *Publisher) PublishCommitLinked(ctx context.Context, event *eventstream.CommitLinkedEvent) error {
	if event == nil {
		return eventstream.ErrNilCommitEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal commit event: %w", err)
	}

	return p.write(ctx, eventstream.EventTypeCommitLinked, event.ProjectID, payload)
}

func (p *Publisher) write(ctx context.Context, topic, key string, payload []byte) error {
	if p.topic != "" {
		topic = p.topic
	}

	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
