package nop

import (
	"context"

	"github.com/papercomputeco/rewind/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishTraceIngested validates input and otherwise does nothing.
func (p *Publisher) PublishTraceIngested(_ context.Context, event *eventstream.TraceIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilTraceEvent
	}

	return nil
}

// PublishCommitLinked validates input and otherwise does nothing.
func (p *Publisher) PublishCommitLinked(_ context.Context, event *eventstream.CommitLinkedEvent) error {
	if event == nil {
		return eventstream.ErrNilCommitEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
