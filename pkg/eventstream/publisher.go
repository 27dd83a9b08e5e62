package eventstream

import "context"

// Publisher publishes ingest events to an event stream backend.
type Publisher interface {
	PublishTraceIngested(ctx context.Context, event *TraceIngestedEvent) error
	PublishCommitLinked(ctx context.Context, event *CommitLinkedEvent) error
	Close() error
}
