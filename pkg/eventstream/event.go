package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTraceIngested is emitted after a trace is persisted.
	EventTypeTraceIngested = "rewind.trace.ingested"

	// EventTypeCommitLinked is emitted after a commit is linked to its traces.
	EventTypeCommitLinked = "rewind.commit.linked"
)

// TraceIngestedEvent summarizes a persisted trace. It carries identifiers
// rather than the full trace record so payloads stay small; consumers fetch
// the record from the API when they need it.
type TraceIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	ProjectID     string    `json:"project_id"`
	UserID        string    `json:"user_id,omitempty"`
	TraceID       string    `json:"trace_id"`
	ToolName      string    `json:"tool_name,omitempty"`
	FileCount     int       `json:"file_count"`
}

// CommitLinkedEvent summarizes a commit link written for a project.
type CommitLinkedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	ProjectID     string    `json:"project_id"`
	UserID        string    `json:"user_id,omitempty"`
	CommitSHA     string    `json:"commit_sha"`
	ParentSHA     string    `json:"parent_sha,omitempty"`
	TraceIDs      []string  `json:"trace_ids"`
	HasLedger     bool      `json:"has_ledger"`
}

// NewTraceIngestedEvent stamps a trace event with its identity and the
// current time.
func NewTraceIngestedEvent(projectID, userID string, trace *agenttrace.AgentTrace) *TraceIngestedEvent {
	event := &TraceIngestedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTraceIngested,
		EventID:       "evt_" + uuid.New().String(),
		EmittedAt:     time.Now().UTC(),
		ProjectID:     projectID,
		UserID:        userID,
	}

	if trace != nil {
		event.TraceID = trace.ID
		event.FileCount = len(trace.Files)
		if trace.Tool != nil {
			event.ToolName = trace.Tool.Name
		}
	}

	return event
}

// NewCommitLinkedEvent stamps a commit link event with its identity and
// the current time.
func NewCommitLinkedEvent(projectID, userID string, link *agenttrace.CommitLink) *CommitLinkedEvent {
	event := &CommitLinkedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCommitLinked,
		EventID:       "evt_" + uuid.New().String(),
		EmittedAt:     time.Now().UTC(),
		ProjectID:     projectID,
		UserID:        userID,
	}

	if link != nil {
		event.CommitSHA = link.CommitSHA
		event.ParentSHA = link.ParentSHA
		event.TraceIDs = link.TraceIDs
		event.HasLedger = link.Ledger != nil
	}

	return event
}
