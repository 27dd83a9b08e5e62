// Package storage
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/attribution"
)

// Driver defines the interface for persisting and retrieving traces, commit
// links, and conversation contents in a storage backend. It embeds the
// attribution engine's read-only view so any Driver can back blame directly.
type Driver interface {
	attribution.Store

	// CreateTrace stores a trace for a project, replacing any existing
	// trace with the same ID. The project record is created on demand.
	CreateTrace(ctx context.Context, projectID, userID string, trace *agenttrace.AgentTrace) error

	// GetTrace retrieves a stored trace by ID.
	GetTrace(ctx context.Context, projectID, traceID string) (*StoredTrace, error)

	// QueryTraces returns traces for a project newest first, plus the
	// total count ignoring pagination.
	QueryTraces(ctx context.Context, projectID string, query TraceQuery) ([]*StoredTrace, int, error)

	// UpsertProject creates or updates a project. Empty name/description
	// on update keep the stored values.
	UpsertProject(ctx context.Context, project *Project) (*Project, error)

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// ProjectStats aggregates stored record counts for a project.
	ProjectStats(ctx context.Context, projectID string) (*ProjectStats, error)

	// UpsertConversationContents stores conversation contents keyed by
	// (project, url) and returns how many were written.
	UpsertConversationContents(ctx context.Context, projectID string, contents []agenttrace.ConversationContent) (int, error)

	// CreateCommitLink stores a commit link, fully replacing any existing
	// link for the same (project, commit SHA).
	CreateCommitLink(ctx context.Context, projectID string, link *agenttrace.CommitLink) error

	// GetCommitLinksByParent returns commit links whose parent SHA matches,
	// newest first.
	GetCommitLinksByParent(ctx context.Context, projectID, parentSHA string) ([]*agenttrace.CommitLink, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and releases any resources.
	Close() error
}

// StoredTrace couples a trace document with its storage metadata.
type StoredTrace struct {
	ProjectID string                 `json:"project_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Trace     *agenttrace.AgentTrace `json:"trace"`
	CreatedAt time.Time              `json:"created_at"`
}

// TraceQuery defines query parameters for filtering traces.
type TraceQuery struct {
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// Project is a tenant namespace for traces and commit links.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectStats aggregates a project's stored records.
type ProjectStats struct {
	TraceCount        int        `json:"trace_count"`
	CommitLinkCount   int        `json:"commit_link_count"`
	ConversationCount int        `json:"conversation_count"`
	LastIngestAt      *time.Time `json:"last_ingest_at,omitempty"`
}
