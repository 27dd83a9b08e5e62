package attribution

import (
	"context"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// Store is the read-only view of trace storage the engine queries. Absent
// records are (nil, nil) rather than errors; any non-nil error aborts the
// whole request, since a degraded answer is indistinguishable from a wrong
// one.
//
// Implementations must return FindTracesByIDs results in the order the IDs
// were requested, and revision/time-window results in trace creation order.
// The engine's tie-breaking depends on that ordering for determinism.
// FindTracesByRevision compares per RevisionMatches, so abbreviated SHAs of
// at least MinRevisionPrefix characters match in either direction.
type Store interface {
	GetCommitLink(ctx context.Context, projectID, commitSHA string) (*agenttrace.CommitLink, error)
	GetLedger(ctx context.Context, projectID, commitSHA string) (*agenttrace.Ledger, error)
	FindTracesByIDs(ctx context.Context, projectID string, traceIDs []string) ([]*agenttrace.AgentTrace, error)
	FindTracesByRevision(ctx context.Context, projectID, revision string) ([]*agenttrace.AgentTrace, error)
	FindTracesInTimeWindow(ctx context.Context, projectID string, since, until time.Time) ([]*agenttrace.AgentTrace, error)
	GetConversationContent(ctx context.Context, projectID, url string) (string, error)
}
