package inmemory

import (
	"context"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/attribution"
)

// The attribution.Store methods answer the blame engine's read queries.
// Absent records are (nil, nil); trace lists come back in creation order.

// GetCommitLink retrieves the commit link for a commit SHA.
func (s *Driver) GetCommitLink(_ context.Context, projectID, commitSHA string) (*agenttrace.CommitLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}

	return ps.commitLinks[commitSHA], nil
}

// GetLedger retrieves the attribution ledger stored on a commit link.
func (s *Driver) GetLedger(_ context.Context, projectID, commitSHA string) (*agenttrace.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	link, ok := ps.commitLinks[commitSHA]
	if !ok {
		return nil, nil
	}

	return link.Ledger, nil
}

// FindTracesByIDs returns the traces that exist for the given IDs, in the
// order the IDs were requested.
func (s *Driver) FindTracesByIDs(_ context.Context, projectID string, traceIDs []string) ([]*agenttrace.AgentTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}

	traces := make([]*agenttrace.AgentTrace, 0, len(traceIDs))
	for _, id := range traceIDs {
		if rec, ok := ps.traces[id]; ok {
			traces = append(traces, rec.stored.Trace)
		}
	}

	return traces, nil
}

// FindTracesByRevision returns traces whose recorded VCS revision matches,
// in creation order.
func (s *Driver) FindTracesByRevision(_ context.Context, projectID, revision string) ([]*agenttrace.AgentTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}

	var traces []*agenttrace.AgentTrace
	for _, id := range ps.traceOrder {
		trace := ps.traces[id].stored.Trace
		if trace.VCS == nil {
			continue
		}
		if attribution.RevisionMatches(trace.VCS.Revision, revision, attribution.MinRevisionPrefix) {
			traces = append(traces, trace)
		}
	}

	return traces, nil
}

// FindTracesInTimeWindow returns traces whose own timestamp falls inside
// [since, until], in creation order. Traces with unparseable timestamps
// never match a bounded window.
func (s *Driver) FindTracesInTimeWindow(_ context.Context, projectID string, since, until time.Time) ([]*agenttrace.AgentTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}

	var traces []*agenttrace.AgentTrace
	for _, id := range ps.traceOrder {
		rec := ps.traces[id]
		if !rec.parsed {
			continue
		}
		if rec.eventTime.Before(since) || rec.eventTime.After(until) {
			continue
		}
		traces = append(traces, rec.stored.Trace)
	}

	return traces, nil
}

// GetConversationContent retrieves stored conversation content by URL.
// Absent content is an empty string, not an error.
func (s *Driver) GetConversationContent(_ context.Context, projectID, url string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return "", nil
	}

	return ps.conversations[url], nil
}
