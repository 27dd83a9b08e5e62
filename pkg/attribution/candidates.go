package attribution

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// findCandidates gathers candidate traces for a segment using three
// strategies, in order and strictly additive:
//
//  1. traces named by the commit link for the blamed commit
//  2. traces whose recorded revision matches the segment's parent SHA
//  3. traces in a time window around the commit, only while fewer than
//     CandidateTarget candidates have been found
//
// Results are deduplicated by trace ID and finally scoped to traces that
// actually touch the blamed file.
func (e *Engine) findCandidates(
	ctx context.Context,
	projectID string,
	filePath string,
	seg BlameSegment,
	linkedTraceIDs []string,
) ([]*agenttrace.AgentTrace, error) {
	seen := make(map[string]struct{})
	var candidates []*agenttrace.AgentTrace
	add := func(traces []*agenttrace.AgentTrace) {
		for _, t := range traces {
			if t == nil || t.ID == "" {
				continue
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			candidates = append(candidates, t)
		}
	}

	if len(linkedTraceIDs) > 0 {
		traces, err := e.store.FindTracesByIDs(ctx, projectID, linkedTraceIDs)
		if err != nil {
			return nil, fmt.Errorf("find traces by ids: %w", err)
		}
		add(traces)
	}

	if seg.ParentSHA != "" {
		traces, err := e.store.FindTracesByRevision(ctx, projectID, seg.ParentSHA)
		if err != nil {
			return nil, fmt.Errorf("find traces by revision: %w", err)
		}
		add(traces)
	}

	if seg.Timestamp != "" && len(candidates) < e.config.CandidateTarget {
		if ts, ok := agenttrace.ParseTimestamp(seg.Timestamp); ok {
			since := ts.Add(-e.config.WindowBefore)
			until := ts.Add(e.config.WindowAfter)
			traces, err := e.store.FindTracesInTimeWindow(ctx, projectID, since, until)
			if err != nil {
				return nil, fmt.Errorf("find traces in time window: %w", err)
			}
			add(traces)
		} else {
			e.logger.Debug("unparseable blame timestamp", zap.String("timestamp", seg.Timestamp))
		}
	}

	return scopeToFile(candidates, filePath), nil
}

// scopeToFile keeps only traces whose files array touches path. A commit
// link associates a commit with traces for every changed file, so without
// scoping a trace that only touched .gitignore would claim lines in every
// other file of the same commit.
func scopeToFile(traces []*agenttrace.AgentTrace, path string) []*agenttrace.AgentTrace {
	scoped := make([]*agenttrace.AgentTrace, 0, len(traces))
	for _, t := range traces {
		if matchingFile(t.Files, path) != nil {
			scoped = append(scoped, t)
		}
	}
	return scoped
}

// matchingFile finds the trace file entry for path, tolerating relative vs
// absolute differences with a path-segment suffix match in either
// direction.
func matchingFile(files []agenttrace.File, path string) *agenttrace.File {
	for i := range files {
		p := files[i].Path
		if p == "" {
			continue
		}
		if p == path || pathSuffixMatch(p, path) || pathSuffixMatch(path, p) {
			return &files[i]
		}
	}
	return nil
}

// pathSuffixMatch reports whether suffix matches whole trailing path
// segments of full: "vite.config.js" matches "frontend/vite.config.js" but
// not "my-vite.config.js".
func pathSuffixMatch(suffix, full string) bool {
	if !strings.HasSuffix(full, suffix) {
		return false
	}
	rest := strings.TrimSuffix(full, suffix)
	return rest == "" || strings.HasSuffix(rest, "/")
}

// RevisionMatches reports whether two revisions name the same commit,
// allowing abbreviated SHAs no shorter than minPrefix characters. Store
// implementations use it to answer FindTracesByRevision consistently.
func RevisionMatches(a, b string, minPrefix int) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	n := min(len(a), len(b))
	if n < minPrefix {
		return false
	}
	return a[:n] == b[:n]
}
