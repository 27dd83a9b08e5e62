package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps. It backs tests and
// the zero-config serve mode; nothing survives process exit.
type Driver struct {
	// mu is a read write sync mutex for locking the project map
	mu sync.RWMutex

	// projects maps project ID to that project's stored state
	projects map[string]*projectState
}

// projectState holds everything stored under one project.
type projectState struct {
	project storage.Project

	// traces maps trace ID to the stored trace; traceOrder remembers
	// insertion order, which is the creation order the attribution
	// queries must preserve
	traces     map[string]*traceRecord
	traceOrder []string

	commitLinks   map[string]*agenttrace.CommitLink
	conversations map[string]string
}

// traceRecord couples a stored trace with its parsed event time.
type traceRecord struct {
	stored *storage.StoredTrace

	// eventTime orders listings: the trace's own timestamp when it
	// parses, the ingest time otherwise
	eventTime time.Time
	parsed    bool
}

// NewDriver creates a new in-memory storer.
func NewDriver() *Driver {
	return &Driver{
		projects: make(map[string]*projectState),
	}
}

// ensure returns the state for projectID, creating it if absent.
// The caller must hold the write lock.
func (s *Driver) ensure(projectID string) *projectState {
	ps, ok := s.projects[projectID]
	if !ok {
		now := time.Now().UTC()
		ps = &projectState{
			project: storage.Project{
				ID:        projectID,
				CreatedAt: now,
				UpdatedAt: now,
			},
			traces:        make(map[string]*traceRecord),
			commitLinks:   make(map[string]*agenttrace.CommitLink),
			conversations: make(map[string]string),
		}
		s.projects[projectID] = ps
	}
	return ps
}

// CreateTrace stores a trace, replacing the payload of an existing trace
// with the same ID while keeping its creation position.
func (s *Driver) CreateTrace(_ context.Context, projectID, userID string, trace *agenttrace.AgentTrace) error {
	if trace == nil {
		return errors.New("cannot store nil trace")
	}
	if trace.ID == "" {
		return errors.New("cannot store trace without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.ensure(projectID)
	now := time.Now().UTC()

	rec, ok := ps.traces[trace.ID]
	if !ok {
		rec = &traceRecord{stored: &storage.StoredTrace{
			ProjectID: projectID,
			CreatedAt: now,
		}}
		ps.traces[trace.ID] = rec
		ps.traceOrder = append(ps.traceOrder, trace.ID)
	}

	rec.stored.UserID = userID
	rec.stored.Trace = trace
	rec.eventTime, rec.parsed = agenttrace.ParseTimestamp(trace.Timestamp)
	if !rec.parsed {
		rec.eventTime = rec.stored.CreatedAt
	}

	return nil
}

// GetTrace retrieves a stored trace by ID.
func (s *Driver) GetTrace(_ context.Context, projectID, traceID string) (*storage.StoredTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, storage.NotFoundError{Resource: "trace", ID: traceID}
	}
	rec, ok := ps.traces[traceID]
	if !ok {
		return nil, storage.NotFoundError{Resource: "trace", ID: traceID}
	}

	return rec.stored, nil
}

// QueryTraces returns traces newest first by event time, plus the total
// count ignoring pagination.
func (s *Driver) QueryTraces(_ context.Context, projectID string, query storage.TraceQuery) ([]*storage.StoredTrace, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return []*storage.StoredTrace{}, 0, nil
	}

	matched := make([]*traceRecord, 0, len(ps.traceOrder))
	for _, id := range ps.traceOrder {
		rec := ps.traces[id]
		if query.Since != nil && rec.eventTime.Before(*query.Since) {
			continue
		}
		if query.Until != nil && rec.eventTime.After(*query.Until) {
			continue
		}
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].eventTime.After(matched[j].eventTime)
	})

	total := len(matched)

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[query.Offset:]
		}
	}
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}

	out := make([]*storage.StoredTrace, 0, len(matched))
	for _, rec := range matched {
		out = append(out, rec.stored)
	}

	return out, total, nil
}

// UpsertProject creates or updates a project. Empty fields on update keep
// the stored values.
func (s *Driver) UpsertProject(_ context.Context, project *storage.Project) (*storage.Project, error) {
	if project == nil || project.ID == "" {
		return nil, errors.New("cannot upsert project without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.ensure(project.ID)
	if project.Name != "" {
		ps.project.Name = project.Name
	}
	if project.Description != "" {
		ps.project.Description = project.Description
	}
	ps.project.UpdatedAt = time.Now().UTC()

	out := ps.project
	return &out, nil
}

// GetProject retrieves a project by ID.
func (s *Driver) GetProject(_ context.Context, projectID string) (*storage.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}

	out := ps.project
	return &out, nil
}

// ProjectStats aggregates stored record counts for a project.
func (s *Driver) ProjectStats(_ context.Context, projectID string) (*storage.ProjectStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, storage.NotFoundError{Resource: "project", ID: projectID}
	}

	stats := &storage.ProjectStats{
		TraceCount:        len(ps.traces),
		CommitLinkCount:   len(ps.commitLinks),
		ConversationCount: len(ps.conversations),
	}
	for _, rec := range ps.traces {
		if stats.LastIngestAt == nil || rec.stored.CreatedAt.After(*stats.LastIngestAt) {
			t := rec.stored.CreatedAt
			stats.LastIngestAt = &t
		}
	}

	return stats, nil
}

// UpsertConversationContents stores conversation contents keyed by URL.
func (s *Driver) UpsertConversationContents(_ context.Context, projectID string, contents []agenttrace.ConversationContent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.ensure(projectID)
	written := 0
	for _, c := range contents {
		if c.URL == "" {
			continue
		}
		ps.conversations[c.URL] = c.Content
		written++
	}

	return written, nil
}

// CreateCommitLink stores a commit link, fully replacing any existing link
// for the same commit SHA.
func (s *Driver) CreateCommitLink(_ context.Context, projectID string, link *agenttrace.CommitLink) error {
	if link == nil {
		return errors.New("cannot store nil commit link")
	}
	if link.CommitSHA == "" {
		return errors.New("cannot store commit link without commit sha")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.ensure(projectID)
	stored := *link
	if stored.CreatedAt == "" {
		if prev, ok := ps.commitLinks[link.CommitSHA]; ok {
			stored.CreatedAt = prev.CreatedAt
		} else {
			stored.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
	}
	ps.commitLinks[link.CommitSHA] = &stored

	return nil
}

// GetCommitLinksByParent returns commit links whose parent SHA matches,
// newest first.
func (s *Driver) GetCommitLinksByParent(_ context.Context, projectID, parentSHA string) ([]*agenttrace.CommitLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}

	var links []*agenttrace.CommitLink
	for _, link := range ps.commitLinks {
		if link.ParentSHA == parentSHA {
			links = append(links, link)
		}
	}
	// CreatedAt is RFC 3339, so lexical order is chronological order.
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt > links[j].CreatedAt
	})

	return links, nil
}

// Ping is a no-op for the in-memory storer.
func (s *Driver) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory storer.
func (s *Driver) Close() error {
	return nil
}
