package seedcmder

import (
	"context"
	"fmt"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/storage"
)

// Demo revisions. The traces are recorded at the parent revision, the
// commit link lands them at the child, matching how traces arrive from
// real agents: the agent works on the parent, then the edit is committed.
const (
	demoParentSHA = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0"
	demoCommitSHA = "b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1"
)

type seedCounts struct {
	traces        int
	links         int
	conversations int
}

// seedDemo writes the demo dataset into the store. Safe to run twice:
// every write is an upsert keyed by ID.
func seedDemo(ctx context.Context, driver storage.Driver, projectID string) (seedCounts, error) {
	var counts seedCounts

	if _, err := driver.UpsertProject(ctx, &storage.Project{
		ID:          projectID,
		Name:        "Demo project",
		Description: "Seeded demo data",
	}); err != nil {
		return counts, fmt.Errorf("creating project: %w", err)
	}

	traces := demoTraces()
	for _, trace := range traces {
		if err := driver.CreateTrace(ctx, projectID, "seed", trace); err != nil {
			return counts, fmt.Errorf("storing trace %s: %w", trace.ID, err)
		}
	}
	counts.traces = len(traces)

	if err := driver.CreateCommitLink(ctx, projectID, demoCommitLink()); err != nil {
		return counts, fmt.Errorf("storing commit link: %w", err)
	}
	counts.links = 1

	written, err := driver.UpsertConversationContents(ctx, projectID, demoConversations())
	if err != nil {
		return counts, fmt.Errorf("storing conversations: %w", err)
	}
	counts.conversations = written

	return counts, nil
}

// demoTraces returns sessions from three different tools touching the same
// imaginary service, so blame output shows a mix of models.
func demoTraces() []*agenttrace.AgentTrace {
	return []*agenttrace.AgentTrace{
		demoTrace("demo-copilot-1", "copilot", "1.2.0", "gpt-5",
			"internal/server/server.go", 1, 48),
		demoTrace("demo-claude-1", "claude-code", "2.0.1", "claude-sonnet-4",
			"internal/server/routes.go", 10, 92),
		demoTrace("demo-cursor-1", "cursor", "0.44.0", "gpt-5-mini",
			"cmd/app/main.go", 1, 30),
	}
}

func demoTrace(id, tool, toolVersion, modelID, path string, start, end int) *agenttrace.AgentTrace {
	return &agenttrace.AgentTrace{
		Version:   "1.0",
		ID:        id,
		Timestamp: "2025-06-01T12:00:00Z",
		VCS:       &agenttrace.VCS{Type: "git", Revision: demoParentSHA},
		Tool:      &agenttrace.Tool{Name: tool, Version: toolVersion},
		Files: []agenttrace.File{
			{
				Path:      path,
				StartLine: &start,
				EndLine:   &end,
				Conversations: []agenttrace.Conversation{
					{
						URL:         "https://chat.example.com/s/" + id,
						Contributor: &agenttrace.Contributor{Type: agenttrace.ContributorAI, ModelID: modelID},
					},
				},
			},
		},
	}
}

// demoCommitLink lands the copilot and claude sessions in one commit and
// carries a ledger for server.go, so that file resolves at the exact tier
// while routes.go falls through to heuristic scoring.
func demoCommitLink() *agenttrace.CommitLink {
	return &agenttrace.CommitLink{
		CommitSHA:    demoCommitSHA,
		ParentSHA:    demoParentSHA,
		TraceIDs:     []string{"demo-copilot-1", "demo-claude-1"},
		FilesChanged: []string{"internal/server/server.go", "internal/server/routes.go"},
		CommittedAt:  "2025-06-01T12:30:00Z",
		Ledger: &agenttrace.Ledger{
			SchemaVersion: 1,
			Files: map[string][]agenttrace.LineAttribution{
				"internal/server/server.go": {
					{
						StartLine:       1,
						EndLine:         32,
						Type:            agenttrace.ContributorAI,
						TraceID:         "demo-copilot-1",
						ModelID:         "gpt-5",
						ConversationURL: "https://chat.example.com/s/demo-copilot-1",
					},
					{
						StartLine: 33,
						EndLine:   48,
						Type:      agenttrace.ContributorHuman,
					},
				},
			},
		},
	}
}

func demoConversations() []agenttrace.ConversationContent {
	return []agenttrace.ConversationContent{
		{
			URL:     "https://chat.example.com/s/demo-copilot-1",
			Content: "Added the HTTP server bootstrap with graceful shutdown and request logging middleware.",
		},
		{
			URL:     "https://chat.example.com/s/demo-claude-1",
			Content: "Wired the route table and the project-scoped trace handlers.",
		},
		{
			URL:     "https://chat.example.com/s/demo-cursor-1",
			Content: "Generated the CLI entrypoint with flag parsing and config loading.",
		},
	}
}
