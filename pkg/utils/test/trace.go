// Package testutils provides shared fixtures for tests that need populated
// agent traces, commit links, and ledgers.
package testutils

import (
	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// Lines returns pointers for the 1-based inclusive line span fields.
func Lines(start, end int) (*int, *int) {
	return &start, &end
}

// NewTestTrace builds a valid trace recorded at revision that touched lines
// 1-20 of path, with an AI conversation attached.
func NewTestTrace(id, revision, path string) *agenttrace.AgentTrace {
	start, end := Lines(1, 20)
	return &agenttrace.AgentTrace{
		Version:   "1.0",
		ID:        id,
		Timestamp: "2025-06-01T12:00:00Z",
		VCS:       &agenttrace.VCS{Type: "git", Revision: revision},
		Tool:      &agenttrace.Tool{Name: "copilot", Version: "1.2.0"},
		Files: []agenttrace.File{
			{
				Path:      path,
				StartLine: start,
				EndLine:   end,
				Conversations: []agenttrace.Conversation{
					{
						URL:         "https://chat.example.com/s/" + id,
						Contributor: &agenttrace.Contributor{Type: agenttrace.ContributorAI, ModelID: "gpt-5"},
					},
				},
			},
		},
	}
}

// NewTestCommitLink associates commitSHA with the given trace IDs.
func NewTestCommitLink(commitSHA, parentSHA string, traceIDs ...string) *agenttrace.CommitLink {
	return &agenttrace.CommitLink{
		CommitSHA:   commitSHA,
		ParentSHA:   parentSHA,
		TraceIDs:    traceIDs,
		CommittedAt: "2025-06-01T12:30:00Z",
	}
}

// NewTestLedger covers path with the given attribution entries.
func NewTestLedger(path string, entries ...agenttrace.LineAttribution) *agenttrace.Ledger {
	return &agenttrace.Ledger{
		SchemaVersion: 1,
		Files: map[string][]agenttrace.LineAttribution{
			path: entries,
		},
	}
}

// AIEntry is a ledger entry attributing a line range to a trace.
func AIEntry(start, end int, traceID string) agenttrace.LineAttribution {
	return agenttrace.LineAttribution{
		StartLine:       start,
		EndLine:         end,
		Type:            agenttrace.ContributorAI,
		TraceID:         traceID,
		ModelID:         "gpt-5",
		ConversationURL: "https://chat.example.com/s/" + traceID,
	}
}

// HumanEntry is a ledger entry marking a line range as human authored.
func HumanEntry(start, end int) agenttrace.LineAttribution {
	return agenttrace.LineAttribution{
		StartLine: start,
		EndLine:   end,
		Type:      agenttrace.ContributorHuman,
	}
}
