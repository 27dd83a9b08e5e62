package agenttrace

// CommitLink associates a git commit with the traces that were active when
// the commit was created. Written once per commit by a post-commit hook and
// read-only afterwards.
type CommitLink struct {
	CommitSHA    string   `json:"commit_sha"`
	ParentSHA    string   `json:"parent_sha,omitempty"`
	TraceIDs     []string `json:"trace_ids"`
	FilesChanged []string `json:"files_changed,omitempty"`
	CommittedAt  string   `json:"committed_at,omitempty"`
	Ledger       *Ledger  `json:"ledger,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// Ledger is a deterministic per-line attribution map for one commit. When a
// ledger covers a file it is authoritative over heuristic scoring.
type Ledger struct {
	SchemaVersion int                          `json:"schema_version,omitempty"`
	Files         map[string][]LineAttribution `json:"files"`
}

// LineAttribution is one authored range inside a ledger file entry. Ranges
// within a file are non-overlapping and ordered by start line.
type LineAttribution struct {
	StartLine       int    `json:"start_line"`
	EndLine         int    `json:"end_line"`
	Type            string `json:"type"`
	TraceID         string `json:"trace_id,omitempty"`
	ModelID         string `json:"model_id,omitempty"`
	ConversationURL string `json:"conversation_url,omitempty"`
}

// ConversationContent is the stored transcript for a conversation URL,
// synced separately from traces so blame output can show summaries.
type ConversationContent struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}
