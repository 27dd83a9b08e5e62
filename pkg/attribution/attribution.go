// Package attribution decides which recorded agent trace most plausibly
// produced a run of blamed lines. Given per-segment revision metadata from
// git blame it resolves authoritative ledger entries first, then falls back
// to heuristic scoring: candidate discovery, file scoping, weighted evidence
// signals, an evidence gate, and tier mapping. The engine is stateless and
// behaves identically over any Store implementation.
package attribution

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// Signal is a named piece of evidence contributing a fixed weight to a
// candidate's score.
type Signal string

const (
	SignalCommitLink       Signal = "commit_link"
	SignalContentHash      Signal = "content_hash"
	SignalRevisionParent   Signal = "revision_parent"
	SignalRevisionAncestor Signal = "revision_ancestor"
	SignalRangeMatch       Signal = "range_match"
	SignalRangeOverlap     Signal = "range_overlap"
	SignalTimestampMatch   Signal = "timestamp_match"
)

// Signals is the list of evidence signals that fired for a candidate, in
// evaluation order.
type Signals []Signal

// Has reports whether s fired.
func (sig Signals) Has(s Signal) bool {
	for _, fired := range sig {
		if fired == s {
			return true
		}
	}
	return false
}

// Tier is a discrete confidence level: 1 is highest, 6 lowest, TierNone
// means no attribution. It marshals as null when no attribution was made.
type Tier int

// TierNone is the zero tier: the segment could not be attributed.
const TierNone Tier = 0

// Confidence returns the representative confidence value for a tier.
func (t Tier) Confidence() float64 {
	switch t {
	case 1:
		return 1.0
	case 2:
		return 0.999
	case 3:
		return 0.95
	case 4:
		return 0.85
	case 5:
		return 0.70
	case 6:
		return 0.40
	default:
		return 0.0
	}
}

func (t Tier) MarshalJSON() ([]byte, error) {
	if t == TierNone {
		return []byte("null"), nil
	}
	return json.Marshal(int(t))
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TierNone
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Tier(n)
	return nil
}

// BlameSegment is a contiguous run of lines that version control attributes
// to a single commit. Line numbers are 1-based and inclusive.
type BlameSegment struct {
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	CommitSHA   string `json:"commit_sha"`
	ParentSHA   string `json:"parent_sha,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// FileRequest asks for attribution of every blamed segment of one file.
type FileRequest struct {
	ProjectID string         `json:"project_id"`
	FilePath  string         `json:"file_path"`
	Segments  []BlameSegment `json:"segments"`
}

// Validate rejects malformed requests. It runs before any Store access.
func (r FileRequest) Validate() error {
	if r.ProjectID == "" {
		return ValidationError{Reason: "project_id is required"}
	}
	if r.FilePath == "" {
		return ValidationError{Reason: "file_path is required"}
	}
	if len(r.Segments) == 0 {
		return ValidationError{Reason: "segments must not be empty"}
	}
	for i, seg := range r.Segments {
		if seg.StartLine < 1 || seg.EndLine < 1 {
			return ValidationError{Reason: fmt.Sprintf("segment %d: start_line and end_line are required and 1-based", i)}
		}
		if seg.EndLine < seg.StartLine {
			return ValidationError{Reason: fmt.Sprintf("segment %d: end_line precedes start_line", i)}
		}
		if seg.CommitSHA == "" {
			return ValidationError{Reason: fmt.Sprintf("segment %d: commit_sha is required", i)}
		}
	}
	return nil
}

// FileResult is the merged, ordered attribution list for one file.
type FileResult struct {
	FilePath     string   `json:"file_path"`
	Attributions []Result `json:"attributions"`
}

// Result attributes one merged line range to a trace, or records that no
// trace could be attributed with sufficient evidence (tier null).
type Result struct {
	StartLine           int                     `json:"start_line"`
	EndLine             int                     `json:"end_line"`
	Tier                Tier                    `json:"tier"`
	Confidence          float64                 `json:"confidence"`
	TraceID             string                  `json:"trace_id,omitempty"`
	Contributor         *agenttrace.Contributor `json:"contributor,omitempty"`
	ContributorType     string                  `json:"contributor_type,omitempty"`
	ModelID             string                  `json:"model_id,omitempty"`
	ConversationURL     string                  `json:"conversation_url,omitempty"`
	ConversationSummary string                  `json:"conversation_summary,omitempty"`
	Tool                *agenttrace.Tool        `json:"tool,omitempty"`
	Signals             Signals                 `json:"signals"`
	CommitLinkMatch     bool                    `json:"commit_link_match"`
	ContentHashMatch    bool                    `json:"content_hash_match"`
}

// ValidationError reports a malformed attribution request.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid attribution request: " + e.Reason
}

// noAttribution is the explicit empty result for a segment.
func noAttribution(seg BlameSegment) Result {
	return Result{
		StartLine:  seg.StartLine,
		EndLine:    seg.EndLine,
		Tier:       TierNone,
		Confidence: 0,
		Signals:    Signals{},
	}
}

// representativeLine is the segment's integer midpoint. The engine checks
// range containment against it, so any line within the segment produces the
// same result for the same trace.
func representativeLine(seg BlameSegment) int {
	return (seg.StartLine + seg.EndLine) / 2
}
