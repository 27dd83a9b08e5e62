package attribution

import (
	"context"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// ledgerEntries returns the ledger's entries for path. Coverage is exact:
// path is never suffix-matched, and a ledger either covers a file wholly or
// is ignored for it.
func ledgerEntries(ledger *agenttrace.Ledger, path string) ([]agenttrace.LineAttribution, bool) {
	if ledger == nil || len(ledger.Files) == 0 {
		return nil, false
	}
	entries, ok := ledger.Files[path]
	return entries, ok
}

// resolveFromLedger maps a segment to its covering ledger entry. The ledger
// encodes certainty by construction, not inference: ai and mixed entries
// are tier 1 with confidence 1.0, human entries are an explicit
// no-attribution, and a covered file whose entries miss the segment's
// representative line is also no-attribution, never a fall-through to
// heuristic scoring.
func (e *Engine) resolveFromLedger(
	ctx context.Context,
	projectID string,
	entries []agenttrace.LineAttribution,
	seg BlameSegment,
) Result {
	line := representativeLine(seg)
	for _, entry := range entries {
		if line < entry.StartLine || line > entry.EndLine {
			continue
		}
		if entry.Type == agenttrace.ContributorHuman {
			return noAttribution(seg)
		}

		res := Result{
			StartLine:       seg.StartLine,
			EndLine:         seg.EndLine,
			Tier:            1,
			Confidence:      Tier(1).Confidence(),
			TraceID:         entry.TraceID,
			ContributorType: entry.Type,
			ModelID:         entry.ModelID,
			ConversationURL: entry.ConversationURL,
			Signals:         Signals{},
		}
		if entry.Type != "" || entry.ModelID != "" {
			res.Contributor = &agenttrace.Contributor{Type: entry.Type, ModelID: entry.ModelID}
		}
		res.ConversationSummary = e.conversationSummary(ctx, projectID, entry.ConversationURL)
		return res
	}
	return noAttribution(seg)
}
