package attribution

import "github.com/papercomputeco/rewind/pkg/agenttrace"

// scoreTrace scores how well one candidate trace matches the blamed
// segment's representative line. Range and hash evidence is evaluated
// against the best covering entry of the trace's matching file entry.
// The revision_ancestor weight is never added: candidates carry no
// ancestry metadata, and the signal stays reserved.
func (e *Engine) scoreTrace(
	trace *agenttrace.AgentTrace,
	filePath string,
	line int,
	seg BlameSegment,
	linkedTraceIDs []string,
) (int, Signals) {
	score := 0
	signals := Signals{}
	w := e.config.Weights

	for _, id := range linkedTraceIDs {
		if id == trace.ID {
			score += w.CommitLink
			signals = append(signals, SignalCommitLink)
			break
		}
	}

	if trace.VCS != nil && trace.VCS.Revision != "" && seg.ParentSHA != "" {
		if RevisionMatches(trace.VCS.Revision, seg.ParentSHA, e.config.MinRevisionPrefix) {
			score += w.RevisionParent
			signals = append(signals, SignalRevisionParent)
		}
	}

	if matched := matchingFile(trace.Files, filePath); matched != nil {
		entries := collectEntries(matched)

		if sig, ok := rangeSignal(entries, line, e.config.OverlapMargin); ok {
			switch sig {
			case SignalRangeMatch:
				score += w.RangeMatch
			case SignalRangeOverlap:
				score += w.RangeOverlap
			}
			signals = append(signals, sig)
		}

		if seg.ContentHash != "" {
			if h := coveringHash(entries, line); h != "" && HashesMatch(seg.ContentHash, h) {
				score += w.ContentHash
				signals = append(signals, SignalContentHash)
			}
		}
	}

	if _, ok := agenttrace.ParseTimestamp(trace.Timestamp); ok {
		score += w.TimestampMatch
		signals = append(signals, SignalTimestampMatch)
	}

	return score, signals
}
