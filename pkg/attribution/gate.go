package attribution

// structuralSignals are tied to VCS identity or recorded content. Timestamp
// plausibility alone never attributes: it would false-positive on every
// manual edit made within a day of any trace.
var structuralSignals = map[Signal]struct{}{
	SignalCommitLink:       {},
	SignalContentHash:      {},
	SignalRevisionParent:   {},
	SignalRevisionAncestor: {},
	SignalRangeMatch:       {},
	SignalRangeOverlap:     {},
}

// PassesGate reports whether a candidate's evidence is structurally
// sufficient for attribution. A candidate failing the gate is discarded
// even when its raw score is the highest found. The gate requires a
// structural signal plus one of: line-range evidence, a proven commit link
// with matching content, or a commit link with a parent-revision match
// (many traces store no range info, and file scoping already ran).
func PassesGate(signals Signals) bool {
	structural := false
	for _, s := range signals {
		if _, ok := structuralSignals[s]; ok {
			structural = true
			break
		}
	}
	if !structural {
		return false
	}

	if signals.Has(SignalRangeMatch) || signals.Has(SignalRangeOverlap) {
		return true
	}
	if signals.Has(SignalCommitLink) && signals.Has(SignalContentHash) {
		return true
	}
	return signals.Has(SignalCommitLink) && signals.Has(SignalRevisionParent)
}

// TierFor maps a gated candidate's score and signals to a confidence tier.
// Tier 1 demands both the score threshold and the commit_link plus
// content_hash combination; a high score from other signals alone cannot
// reach it.
func TierFor(score int, signals Signals, t Thresholds) Tier {
	if score <= 0 {
		return TierNone
	}
	switch {
	case score >= t.Tier1 && signals.Has(SignalCommitLink) && signals.Has(SignalContentHash):
		return 1
	case score >= t.Tier2:
		return 2
	case score >= t.Tier3:
		return 3
	case score >= t.Tier4:
		return 4
	case score >= t.Tier5:
		return 5
	default:
		return 6
	}
}
