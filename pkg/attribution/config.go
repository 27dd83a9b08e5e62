package attribution

import "time"

// MinRevisionPrefix is the shortest abbreviated SHA that may match by
// prefix. Engine and Store implementations apply the same floor.
const MinRevisionPrefix = 7

// Weights assigns the score contribution of each evidence signal.
// RevisionAncestor is reserved: no signal fires it, but the weight stays in
// the table so scores remain comparable if ancestry evidence is ever added.
type Weights struct {
	CommitLink       int
	ContentHash      int
	RevisionParent   int
	RevisionAncestor int
	RangeMatch       int
	RangeOverlap     int
	TimestampMatch   int
}

// Thresholds are the minimum scores for tiers 1 through 5. Any positive
// score below Tier5 maps to tier 6.
type Thresholds struct {
	Tier1 int
	Tier2 int
	Tier3 int
	Tier4 int
	Tier5 int
}

// Config carries the fixed parameters of the attribution heuristics.
// Engines treat it as immutable; tests may supply alternate weightings.
type Config struct {
	Weights    Weights
	Thresholds Thresholds

	// OverlapMargin is how many lines beyond a range boundary still count
	// as range overlap.
	OverlapMargin int

	// MinRevisionPrefix is the shortest abbreviated SHA that may match by
	// prefix. Shorter values only match on full equality.
	MinRevisionPrefix int

	// CandidateTarget gates the time-window fallback: it only runs while
	// fewer candidates than this have been found.
	CandidateTarget int

	// WindowBefore and WindowAfter bound the time-window search around the
	// blamed commit's timestamp.
	WindowBefore time.Duration
	WindowAfter  time.Duration

	// MaxSummaryLen truncates conversation summaries attached to results.
	MaxSummaryLen int
}

// DefaultConfig returns the canonical weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			CommitLink:       40,
			ContentHash:      30,
			RevisionParent:   15,
			RevisionAncestor: 8,
			RangeMatch:       10,
			RangeOverlap:     5,
			TimestampMatch:   5,
		},
		Thresholds: Thresholds{
			Tier1: 95,
			Tier2: 80,
			Tier3: 60,
			Tier4: 45,
			Tier5: 25,
		},
		OverlapMargin:     5,
		MinRevisionPrefix: MinRevisionPrefix,
		CandidateTarget:   5,
		WindowBefore:      24 * time.Hour,
		WindowAfter:       time.Hour,
		MaxSummaryLen:     200,
	}
}
