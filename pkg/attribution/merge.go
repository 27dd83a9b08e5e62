package attribution

// Merge coalesces adjacent results that attribute to the same trace at the
// same tier, including runs of no-attribution results. Input must be
// ordered by start line. Two results merge iff the next starts exactly one
// line after the previous ends; the merged range keeps the first result's
// metadata. Merge preserves order, never changes total line coverage, and
// is idempotent.
func Merge(results []Result) []Result {
	merged := make([]Result, 0, len(results))
	for _, r := range results {
		if len(merged) > 0 {
			prev := &merged[len(merged)-1]
			if prev.EndLine+1 == r.StartLine && prev.TraceID == r.TraceID && prev.Tier == r.Tier {
				prev.EndLine = r.EndLine
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}
