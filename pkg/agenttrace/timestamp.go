package agenttrace

import "time"

// timestampLayouts covers RFC 3339 with and without zone or fraction,
// which is what producing tools actually emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a trace or blame timestamp. The boolean reports
// whether any accepted layout matched.
func ParseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
