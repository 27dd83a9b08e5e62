package attribution

import "github.com/papercomputeco/rewind/pkg/agenttrace"

// span is an inclusive 1-based line range.
type span struct {
	start, end int
}

func (s span) contains(line int) bool {
	return s.start <= line && line <= s.end
}

func (s span) size() int {
	return s.end - s.start
}

// distance is how far line sits from the nearest boundary.
func (s span) distance(line int) int {
	return min(abs(line-s.start), abs(line-s.end))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// entryLevel orders covering-entry precedence: file entries first, then
// conversations (including their nested ranges), then changes.
type entryLevel int

const (
	levelFile entryLevel = iota
	levelConversation
	levelChange
)

// coverEntry is one range- or hash-bearing entry collected from a trace
// file. A nil span means the entry recorded no line range and therefore
// covers every line of the file.
type coverEntry struct {
	level entryLevel
	span  *span
	hash  string
}

// collectEntries flattens a trace file entry into coverEntries, in level
// precedence order. Entries carrying neither a span nor a hash are skipped.
func collectEntries(f *agenttrace.File) []coverEntry {
	var entries []coverEntry
	add := func(level entryLevel, sp *span, hash string) {
		if sp == nil && hash == "" {
			return
		}
		entries = append(entries, coverEntry{level: level, span: sp, hash: hash})
	}

	add(levelFile, spanOf(f.StartLine, f.EndLine), f.ContentHash)
	for i := range f.Conversations {
		conv := &f.Conversations[i]
		add(levelConversation, spanOf(conv.StartLine, conv.EndLine), conv.ContentHash)
		for _, r := range conv.Ranges {
			rs := span{start: r.StartLine, end: r.EndLine}
			add(levelConversation, &rs, r.ContentHash)
		}
	}
	for i := range f.Changes {
		ch := &f.Changes[i]
		add(levelChange, spanOf(ch.StartLine, ch.EndLine), ch.ContentHash)
	}
	return entries
}

func spanOf(start, end *int) *span {
	if start == nil || end == nil {
		return nil
	}
	return &span{start: *start, end: *end}
}

// bestSpanned resolves the best range-bearing entry for a line: a
// containing span beats a non-containing one, a smaller span beats a
// larger, and collection order (level precedence) breaks remaining ties.
func bestSpanned(entries []coverEntry, line int) *span {
	var best *span
	for _, en := range entries {
		if en.span == nil {
			continue
		}
		if best == nil || betterSpan(*en.span, *best, line) {
			best = en.span
		}
	}
	return best
}

func betterSpan(a, b span, line int) bool {
	ac, bc := a.contains(line), b.contains(line)
	if ac != bc {
		return ac
	}
	if ac {
		return a.size() < b.size()
	}
	return a.distance(line) < b.distance(line)
}

// rangeSignal evaluates range evidence for a line against the best spanned
// entry: containment is a range match, proximity within margin is an
// overlap. The two never fire together.
func rangeSignal(entries []coverEntry, line, margin int) (Signal, bool) {
	best := bestSpanned(entries, line)
	if best == nil {
		return "", false
	}
	if best.contains(line) {
		return SignalRangeMatch, true
	}
	if best.distance(line) <= margin {
		return SignalRangeOverlap, true
	}
	return "", false
}

// coveringHash returns the hash recorded on the best covering hash-bearing
// entry, or "" when no covering entry carries one. Entries without a span
// cover every line but lose to any spanned covering entry.
func coveringHash(entries []coverEntry, line int) string {
	var best *coverEntry
	for i := range entries {
		en := &entries[i]
		if en.hash == "" {
			continue
		}
		if en.span != nil && !en.span.contains(line) {
			continue
		}
		if best == nil || tighterCover(en, best) {
			best = en
		}
	}
	if best == nil {
		return ""
	}
	return best.hash
}

func tighterCover(a, b *coverEntry) bool {
	if (a.span == nil) != (b.span == nil) {
		return a.span != nil
	}
	if a.span == nil {
		return false
	}
	return a.span.size() < b.span.size()
}
