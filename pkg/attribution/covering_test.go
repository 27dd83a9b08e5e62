package attribution

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

func lines(start, end int) (*int, *int) {
	s, e := start, end
	return &s, &e
}

var _ = Describe("Covering entry resolution", func() {
	Describe("rangeSignal", func() {
		margin := DefaultConfig().OverlapMargin

		It("fires range_match when the best range contains the line", func() {
			f := &agenttrace.File{Path: "main.go"}
			f.StartLine, f.EndLine = lines(10, 25)
			sig, ok := rangeSignal(collectEntries(f), 17, margin)
			Expect(ok).To(BeTrue())
			Expect(sig).To(Equal(SignalRangeMatch))
		})

		It("fires range_overlap within the margin of the best range", func() {
			f := &agenttrace.File{Path: "main.go"}
			f.StartLine, f.EndLine = lines(10, 25)
			sig, ok := rangeSignal(collectEntries(f), 28, margin)
			Expect(ok).To(BeTrue())
			Expect(sig).To(Equal(SignalRangeOverlap))
		})

		It("fires nothing beyond the margin", func() {
			f := &agenttrace.File{Path: "main.go"}
			f.StartLine, f.EndLine = lines(10, 25)
			_, ok := rangeSignal(collectEntries(f), 31, margin)
			Expect(ok).To(BeFalse())
		})

		It("prefers a containing range over a nearer non-containing one", func() {
			f := &agenttrace.File{
				Path: "main.go",
				Conversations: []agenttrace.Conversation{
					{Ranges: []agenttrace.Range{
						{StartLine: 1, EndLine: 50},
						{StartLine: 52, EndLine: 60},
					}},
				},
			}
			// Line 49 is inside 1-50 and only 3 lines from 52-60.
			sig, ok := rangeSignal(collectEntries(f), 49, margin)
			Expect(ok).To(BeTrue())
			Expect(sig).To(Equal(SignalRangeMatch))
		})

		It("fires nothing when no entry records a range", func() {
			f := &agenttrace.File{Path: "main.go", ContentHash: "sha256:abcd1234"}
			_, ok := rangeSignal(collectEntries(f), 5, margin)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("coveringHash", func() {
		It("prefers a spanned covering entry over a span-less file hash", func() {
			f := &agenttrace.File{
				Path:        "main.go",
				ContentHash: "sha256:aaaaaaaaaaaaaaaa",
				Conversations: []agenttrace.Conversation{
					{Ranges: []agenttrace.Range{
						{StartLine: 10, EndLine: 20, ContentHash: "sha256:bbbbbbbbbbbbbbbb"},
					}},
				},
			}
			Expect(coveringHash(collectEntries(f), 15)).To(Equal("sha256:bbbbbbbbbbbbbbbb"))
		})

		It("falls back to the file hash when no spanned entry covers the line", func() {
			f := &agenttrace.File{
				Path:        "main.go",
				ContentHash: "sha256:aaaaaaaaaaaaaaaa",
				Conversations: []agenttrace.Conversation{
					{Ranges: []agenttrace.Range{
						{StartLine: 10, EndLine: 20, ContentHash: "sha256:bbbbbbbbbbbbbbbb"},
					}},
				},
			}
			Expect(coveringHash(collectEntries(f), 40)).To(Equal("sha256:aaaaaaaaaaaaaaaa"))
		})

		It("prefers the tightest covering span", func() {
			f := &agenttrace.File{
				Path: "main.go",
				Conversations: []agenttrace.Conversation{
					{Ranges: []agenttrace.Range{
						{StartLine: 1, EndLine: 100, ContentHash: "sha256:cccccccccccccccc"},
						{StartLine: 10, EndLine: 20, ContentHash: "sha256:dddddddddddddddd"},
					}},
				},
			}
			Expect(coveringHash(collectEntries(f), 15)).To(Equal("sha256:dddddddddddddddd"))
		})

		It("prefers the file entry over a change at equal coverage", func() {
			f := &agenttrace.File{
				Path:        "main.go",
				ContentHash: "sha256:eeeeeeeeeeeeeeee",
				Changes: []agenttrace.Change{
					{ContentHash: "sha256:ffffffffffffffff"},
				},
			}
			Expect(coveringHash(collectEntries(f), 7)).To(Equal("sha256:eeeeeeeeeeeeeeee"))
		})

		It("returns empty when no covering entry carries a hash", func() {
			f := &agenttrace.File{Path: "main.go"}
			f.StartLine, f.EndLine = lines(1, 5)
			Expect(coveringHash(collectEntries(f), 3)).To(Equal(""))
		})
	})
})

var _ = Describe("File path matching", func() {
	It("matches exact paths", func() {
		files := []agenttrace.File{{Path: "src/app.ts"}}
		Expect(matchingFile(files, "src/app.ts")).NotTo(BeNil())
	})

	It("matches a relative trace path against a deeper blamed path", func() {
		files := []agenttrace.File{{Path: "vite.config.js"}}
		Expect(matchingFile(files, "frontend/vite.config.js")).NotTo(BeNil())
	})

	It("matches a deeper trace path against a relative blamed path", func() {
		files := []agenttrace.File{{Path: "frontend/vite.config.js"}}
		Expect(matchingFile(files, "vite.config.js")).NotTo(BeNil())
	})

	It("requires whole path segments, not raw substrings", func() {
		files := []agenttrace.File{{Path: "my-vite.config.js"}}
		Expect(matchingFile(files, "vite.config.js")).To(BeNil())

		files = []agenttrace.File{{Path: "vite.config.js"}}
		Expect(matchingFile(files, "my-vite.config.js")).To(BeNil())
	})

	It("ignores entries with empty paths", func() {
		files := []agenttrace.File{{Path: ""}, {Path: "main.go"}}
		Expect(matchingFile(files, "main.go")).To(Equal(&files[1]))
	})
})

var _ = Describe("Revision matching", func() {
	minPrefix := DefaultConfig().MinRevisionPrefix

	It("matches identical revisions", func() {
		Expect(RevisionMatches("abc1234def", "abc1234def", minPrefix)).To(BeTrue())
	})

	It("matches an abbreviated SHA of at least seven characters", func() {
		Expect(RevisionMatches("abc1234", "abc1234def5678", minPrefix)).To(BeTrue())
		Expect(RevisionMatches("abc1234def5678", "abc1234", minPrefix)).To(BeTrue())
	})

	It("rejects prefixes shorter than seven characters", func() {
		Expect(RevisionMatches("abc123", "abc123def", minPrefix)).To(BeFalse())
	})

	It("still matches full equality below the prefix floor", func() {
		Expect(RevisionMatches("abc123", "abc123", minPrefix)).To(BeTrue())
	})

	It("rejects empty sides", func() {
		Expect(RevisionMatches("", "abc1234", minPrefix)).To(BeFalse())
		Expect(RevisionMatches("abc1234", "", minPrefix)).To(BeFalse())
	})
})
