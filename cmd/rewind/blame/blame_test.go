package blamecmder

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/attribution"
	"github.com/papercomputeco/rewind/pkg/git"
)

var _ = Describe("Blame Command", func() {
	Describe("NewBlameCmd", func() {
		It("creates a command with expected properties", func() {
			cmd := NewBlameCmd()
			Expect(cmd.Use).To(Equal("blame <file>"))
			Expect(cmd.Short).NotTo(BeEmpty())
		})

		It("requires exactly one file argument", func() {
			cmd := NewBlameCmd()
			Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
			Expect(cmd.Args(cmd, []string{"a.go"})).To(Succeed())
			Expect(cmd.Args(cmd, []string{"a.go", "b.go"})).To(HaveOccurred())
		})

		It("has project, json, and sqlite flags", func() {
			cmd := NewBlameCmd()
			for _, name := range []string{"project", "json", "sqlite"} {
				Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %q", name)
			}
		})
	})

	Describe("buildRequest", func() {
		commitSHA := strings.Repeat("a", 40)
		parentSHA := strings.Repeat("b", 40)

		It("carries segment metadata through to the request", func() {
			segments := []git.Segment{
				{
					StartLine: 1,
					EndLine:   2,
					CommitSHA: commitSHA,
					ParentSHA: parentSHA,
					Timestamp: "2025-06-01T12:00:00Z",
					Lines:     []string{"package main", ""},
				},
				{
					StartLine: 3,
					EndLine:   3,
					CommitSHA: parentSHA,
					Lines:     []string{"func main() {}"},
				},
			}

			req := buildRequest("proj-1", "cmd/main.go", segments)

			Expect(req.ProjectID).To(Equal("proj-1"))
			Expect(req.FilePath).To(Equal("cmd/main.go"))
			Expect(req.Segments).To(HaveLen(2))

			Expect(req.Segments[0].StartLine).To(Equal(1))
			Expect(req.Segments[0].EndLine).To(Equal(2))
			Expect(req.Segments[0].CommitSHA).To(Equal(commitSHA))
			Expect(req.Segments[0].ParentSHA).To(Equal(parentSHA))
			Expect(req.Segments[0].Timestamp).To(Equal("2025-06-01T12:00:00Z"))
			Expect(req.Segments[1].ParentSHA).To(BeEmpty())
		})

		It("hashes segment content the way the engine does", func() {
			lines := []string{"package main", "func main() {}"}
			segments := []git.Segment{
				{StartLine: 1, EndLine: 2, CommitSHA: commitSHA, Lines: lines},
			}

			req := buildRequest("proj-1", "cmd/main.go", segments)

			Expect(req.Segments[0].ContentHash).To(Equal(attribution.HashLines(lines)))
		})

		It("builds a request that passes validation", func() {
			segments := []git.Segment{
				{StartLine: 1, EndLine: 5, CommitSHA: commitSHA, Lines: []string{"x"}},
			}

			req := buildRequest("proj-1", "cmd/main.go", segments)

			Expect(req.Validate()).To(Succeed())
		})
	})

	Describe("renderText", func() {
		It("renders attributed and unattributed ranges", func() {
			result := &attribution.FileResult{
				FilePath: "cmd/main.go",
				Attributions: []attribution.Result{
					{
						StartLine:           1,
						EndLine:             10,
						Tier:                attribution.Tier(1),
						Confidence:          attribution.Tier(1).Confidence(),
						TraceID:             "tr-1",
						ModelID:             "gpt-5",
						ConversationSummary: "add the main entrypoint",
					},
					{
						StartLine: 11,
						EndLine:   20,
					},
				},
			}

			out := &bytes.Buffer{}
			renderText(out, "proj-1", result)

			text := out.String()
			Expect(text).To(ContainSubstring("cmd/main.go"))
			Expect(text).To(ContainSubstring("proj-1"))
			Expect(text).To(ContainSubstring("T1"))
			Expect(text).To(ContainSubstring("tr-1"))
			Expect(text).To(ContainSubstring("gpt-5"))
			Expect(text).To(ContainSubstring("add the main entrypoint"))
			Expect(text).To(ContainSubstring("unattributed"))
		})
	})
})
