package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/attribution"
	"github.com/papercomputeco/rewind/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/rewind/pkg/utils/test"
)

var _ = Describe("Blame Handler", func() {
	var (
		server *Server
		driver *inmemory.Driver
		token  string
		ctx    context.Context
	)

	commitSHA := strings.Repeat("c", 40)
	parentSHA := strings.Repeat("b", 40)

	BeforeEach(func() {
		server, driver = newTestServer()
		token = testToken("user-1")
		ctx = context.Background()
	})

	blame := func(payload any) (*http.Response, []byte) {
		req := jsonRequest(http.MethodPost, "/api/v1/blame", token, payload)
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		respBody, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, respBody
	}

	It("attributes ledgered segments and merges adjacent ranges", func() {
		link := testutils.NewTestCommitLink(commitSHA, parentSHA, "tr-1")
		link.Ledger = testutils.NewTestLedger("src/app.go", testutils.AIEntry(1, 20, "tr-1"))
		Expect(driver.CreateCommitLink(ctx, "proj-1", link)).To(Succeed())

		_, err := driver.UpsertConversationContents(ctx, "proj-1", []agenttrace.ConversationContent{
			{URL: "https://chat.example.com/s/tr-1", Content: "implement the app"},
		})
		Expect(err).NotTo(HaveOccurred())

		resp, respBody := blame(attribution.FileRequest{
			ProjectID: "proj-1",
			FilePath:  "src/app.go",
			Segments: []attribution.BlameSegment{
				{StartLine: 1, EndLine: 10, CommitSHA: commitSHA, ParentSHA: parentSHA},
				{StartLine: 11, EndLine: 20, CommitSHA: commitSHA, ParentSHA: parentSHA},
			},
		})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var result attribution.FileResult
		Expect(json.Unmarshal(respBody, &result)).To(Succeed())
		Expect(result.FilePath).To(Equal("src/app.go"))
		Expect(result.Attributions).To(HaveLen(1))
		Expect(result.Attributions[0].StartLine).To(Equal(1))
		Expect(result.Attributions[0].EndLine).To(Equal(20))
		Expect(result.Attributions[0].Tier).To(Equal(attribution.Tier(1)))
		Expect(result.Attributions[0].TraceID).To(Equal("tr-1"))
		Expect(result.Attributions[0].ConversationSummary).To(Equal("implement the app"))
	})

	It("returns a null tier for segments nothing can explain", func() {
		resp, respBody := blame(attribution.FileRequest{
			ProjectID: "proj-1",
			FilePath:  "src/app.go",
			Segments: []attribution.BlameSegment{
				{StartLine: 5, EndLine: 9, CommitSHA: commitSHA},
			},
		})
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(string(respBody)).To(ContainSubstring(`"tier":null`))

		var result attribution.FileResult
		Expect(json.Unmarshal(respBody, &result)).To(Succeed())
		Expect(result.Attributions).To(HaveLen(1))
		Expect(result.Attributions[0].Tier).To(Equal(attribution.TierNone))
		Expect(result.Attributions[0].TraceID).To(BeEmpty())
	})

	It("returns 400 for an invalid request", func() {
		resp, respBody := blame(attribution.FileRequest{FilePath: "src/app.go"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		Expect(string(respBody)).To(ContainSubstring("project_id is required"))
	})

	It("returns 400 for a malformed body", func() {
		req, err := http.NewRequest(http.MethodPost, "/api/v1/blame", strings.NewReader("not json"))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})
})
