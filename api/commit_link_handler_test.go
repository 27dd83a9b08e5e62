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
	"github.com/papercomputeco/rewind/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/rewind/pkg/utils/test"
)

var _ = Describe("Commit Link Handlers", func() {
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

	Describe("POST /api/v1/commit-links", func() {
		It("stores the link and returns 201", func() {
			req := jsonRequest(http.MethodPost, "/api/v1/commit-links", token, map[string]any{
				"project_id":   "proj-1",
				"commit_sha":   commitSHA,
				"parent_sha":   parentSHA,
				"trace_ids":    []string{"tr-1", "tr-2"},
				"committed_at": "2025-06-01T12:30:00Z",
			})

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var result struct {
				OK        bool   `json:"ok"`
				CommitSHA string `json:"commit_sha"`
			}
			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(respBody, &result)).To(Succeed())
			Expect(result.OK).To(BeTrue())
			Expect(result.CommitSHA).To(Equal(commitSHA))

			link, err := driver.GetCommitLink(ctx, "proj-1", commitSHA)
			Expect(err).NotTo(HaveOccurred())
			Expect(link).NotTo(BeNil())
			Expect(link.ParentSHA).To(Equal(parentSHA))
			Expect(link.TraceIDs).To(Equal([]string{"tr-1", "tr-2"}))
		})

		It("stores an attached ledger", func() {
			ledger := testutils.NewTestLedger("src/app.go",
				testutils.AIEntry(1, 12, "tr-1"),
				testutils.HumanEntry(13, 40),
			)
			req := jsonRequest(http.MethodPost, "/api/v1/commit-links", token, map[string]any{
				"project_id": "proj-1",
				"commit_sha": commitSHA,
				"trace_ids":  []string{"tr-1"},
				"ledger":     ledger,
			})

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			stored, err := driver.GetLedger(ctx, "proj-1", commitSHA)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.Files["src/app.go"]).To(HaveLen(2))
		})

		It("returns 400 when commit_sha is missing", func() {
			req := jsonRequest(http.MethodPost, "/api/v1/commit-links", token, map[string]any{
				"project_id": "proj-1",
				"trace_ids":  []string{"tr-1"},
			})

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(respBody)).To(ContainSubstring("commit_sha is required"))
		})

		It("returns 400 when trace_ids is empty", func() {
			req := jsonRequest(http.MethodPost, "/api/v1/commit-links", token, map[string]any{
				"project_id": "proj-1",
				"commit_sha": commitSHA,
				"trace_ids":  []string{},
			})

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(respBody)).To(ContainSubstring("trace_ids must be a non-empty list"))
		})
	})

	Describe("GET /api/v1/commit-links/:commitSHA", func() {
		It("returns the link with trace summaries", func() {
			trace := testutils.NewTestTrace("tr-1", parentSHA, "src/app.go")
			Expect(driver.CreateTrace(ctx, "proj-1", "user-1", trace)).To(Succeed())
			link := testutils.NewTestCommitLink(commitSHA, parentSHA, "tr-1", "tr-ghost")
			Expect(driver.CreateCommitLink(ctx, "proj-1", link)).To(Succeed())

			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA+"?project_id=proj-1", token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result struct {
				CommitSHA      string `json:"commit_sha"`
				ParentSHA      string `json:"parent_sha"`
				TraceSummaries []struct {
					TraceID   string           `json:"trace_id"`
					Found     *bool            `json:"found"`
					Timestamp string           `json:"timestamp"`
					Tool      *agenttrace.Tool `json:"tool"`
					ModelID   string           `json:"model_id"`
				} `json:"trace_summaries"`
			}
			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(respBody, &result)).To(Succeed())
			Expect(result.CommitSHA).To(Equal(commitSHA))
			Expect(result.TraceSummaries).To(HaveLen(2))

			Expect(result.TraceSummaries[0].TraceID).To(Equal("tr-1"))
			Expect(result.TraceSummaries[0].Found).To(BeNil())
			Expect(result.TraceSummaries[0].Timestamp).To(Equal(trace.Timestamp))
			Expect(result.TraceSummaries[0].Tool.Name).To(Equal("copilot"))
			Expect(result.TraceSummaries[0].ModelID).To(Equal("gpt-5"))

			Expect(result.TraceSummaries[1].TraceID).To(Equal("tr-ghost"))
			Expect(result.TraceSummaries[1].Found).NotTo(BeNil())
			Expect(*result.TraceSummaries[1].Found).To(BeFalse())
		})

		It("returns 404 for an unknown commit", func() {
			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA+"?project_id=proj-1", token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(respBody)).To(ContainSubstring("Commit link not found"))
		})

		It("returns 400 when project_id is missing", func() {
			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA, token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /api/v1/commit-links/:commitSHA/ledger", func() {
		It("returns the stored ledger keyed by file", func() {
			link := testutils.NewTestCommitLink(commitSHA, parentSHA, "tr-1")
			link.Ledger = testutils.NewTestLedger("src/app.go",
				testutils.AIEntry(1, 12, "tr-1"),
				testutils.HumanEntry(13, 40),
			)
			Expect(driver.CreateCommitLink(ctx, "proj-1", link)).To(Succeed())

			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA+"/ledger?project_id=proj-1", token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result ledgerResponse
			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(respBody, &result)).To(Succeed())
			Expect(result.CommitSHA).To(Equal(commitSHA))
			Expect(result.ParentSHA).To(Equal(parentSHA))
			Expect(result.TraceIDs).To(Equal([]string{"tr-1"}))
			Expect(result.Files["src/app.go"]).To(HaveLen(2))
			Expect(result.Files["src/app.go"][0].Type).To(Equal(agenttrace.ContributorAI))
		})

		It("returns 404 when the link has no ledger", func() {
			link := testutils.NewTestCommitLink(commitSHA, parentSHA, "tr-1")
			Expect(driver.CreateCommitLink(ctx, "proj-1", link)).To(Succeed())

			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA+"/ledger?project_id=proj-1", token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(respBody)).To(ContainSubstring("Ledger not found"))
		})

		It("returns 404 when the link does not exist", func() {
			req := jsonRequest(http.MethodGet, "/api/v1/commit-links/"+commitSHA+"/ledger?project_id=proj-1", token, nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})
