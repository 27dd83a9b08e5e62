package postgres_test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/storage"
	"github.com/papercomputeco/rewind/pkg/storage/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("REWIND_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("REWIND_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

// pgTestTrace creates a minimal trace for testing with the given identity,
// VCS revision, and timestamp.
func pgTestTrace(id, revision, timestamp string) *agenttrace.AgentTrace {
	trace := &agenttrace.AgentTrace{
		Version:   "1.0",
		ID:        id,
		Timestamp: timestamp,
		Files:     []agenttrace.File{{Path: "main.go"}},
	}
	if revision != "" {
		trace.VCS = &agenttrace.VCS{Type: "git", Revision: revision}
	}
	return trace
}

var _ = Describe("Driver", func() {
	const projectID = "proj-1"

	var (
		driver *postgres.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		driver, err = postgres.Connect(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		// Rebuild the schema before each test for isolation.
		Expect(driver.Drop(ctx)).To(Succeed())
		Expect(driver.Migrate(ctx)).To(Succeed())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("connects and migrates with a valid connection string", func() {
			dsn := connStr()
			d, err := postgres.NewDriver(context.Background(), dsn)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			Expect(d.Ping(context.Background())).To(Succeed())
		})

		It("returns an error for an invalid connection string", func() {
			_, err := postgres.NewDriver(context.Background(), "host=invalid port=9999 user=bad dbname=bad sslmode=disable connect_timeout=1")
			Expect(err).To(HaveOccurred())
			fmt.Fprintf(GinkgoWriter, "expected error: %v\n", err)
		})
	})

	Describe("Migrate and Status", func() {
		It("reports all tables with zero rows after a fresh migrate", func() {
			statuses, err := driver.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(statuses).To(HaveLen(4))
			for _, status := range statuses {
				Expect(status.Exists).To(BeTrue(), status.Name)
				Expect(status.Rows).To(BeZero(), status.Name)
			}
		})

		It("is idempotent", func() {
			Expect(driver.Migrate(ctx)).To(Succeed())
			Expect(driver.Migrate(ctx)).To(Succeed())

			statuses, err := driver.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(statuses).To(HaveLen(4))
		})

		It("reports missing tables after a drop", func() {
			Expect(driver.Drop(ctx)).To(Succeed())

			statuses, err := driver.Status(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, status := range statuses {
				Expect(status.Exists).To(BeFalse(), status.Name)
			}
		})
	})

	Describe("CreateTrace and GetTrace", func() {
		It("stores and retrieves a trace", func() {
			trace := pgTestTrace("t1", "deadbeef123", "2026-03-01T10:00:00Z")
			Expect(driver.CreateTrace(ctx, projectID, "user-1", trace)).To(Succeed())

			stored, err := driver.GetTrace(ctx, projectID, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Trace).To(Equal(trace))
			Expect(stored.ProjectID).To(Equal(projectID))
			Expect(stored.UserID).To(Equal("user-1"))
			Expect(stored.CreatedAt).NotTo(BeZero())
		})

		It("creates the project row on demand", func() {
			trace := pgTestTrace("t1", "", "2026-03-01T10:00:00Z")
			Expect(driver.CreateTrace(ctx, projectID, "", trace)).To(Succeed())

			project, err := driver.GetProject(ctx, projectID)
			Expect(err).NotTo(HaveOccurred())
			Expect(project.ID).To(Equal(projectID))
		})

		It("returns NotFoundError for a missing trace", func() {
			_, err := driver.GetTrace(ctx, projectID, "nope")
			Expect(err).To(HaveOccurred())

			var notFoundErr storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("replaces the payload on duplicate IDs without duplicating", func() {
			first := pgTestTrace("t1", "deadbeef123", "2026-03-01T10:00:00Z")
			Expect(driver.CreateTrace(ctx, projectID, "user-1", first)).To(Succeed())

			before, err := driver.GetTrace(ctx, projectID, "t1")
			Expect(err).NotTo(HaveOccurred())

			second := pgTestTrace("t1", "0ddba11c0de", "2026-03-02T10:00:00Z")
			Expect(driver.CreateTrace(ctx, projectID, "user-2", second)).To(Succeed())

			after, err := driver.GetTrace(ctx, projectID, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Trace).To(Equal(second))
			Expect(after.UserID).To(Equal("user-2"))
			Expect(after.CreatedAt).To(BeTemporally("~", before.CreatedAt, time.Second))

			_, total, err := driver.QueryTraces(ctx, projectID, storage.TraceQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
		})

		It("rejects nil traces and traces without an ID", func() {
			Expect(driver.CreateTrace(ctx, projectID, "", nil)).NotTo(Succeed())
			Expect(driver.CreateTrace(ctx, projectID, "", &agenttrace.AgentTrace{})).NotTo(Succeed())
		})
	})

	Describe("QueryTraces", func() {
		BeforeEach(func() {
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t1", "", "2026-03-01T10:00:00Z"))).To(Succeed())
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t2", "", "2026-03-03T10:00:00Z"))).To(Succeed())
			Expect(driver.CreateTrace(ctx, projectID, "u2", pgTestTrace("t3", "", "2026-03-02T10:00:00Z"))).To(Succeed())
		})

		It("orders newest first by the trace's own timestamp", func() {
			items, total, err := driver.QueryTraces(ctx, projectID, storage.TraceQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))

			ids := []string{items[0].Trace.ID, items[1].Trace.ID, items[2].Trace.ID}
			Expect(ids).To(Equal([]string{"t2", "t3", "t1"}))
		})

		It("filters by since and until", func() {
			since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
			until := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)

			items, total, err := driver.QueryTraces(ctx, projectID, storage.TraceQuery{Since: &since, Until: &until})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
			Expect(items).To(HaveLen(1))
			Expect(items[0].Trace.ID).To(Equal("t3"))
		})

		It("paginates while reporting the full total", func() {
			items, total, err := driver.QueryTraces(ctx, projectID, storage.TraceQuery{Limit: 1, Offset: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
			Expect(items).To(HaveLen(1))
			Expect(items[0].Trace.ID).To(Equal("t3"))
		})

		It("returns an empty page for an unknown project", func() {
			items, total, err := driver.QueryTraces(ctx, "ghost", storage.TraceQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
			Expect(items).To(BeEmpty())
		})
	})

	Describe("projects", func() {
		It("upserts and retrieves a project", func() {
			project, err := driver.UpsertProject(ctx, &storage.Project{ID: projectID, Name: "Rewind", Description: "traces"})
			Expect(err).NotTo(HaveOccurred())
			Expect(project.Name).To(Equal("Rewind"))
			Expect(project.CreatedAt).NotTo(BeZero())

			fetched, err := driver.GetProject(ctx, projectID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.Name).To(Equal("Rewind"))
			Expect(fetched.Description).To(Equal("traces"))
		})

		It("keeps stored fields when updating with empty values", func() {
			_, err := driver.UpsertProject(ctx, &storage.Project{ID: projectID, Name: "Rewind", Description: "traces"})
			Expect(err).NotTo(HaveOccurred())

			updated, err := driver.UpsertProject(ctx, &storage.Project{ID: projectID, Description: "agent traces"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Rewind"))
			Expect(updated.Description).To(Equal("agent traces"))
		})

		It("returns NotFoundError for a missing project", func() {
			_, err := driver.GetProject(ctx, "ghost")
			Expect(err).To(HaveOccurred())

			var notFoundErr storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))

			_, err = driver.ProjectStats(ctx, "ghost")
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("aggregates stats across stored records", func() {
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t1", "", "2026-03-01T10:00:00Z"))).To(Succeed())
			Expect(driver.CreateCommitLink(ctx, projectID, &agenttrace.CommitLink{CommitSHA: "c1", TraceIDs: []string{"t1"}})).To(Succeed())

			written, err := driver.UpsertConversationContents(ctx, projectID, []agenttrace.ConversationContent{
				{URL: "https://chat.example.com/c/1", Content: "hello"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal(1))

			stats, err := driver.ProjectStats(ctx, projectID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TraceCount).To(Equal(1))
			Expect(stats.CommitLinkCount).To(Equal(1))
			Expect(stats.ConversationCount).To(Equal(1))
			Expect(stats.LastIngestAt).NotTo(BeNil())
		})
	})

	Describe("conversation contents", func() {
		It("writes contents and skips entries without a URL", func() {
			written, err := driver.UpsertConversationContents(ctx, projectID, []agenttrace.ConversationContent{
				{URL: "https://chat.example.com/c/1", Content: "first"},
				{URL: "", Content: "orphan"},
				{URL: "https://chat.example.com/c/2", Content: "second"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal(2))

			content, err := driver.GetConversationContent(ctx, projectID, "https://chat.example.com/c/2")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("second"))
		})

		It("overwrites content for an existing URL", func() {
			url := "https://chat.example.com/c/1"
			_, err := driver.UpsertConversationContents(ctx, projectID, []agenttrace.ConversationContent{{URL: url, Content: "v1"}})
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.UpsertConversationContents(ctx, projectID, []agenttrace.ConversationContent{{URL: url, Content: "v2"}})
			Expect(err).NotTo(HaveOccurred())

			content, err := driver.GetConversationContent(ctx, projectID, url)
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("v2"))
		})

		It("returns empty content for an unknown URL", func() {
			content, err := driver.GetConversationContent(ctx, projectID, "https://chat.example.com/c/404")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(BeEmpty())
		})
	})

	Describe("commit links", func() {
		It("stores and retrieves a link with its ledger", func() {
			link := &agenttrace.CommitLink{
				CommitSHA:    "c0ffee1234567",
				ParentSHA:    "deadbeef12345",
				TraceIDs:     []string{"t1", "t2"},
				FilesChanged: []string{"main.go"},
				CommittedAt:  "2026-03-01T10:00:00Z",
				Ledger: &agenttrace.Ledger{
					SchemaVersion: 1,
					Files: map[string][]agenttrace.LineAttribution{
						"main.go": {{StartLine: 1, EndLine: 10, Type: agenttrace.ContributorAI, TraceID: "t1"}},
					},
				},
			}
			Expect(driver.CreateCommitLink(ctx, projectID, link)).To(Succeed())

			fetched, err := driver.GetCommitLink(ctx, projectID, "c0ffee1234567")
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.ParentSHA).To(Equal("deadbeef12345"))
			Expect(fetched.TraceIDs).To(Equal([]string{"t1", "t2"}))
			Expect(fetched.FilesChanged).To(Equal([]string{"main.go"}))
			Expect(fetched.CommittedAt).To(Equal("2026-03-01T10:00:00Z"))
			Expect(fetched.Ledger).To(Equal(link.Ledger))
			Expect(fetched.CreatedAt).NotTo(BeEmpty())
		})

		It("fully replaces an existing link", func() {
			withLedger := &agenttrace.CommitLink{
				CommitSHA: "c1",
				TraceIDs:  []string{"t1"},
				Ledger:    &agenttrace.Ledger{Files: map[string][]agenttrace.LineAttribution{}},
			}
			Expect(driver.CreateCommitLink(ctx, projectID, withLedger)).To(Succeed())

			replacement := &agenttrace.CommitLink{CommitSHA: "c1", TraceIDs: []string{"t2"}}
			Expect(driver.CreateCommitLink(ctx, projectID, replacement)).To(Succeed())

			fetched, err := driver.GetCommitLink(ctx, projectID, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.TraceIDs).To(Equal([]string{"t2"}))
			Expect(fetched.Ledger).To(BeNil())
		})

		It("returns nil for an absent link without an error", func() {
			link, err := driver.GetCommitLink(ctx, projectID, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(link).To(BeNil())

			ledger, err := driver.GetLedger(ctx, projectID, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(ledger).To(BeNil())
		})

		It("finds links by parent SHA", func() {
			Expect(driver.CreateCommitLink(ctx, projectID, &agenttrace.CommitLink{CommitSHA: "c1", ParentSHA: "p1"})).To(Succeed())
			Expect(driver.CreateCommitLink(ctx, projectID, &agenttrace.CommitLink{CommitSHA: "c2", ParentSHA: "p1"})).To(Succeed())
			Expect(driver.CreateCommitLink(ctx, projectID, &agenttrace.CommitLink{CommitSHA: "c3", ParentSHA: "p2"})).To(Succeed())

			links, err := driver.GetCommitLinksByParent(ctx, projectID, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(2))
			for _, link := range links {
				Expect(link.ParentSHA).To(Equal("p1"))
			}
		})
	})

	Describe("attribution queries", func() {
		BeforeEach(func() {
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t1", "deadbeef1234567", "2026-03-01T10:00:00Z"))).To(Succeed())
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t2", "deadbeef1234567", "not-a-timestamp"))).To(Succeed())
			Expect(driver.CreateTrace(ctx, projectID, "u1", pgTestTrace("t3", "aabbccd998877", "2026-03-05T10:00:00Z"))).To(Succeed())
		})

		It("returns traces by IDs in requested order, skipping missing ones", func() {
			traces, err := driver.FindTracesByIDs(ctx, projectID, []string{"t3", "ghost", "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(traces).To(HaveLen(2))
			Expect(traces[0].ID).To(Equal("t3"))
			Expect(traces[1].ID).To(Equal("t1"))
		})

		It("matches abbreviated revisions in creation order", func() {
			traces, err := driver.FindTracesByRevision(ctx, projectID, "deadbee")
			Expect(err).NotTo(HaveOccurred())
			Expect(traces).To(HaveLen(2))
			Expect(traces[0].ID).To(Equal("t1"))
			Expect(traces[1].ID).To(Equal("t2"))
		})

		It("rejects revision prefixes below the floor", func() {
			traces, err := driver.FindTracesByRevision(ctx, projectID, "dead")
			Expect(err).NotTo(HaveOccurred())
			Expect(traces).To(BeEmpty())
		})

		It("bounds the time window and excludes unparseable timestamps", func() {
			since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			until := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

			traces, err := driver.FindTracesInTimeWindow(ctx, projectID, since, until)
			Expect(err).NotTo(HaveOccurred())
			Expect(traces).To(HaveLen(1))
			Expect(traces[0].ID).To(Equal("t1"))
		})
	})
})
