package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
)

// traceSummary is the condensed form of a linked trace returned by the
// commit link detail endpoint.
type traceSummary struct {
	TraceID   string           `json:"trace_id"`
	Found     *bool            `json:"found,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Tool      *agenttrace.Tool `json:"tool,omitempty"`
	ModelID   string           `json:"model_id,omitempty"`
}

// commitLinkDetail is the commit link detail response: the link itself with
// a summary of every trace it references.
type commitLinkDetail struct {
	*agenttrace.CommitLink
	TraceSummaries []traceSummary `json:"trace_summaries"`
}

// ledgerResponse is the per-commit attribution ledger response.
type ledgerResponse struct {
	CommitSHA   string                                  `json:"commit_sha"`
	ParentSHA   string                                  `json:"parent_sha,omitempty"`
	CommittedAt string                                  `json:"committed_at,omitempty"`
	TraceIDs    []string                                `json:"trace_ids"`
	Files       map[string][]agenttrace.LineAttribution `json:"files"`
}

// handleCreateCommitLink handles POST /api/v1/commit-links. Commit hooks
// post the link right after a commit lands.
func (s *Server) handleCreateCommitLink(c *fiber.Ctx) error {
	var req struct {
		ProjectID string `json:"project_id"`
		agenttrace.CommitLink
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.ProjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id is required",
		})
	}
	if req.CommitSHA == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "commit_sha is required",
		})
	}
	if len(req.TraceIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "trace_ids must be a non-empty list",
		})
	}

	if err := s.storer.CreateCommitLink(c.Context(), req.ProjectID, &req.CommitLink); err != nil {
		s.logger.Error("commit link ingest failed",
			zap.String("project_id", req.ProjectID),
			zap.String("commit_sha", req.CommitSHA),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to store commit link",
		})
	}

	s.publishCommitLinked(req.ProjectID, userID(c), &req.CommitLink)

	return c.Status(fiber.StatusCreated).JSON(map[string]any{
		"ok":         true,
		"commit_sha": req.CommitSHA,
	})
}

// handleGetCommitLink handles GET /api/v1/commit-links/:commitSHA.
func (s *Server) handleGetCommitLink(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id query parameter is required",
		})
	}

	link, err := s.storer.GetCommitLink(c.Context(), projectID, c.Params("commitSHA"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load commit link",
		})
	}
	if link == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Commit link not found",
		})
	}

	summaries := make([]traceSummary, 0, len(link.TraceIDs))
	for _, tid := range link.TraceIDs {
		stored, err := s.storer.GetTrace(c.Context(), projectID, tid)
		if err != nil || stored == nil || stored.Trace == nil {
			missing := false
			summaries = append(summaries, traceSummary{TraceID: tid, Found: &missing})
			continue
		}
		summaries = append(summaries, traceSummary{
			TraceID:   tid,
			Timestamp: stored.Trace.Timestamp,
			Tool:      stored.Trace.Tool,
			ModelID:   traceModelID(stored.Trace),
		})
	}

	return c.JSON(commitLinkDetail{
		CommitLink:     link,
		TraceSummaries: summaries,
	})
}

// handleGetCommitLedger handles GET /api/v1/commit-links/:commitSHA/ledger.
func (s *Server) handleGetCommitLedger(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id query parameter is required",
		})
	}

	link, err := s.storer.GetCommitLink(c.Context(), projectID, c.Params("commitSHA"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load commit link",
		})
	}
	if link == nil || link.Ledger == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Ledger not found",
		})
	}

	return c.JSON(ledgerResponse{
		CommitSHA:   link.CommitSHA,
		ParentSHA:   link.ParentSHA,
		CommittedAt: link.CommittedAt,
		TraceIDs:    link.TraceIDs,
		Files:       link.Ledger.Files,
	})
}

// traceModelID returns the model ID of the first conversation contributor
// that carries one.
func traceModelID(trace *agenttrace.AgentTrace) string {
	for _, file := range trace.Files {
		for _, conv := range file.Conversations {
			if conv.Contributor != nil && conv.Contributor.ModelID != "" {
				return conv.Contributor.ModelID
			}
		}
	}
	return ""
}
