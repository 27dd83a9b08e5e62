package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/storage"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
)

// batchItem pairs one trace with the conversation contents recorded
// alongside it.
type batchItem struct {
	Trace                *agenttrace.AgentTrace           `json:"trace"`
	ConversationContents []agenttrace.ConversationContent `json:"conversation_contents"`
}

// handleIngestTrace handles POST /api/v1/traces.
func (s *Server) handleIngestTrace(c *fiber.Ctx) error {
	var req struct {
		ProjectID            string                           `json:"project_id"`
		Trace                *agenttrace.AgentTrace           `json:"trace"`
		ConversationContents []agenttrace.ConversationContent `json:"conversation_contents"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.ProjectID == "" || req.Trace == nil || req.Trace.ID == "" || req.Trace.Timestamp == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id, trace.id, and trace.timestamp are required",
		})
	}

	uid := userID(c)
	if err := s.storer.CreateTrace(c.Context(), req.ProjectID, uid, req.Trace); err != nil {
		s.logger.Error("trace ingest failed",
			zap.String("project_id", req.ProjectID),
			zap.String("trace_id", req.Trace.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to store trace",
		})
	}

	if len(req.ConversationContents) > 0 {
		if _, err := s.storer.UpsertConversationContents(c.Context(), req.ProjectID, req.ConversationContents); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "failed to store conversation contents",
			})
		}
	}

	s.publishTraceIngested(req.ProjectID, uid, req.Trace)

	return c.Status(fiber.StatusCreated).JSON(map[string]any{
		"ok":       true,
		"trace_id": req.Trace.ID,
	})
}

// handleIngestTraceBatch handles POST /api/v1/traces/batch.
func (s *Server) handleIngestTraceBatch(c *fiber.Ctx) error {
	var req struct {
		ProjectID string      `json:"project_id"`
		Items     []batchItem `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.ProjectID == "" || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id and items are required",
		})
	}

	// Validate every item before storing any so a bad batch leaves no
	// partial state behind.
	for _, item := range req.Items {
		if item.Trace == nil || item.Trace.ID == "" || item.Trace.Timestamp == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "each item requires trace.id and trace.timestamp",
			})
		}
	}

	uid := userID(c)
	traceIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if err := s.storer.CreateTrace(c.Context(), req.ProjectID, uid, item.Trace); err != nil {
			s.logger.Error("batch trace ingest failed",
				zap.String("project_id", req.ProjectID),
				zap.String("trace_id", item.Trace.ID),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "failed to store trace",
			})
		}
		if len(item.ConversationContents) > 0 {
			if _, err := s.storer.UpsertConversationContents(c.Context(), req.ProjectID, item.ConversationContents); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
					Error: "failed to store conversation contents",
				})
			}
		}
		s.publishTraceIngested(req.ProjectID, uid, item.Trace)
		traceIDs = append(traceIDs, item.Trace.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(map[string]any{
		"ok":        true,
		"count":     len(traceIDs),
		"trace_ids": traceIDs,
	})
}

// handleQueryTraces handles GET /api/v1/traces.
func (s *Server) handleQueryTraces(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id query parameter is required",
		})
	}

	var query storage.TraceQuery

	if since := c.Query("since"); since != "" {
		t, ok := agenttrace.ParseTimestamp(since)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "since must be an RFC 3339 timestamp",
			})
		}
		query.Since = &t
	}
	if until := c.Query("until"); until != "" {
		t, ok := agenttrace.ParseTimestamp(until)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "until must be an RFC 3339 timestamp",
			})
		}
		query.Until = &t
	}

	query.Limit = defaultQueryLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "limit must be a positive integer",
			})
		}
		query.Limit = limit
	}
	if query.Limit > maxQueryLimit {
		query.Limit = maxQueryLimit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "offset must be a non-negative integer",
			})
		}
		query.Offset = offset
	}

	traces, total, err := s.storer.QueryTraces(c.Context(), projectID, query)
	if err != nil {
		s.logger.Error("trace query failed",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to query traces",
		})
	}

	return c.JSON(map[string]any{
		"traces": traces,
		"total":  total,
		"limit":  query.Limit,
		"offset": query.Offset,
	})
}

// handleGetTrace handles GET /api/v1/traces/:traceID.
func (s *Server) handleGetTrace(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id query parameter is required",
		})
	}

	stored, err := s.storer.GetTrace(c.Context(), projectID, c.Params("traceID"))
	if err != nil {
		if isNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Trace not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load trace",
		})
	}

	return c.JSON(stored)
}

// handleSyncConversations handles POST /api/v1/conversations/sync. Agents
// call it after a response finishes, when there is new conversation content
// but no new trace.
func (s *Server) handleSyncConversations(c *fiber.Ctx) error {
	var req struct {
		ProjectID            string                            `json:"project_id"`
		ConversationContents *[]agenttrace.ConversationContent `json:"conversation_contents"`
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
	if req.ConversationContents == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "conversation_contents must be a list",
		})
	}

	synced, err := s.storer.UpsertConversationContents(c.Context(), req.ProjectID, *req.ConversationContents)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to store conversation contents",
		})
	}

	return c.JSON(map[string]any{
		"ok":     true,
		"synced": synced,
	})
}
